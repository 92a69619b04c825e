package variants

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSource indicates a SourceImage whose map or name would
	// resolve outside the build root, or that lacks a file path.
	ErrInvalidSource = errors.New("invalid source image")

	// ErrUnsupportedSource indicates the source file is not an image.
	ErrUnsupportedSource = errors.New("unsupported source file type")

	// ErrSourceTooLarge indicates a source whose width or height is
	// above the transcoder's limit.
	ErrSourceTooLarge = errors.New("source image too large")

	ErrUnsupportedEncoding = errors.New("unsupported output encoding")
)

// TranscodeError is returned when a variant could not be produced,
// either because the source is unreadable or corrupt, or because the
// destination could not be written.
type TranscodeError struct {
	Src  string
	Dest string
	Err  error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode %s -> %s: %v", e.Src, e.Dest, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// DirectoryError is returned when a variant directory could not be
// created.
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("ensure directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// DeletionError is returned when a variant file exists but could not
// be removed.
type DeletionError struct {
	Path string
	Err  error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("remove %s: %v", e.Path, e.Err)
}

func (e *DeletionError) Unwrap() error { return e.Err }
