package variants

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SourceImage identifies an original image and where its variants go.
type SourceImage struct {

	// Path to the original image file
	Filepath string

	// Grouping subdirectory (album, category) under each variant
	// directory. Might be empty or nested, e.g. "trips/2024".
	Map string

	// Output file name without extension
	Name string
}

// Validate makes sure every path resolved for the image stays inside
// the build root.
func (s SourceImage) Validate() error {
	if s.Filepath == "" {
		return fmt.Errorf("%w: empty file path", ErrInvalidSource)
	}

	if s.Name == "" || s.Name == "." || s.Name == ".." {
		return fmt.Errorf("%w: invalid name %q", ErrInvalidSource, s.Name)
	}
	if strings.ContainsAny(s.Name, `/\`) {
		return fmt.Errorf(
			"%w: name %q contains a path separator",
			ErrInvalidSource,
			s.Name,
		)
	}

	if s.Map != "" && !filepath.IsLocal(filepath.FromSlash(s.Map)) {
		return fmt.Errorf("%w: map %q is not a local path", ErrInvalidSource, s.Map)
	}

	return nil
}

func (s SourceImage) String() string {
	return fmt.Sprintf("%s/%s (%s)", s.Map, s.Name, s.Filepath)
}
