package models

import (
	"github.com/google/uuid"
)

// VariantsRequest asks for the variants of one original image to be
// generated or removed.
type VariantsRequest struct {
	RequestId uuid.UUID `json:"requestId"`

	// Path to original image file. When relative, it's resolved
	// against env variable 'DIR_ORIGINALS_ROOT'
	FilePath string `json:"filePath"`

	// Grouping subdirectory under each variant directory
	Map string `json:"map"`

	// Output file name without extension. Defaults to the base name
	// of FilePath
	Name string `json:"name,omitempty"`
}
