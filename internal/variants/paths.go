package variants

import (
	"path/filepath"
)

// Resolve computes the destination path of one variant of src:
//
//	buildRoot/<variant dir>/<map>/<name>.<ext>
//
// The result is absolute whenever buildRoot is.
func Resolve(
	buildRoot string,
	src SourceImage,
	enc Encoding,
	v Variant,
) string {
	return filepath.Join(
		buildRoot,
		filepath.FromSlash(DirectoryOf(enc, v)),
		filepath.FromSlash(src.Map),
		src.Name+"."+enc.Extension(),
	)
}
