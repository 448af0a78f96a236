package media

import (
	"path/filepath"
	"strings"
)

// OutputPath places the converted file next to the source, keeping the stem
// and swapping the extension for the target container's. An existing file at
// that location is overwritten by the backend without warning.
func OutputPath(sourcePath string, format ContainerFormat) string {
	dir := filepath.Dir(sourcePath)
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(dir, stem+"."+format.Extension())
}

// IsConvertible reports whether path carries an extension of a supported container.
func IsConvertible(path string) bool {
	return FormatFromExtension(filepath.Ext(path)) != FormatUnknown
}
