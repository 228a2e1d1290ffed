package fileutil

import "strings"

// fileNameReplacer maps characters that are unsafe in file names on common
// filesystems to an underscore.
var fileNameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"\x00", "",
)

// SanitizeFileName makes name safe to use as one path element. Letters
// outside ASCII, such as Hangul technician names, are kept.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.TrimSpace(fileNameReplacer.Replace(name))
	if name == "." || name == ".." {
		return strings.Repeat("_", len(name))
	}
	return name
}
