// Package textutil holds the filesystem-name sanitization shared by the
// staging, library, and cue-sheet writers. Album and track titles come from
// metadata lookups and can contain any character a release editor typed.
package textutil

import "strings"

// fileNameReplacer replaces filesystem-unsafe characters with safe
// alternatives. Separators become dashes so "AC/DC" stays readable as
// "AC-DC"; purely problematic characters are dropped.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a file or
// directory name. The result is trimmed of leading and trailing whitespace;
// empty input yields an empty string so callers can supply their own
// fallback.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}
