// Package title derives display names and search keys from the caption and
// filename of an archived media message.
package title

import (
	"regexp"
	"strings"
)

// FallbackName is used when a message carries neither caption nor filename.
const FallbackName = "Unknown Movie"

var (
	// Release-group/quality tags like [HEVC] or (2160p) carry no title
	// information and would poison matching. A purely numeric group is a
	// release year and stays searchable.
	bracketed = regexp.MustCompile(`\[[^\]]*\]`)
	parens    = regexp.MustCompile(`\(([^)]*)\)`)
	numeric   = regexp.MustCompile(`^\d+$`)
	separator = regexp.MustCompile(`[._-]`)
	spaces    = regexp.MustCompile(`\s+`)
)

// Normalize picks the display name for a file and derives its search key.
// The display name is the caption when present, otherwise the filename,
// otherwise FallbackName; it is never altered. The search key is the
// lowercased name with tag groups removed, separators turned into spaces
// and whitespace collapsed.
func Normalize(caption, filename string) (name, searchKey string) {
	name = caption
	if name == "" {
		name = filename
	}
	if name == "" {
		name = FallbackName
	}

	key := bracketed.ReplaceAllString(name, " ")
	key = parens.ReplaceAllStringFunc(key, func(group string) string {
		inner := group[1 : len(group)-1]
		if numeric.MatchString(inner) {
			return " " + inner + " "
		}
		return " "
	})
	key = separator.ReplaceAllString(key, " ")
	key = spaces.ReplaceAllString(key, " ")
	searchKey = strings.ToLower(strings.TrimSpace(key))
	return name, searchKey
}
