package tasks

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var (
	featPattern     = regexp.MustCompile(`(?i)\s*(\(|\[)?\s*(feat\.|featuring|with)\s+[^)\]]+(\)|\])?`)
	trailingParens  = regexp.MustCompile(`\s*\(.*?\)\s*$`)
	versionPattern  = regexp.MustCompile(`(?i)\s*[-–:]?\s*\b(remaster(ed)?(\s*\d{4})?|radio edit|single version|album version|clean|explicit|demo|live|mix|edit|version)\b.*`)
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
)

// CanonicalTitle reduces a track title to a comparison key.
//
// Accents are folded to ASCII, featured artists and version suffixes ("Remastered 2011",
// "Radio Edit", "Live") are dropped, "&" reads as "and", and everything that is not a
// lowercase letter or digit collapses to a single space.
func CanonicalTitle(title string) string {
	s := unidecode.Unidecode(title)
	s = featPattern.ReplaceAllString(s, "")
	s = trailingParens.ReplaceAllString(s, "")
	s = versionPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.TrimSpace(nonAlphanumeric.ReplaceAllString(strings.ToLower(s), " "))
	if s == "" {
		return strings.TrimSpace(nonAlphanumeric.ReplaceAllString(strings.ToLower(unidecode.Unidecode(title)), " "))
	}
	return s
}

// trackKey identifies a song independent of its release, so remasters and live cuts of
// the same title by the same artist collapse together.
func trackKey(title, artistID string) string {
	return CanonicalTitle(title) + "::" + artistID
}
