// Package normalize converts raw per-platform field values into canonical
// typed values. Every function is total: unparseable input falls back to a
// nil canonical value with the raw text retained.
package normalize

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// CleanText strips non-breaking spaces and other platform cruft and
// collapses runs of whitespace.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "​", "")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Key standardizes a title or organization name for matching:
// lowercased, punctuation stripped, ampersand expanded, whitespace folded.
func Key(s string) string {
	s = strings.ToLower(CleanText(s))
	if s == "" {
		return ""
	}
	s = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"’", "",
		"\"", "",
		":", "",
		"!", "",
		"&", "and",
		"-", " ",
		"–", " ",
		"—", " ",
	).Replace(s)
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokens splits a matching key into its word set.
func Tokens(s string) []string {
	return strings.Fields(Key(s))
}

// Truncate caps s at max runes, used for oversized descriptions.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

var titleCaser = cases.Title(language.AmericanEnglish)

var camelBoundaryRe = regexp.MustCompile(`([a-z])([A-Z])`)

// OrgFromURL infers an organization name from a listing URL's host, e.g.
// https://prairie-arts.artcall.org/... -> "Prairie Arts". Returns "" when
// the host carries no usable name. Used to backfill records whose platform
// reports no organization but links out to the organizer's own site.
func OrgFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	labels := strings.Split(host, ".")
	name := labels[0]
	// Subdomain of a hosting platform names the organizer directly.
	if len(labels) > 2 {
		if name == "artist" || name == "app" || name == "client" {
			return ""
		}
	}
	if name == "" || name == "w" {
		return ""
	}

	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	name = camelBoundaryRe.ReplaceAllString(name, "$1 $2")
	return titleCaser.String(CleanText(name))
}
