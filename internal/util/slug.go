// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any run of non-alphanumeric characters.
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9]+`)
	// Matches dashes and underscores in upload folder names.
	folderSeparatorRe = regexp.MustCompile(`[_-]+`)
	// Matches runs of whitespace.
	spaceRe = regexp.MustCompile(`\s+`)
)

// Slugify converts a beach name to a URL slug.
//
// Normalization rules:
//  1. Decompose accented characters and drop what is not ASCII
//  2. Lowercase
//  3. Replace every run of non-alphanumerics with one dash
//  4. Trim leading/trailing dashes
//
// Examples:
//
//	"Navagio Beach"        → "navagio-beach"
//	"Playa del Carmen"     → "playa-del-carmen"
//	"Praia da Marinha"     → "praia-da-marinha"
//	"Plage de l'Écluse"    → "plage-de-l-ecluse"
//	"  Anse Source d'Argent " → "anse-source-d-argent"
func Slugify(input string) string {
	s := norm.NFKD.String(input)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumericRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// MatchesFolderName reports whether an upload folder name refers to the
// beach called name. Dashes and underscores in the folder read as spaces,
// case is ignored, and a trailing " beach" on either side is optional:
//
//	MatchesFolderName("navagio", "Navagio Beach")      → true
//	MatchesFolderName("navagio_beach", "Navagio Beach") → true
//	MatchesFolderName("playa-norte", "Playa Norte")     → true
func MatchesFolderName(folder, name string) bool {
	f := normalizeWords(folderSeparatorRe.ReplaceAllString(folder, " "))
	n := normalizeWords(name)
	if f == "" || n == "" {
		return false
	}
	return n == f ||
		strings.TrimSuffix(n, " beach") == f ||
		n == f+" beach"
}

func normalizeWords(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(strings.ToLower(s), " "))
}
