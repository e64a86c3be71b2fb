// Package catalog reconciles raw retailer listings into canonical catalog
// rows: brand resolution, club-type normalization, identity-keyed club
// upserts, provenance tracking, and price propagation.
package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// clubTypeVocabulary maps retailer category slugs and their common variants
// to the canonical club type names every store is seeded with.
var clubTypeVocabulary = map[string]string{
	"driver":        "Driver",
	"drivers":       "Driver",
	"fairway wood":  "Fairway Wood",
	"fairway woods": "Fairway Wood",
	"fairway-woods": "Fairway Wood",
	"hybrid":        "Hybrid",
	"hybrids":       "Hybrid",
	"iron":          "Iron",
	"irons":         "Iron",
	"iron set":      "Iron Set",
	"iron sets":     "Iron Set",
	"iron-sets":     "Iron Set",
	"wedge":         "Wedge",
	"wedges":        "Wedge",
	"putter":        "Putter",
	"putters":       "Putter",
	"complete set":  "Complete Set",
	"complete sets": "Complete Set",
	"complete-sets": "Complete Set",
}

var titleCaser = cases.Title(language.English)

// CanonicalClubType resolves a category slug or free-text type name to its
// canonical form. The boolean reports whether the value was found in the
// fixed vocabulary; unknown values fall back to title case with hyphens
// treated as word breaks, and callers decide what to do with them.
func CanonicalClubType(raw string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	if name, ok := clubTypeVocabulary[key]; ok {
		return name, true
	}
	return titleCaser.String(strings.ReplaceAll(key, "-", " ")), false
}
