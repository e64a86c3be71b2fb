package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalClubType(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  string
		known bool
	}{
		{"category slug", "drivers", "Driver", true},
		{"hyphenated slug", "fairway-woods", "Fairway Wood", true},
		{"singular free text", "Putter", "Putter", true},
		{"detail page text", "Fairway Woods", "Fairway Wood", true},
		{"iron set slug", "iron-sets", "Iron Set", true},
		{"mixed case", "HYBRIDS", "Hybrid", true},
		{"whitespace", "  wedges  ", "Wedge", true},
		{"unknown title-cased", "training aid", "Training Aid", false},
		{"unknown hyphenated", "chipping-irons", "Chipping Irons", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, known := CanonicalClubType(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, known)
		})
	}
}
