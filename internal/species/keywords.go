// Package species holds the static plant lookup tables: classifier label
// keywords, the curated houseplant list, scientific to Korean names and
// display name to care directory search terms.
package species

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// plantKeywords are fragments of ImageNet labels that indicate plant matter
// in a photo.
var plantKeywords = map[string]struct{}{
	// flowers
	"daisy": {}, "sunflower": {}, "rose": {}, "tulip": {}, "dandelion": {}, "lily": {},
	"orchid": {}, "poppy": {}, "lotus": {}, "hibiscus": {}, "lavender": {}, "jasmine": {},

	// vegetables and fruit
	"bell pepper": {}, "cauliflower": {}, "broccoli": {}, "artichoke": {}, "cardoon": {},
	"fig": {}, "banana": {}, "lemon": {}, "orange": {}, "strawberry": {}, "pineapple": {},
	"rapeseed": {}, "corn": {}, "mushroom": {}, "acorn": {}, "cucumber": {}, "zucchini": {},
	"head cabbage": {}, "spaghetti squash": {}, "butternut squash": {},

	// pots
	"flowerpot": {}, "pot, flower pot": {}, "vase": {},

	// landscape
	"alp": {}, "hay": {}, "ear": {},
	"cliff": {}, "valley": {}, "lakeside": {}, "seashore": {},
}

// IsPlantRelated reports whether a classifier label contains any plant
// keyword, ignoring case.
func IsPlantRelated(label string) bool {
	folded := fold(label)
	for keyword := range plantKeywords {
		if strings.Contains(folded, keyword) {
			return true
		}
	}
	return false
}

// fold normalizes s for case-insensitive comparison. Hangul typed on some
// platforms arrives decomposed, so NFC runs first.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}
