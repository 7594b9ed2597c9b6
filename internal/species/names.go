package species

import (
	"cmp"
	"slices"
	"strings"
	"sync"
)

// scientificToKorean maps names commonly returned by PlantNet to Korean
// display names.
var scientificToKorean = map[string]string{
	"Monstera deliciosa":      "몬스테라",
	"Monstera adansonii":      "몬스테라 아단소니",
	"Epipremnum aureum":       "스킨답서스",
	"Ficus elastica":          "고무나무",
	"Ficus lyrata":            "떡갈고무나무",
	"Ficus benjamina":         "벤자민고무나무",
	"Ficus benghalensis":      "뱅갈고무나무",
	"Sansevieria trifasciata": "산세베리아",
	"Dracaena trifasciata":    "산세베리아",
	"Sansevieria cylindrica":  "스투키",
	"Dracaena fragrans":       "행운목",
	"Dracaena sanderiana":     "개운죽",
	"Dracaena marginata":      "드라세나 마지나타",
	"Pachira aquatica":        "파키라",
	"Dypsis lutescens":        "아레카야자",
	"Chamaedorea elegans":     "테이블야자",
	"Aloe vera":               "알로에",
	"Hedera helix":            "아이비",
	"Zamioculcas zamiifolia":  "금전수",
	"Spathiphyllum":           "스파티필럼",
	"Anthurium":               "안스리움",
	"Philodendron":            "필로덴드론",
	"Calathea":                "칼라테아",
	"Nephrolepis exaltata":    "보스턴고사리",
	"Strelitzia nicolai":      "여인초",
	"Strelitzia reginae":      "극락조",
	"Cupressus macrocarpa":    "율마",
	"Olea europaea":           "올리브나무",
	"Citrus limon":            "레몬나무",
	"Coffea arabica":          "커피나무",
	"Cycas revoluta":          "소철",
	"Codiaeum variegatum":     "크로톤",
	"Fittonia":                "피토니아",
	"Peperomia":               "페페로미아",
	"Tradescantia":            "트리안",
	"Maranta leuconeura":      "마란타",
	"Pilea peperomioides":     "필레아",
	"Hoya carnosa":            "호야",
	"Pelargonium":             "제라늄",
	"Lavandula":               "라벤더",
	"Rosmarinus officinalis":  "로즈마리",
	"Salvia rosmarinus":       "로즈마리",
	"Ocimum basilicum":        "바질",
	"Mentha":                  "민트",
	"Rosa":                    "장미",
	"Helianthus annuus":       "해바라기",
	"Tulipa":                  "튤립",
	"Hydrangea":               "수국",
	"Narcissus":               "수선화",
	"Chrysanthemum":           "국화",
	"Lilium":                  "백합",
	"Orchidaceae":             "난초",
	"Phalaenopsis":            "호접란",
	"Dendrobium":              "석곡란",
	"Cactaceae":               "선인장",
	"Echeveria":               "에케베리아",
	"Haworthia":               "하월시아",
	"Crassula ovata":          "염좌",
	"Agave":                   "아가베",
	"Thymus":                  "타임",
	"Hyacinthus":              "히아신스",
}

// searchTerms maps Korean display names to the common names the care
// directory matches best.
var searchTerms = map[string]string{
	"몬스테라":    "Monstera",
	"스킨답서스":   "Golden Pothos",
	"고무나무":    "Rubber plant",
	"산세베리아":   "Snake plant",
	"스투키":     "Cylindrical snake plant",
	"행운목":     "Corn plant",
	"파키라":     "Money tree",
	"아레카야자":   "Areca palm",
	"개운죽":     "Lucky bamboo",
	"알로에":     "Aloe vera",
	"선인장":     "Cactus",
	"다육이":     "Succulent",
	"아이비":     "English ivy",
	"테이블야자":   "Parlor palm",
	"금전수":     "ZZ plant",
	"칼라테아":    "Calathea",
	"필로덴드론":   "Philodendron",
	"보스턴고사리":  "Boston fern",
	"스파티필럼":   "Peace lily",
	"안스리움":    "Anthurium",
	"호야":      "Hoya",
	"제라늄":     "Geranium",
	"라벤더":     "Lavender",
	"로즈마리":    "Rosemary",
	"바질":      "Basil",
	"떡갈고무나무":  "Fiddle leaf fig",
	"벤자민고무나무": "Weeping fig",
	"뱅갈고무나무":  "Bengal fig",
	"여인초":     "White bird of paradise",
	"극락조":     "Bird of paradise",
	"율마":      "Lemon cypress",
	"유칼립투스":   "Eucalyptus",
	"올리브나무":   "Olive tree",
	"레몬나무":    "Lemon tree",
	"커피나무":    "Coffee plant",
	"소철":      "Sago palm",
	"아가베":     "Agave",
	"크로톤":     "Croton",
	"드라세나":    "Dracaena",
	"피토니아":    "Nerve plant",
	"페페로미아":   "Peperomia",
	"트리안":     "Tradescantia",
	"마란타":     "Prayer plant",
	"필레아":     "Chinese money plant",
	"장미":      "Rose",
	"해바라기":    "Sunflower",
	"튤립":      "Tulip",
	"수국":      "Hydrangea",
	"데이지":     "Daisy",
	"백합":      "Lily",
	"난초":      "Orchid",
	"히아신스":    "Hyacinth",
	"수선화":     "Daffodil",
	"국화":      "Chrysanthemum",
	"민트":      "Mint",
	"타임":      "Thyme",
}

type nameEntry struct {
	key    string // folded scientific name or genus
	korean string
}

type nameIndex struct {
	// longest key first, so the first hit is the most specific
	byScientific []nameEntry
	// folded Korean name -> scientific name
	byKorean map[string]string
	// folded Korean name -> directory search term
	terms map[string]string
}

var (
	indexOnce sync.Once
	index     *nameIndex
)

func getIndex() *nameIndex {
	indexOnce.Do(func() { index = buildIndex() })
	return index
}

func buildIndex() *nameIndex {
	idx := &nameIndex{
		byKorean: make(map[string]string),
		terms:    make(map[string]string, len(searchTerms)),
	}

	seen := make(map[string]bool)
	add := func(key, korean string) {
		k := fold(key)
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		idx.byScientific = append(idx.byScientific, nameEntry{key: k, korean: korean})
	}

	for sci, ko := range scientificToKorean {
		add(sci, ko)
	}
	for _, p := range houseplants {
		add(p.English, p.Korean)
	}
	// Genus-level fallback keys. Curated order decides which Korean name a
	// shared genus maps to.
	for _, p := range houseplants {
		if genus, _, found := strings.Cut(p.English, " "); found {
			add(genus, p.Korean)
		}
	}

	slices.SortFunc(idx.byScientific, func(a, b nameEntry) int {
		if c := cmp.Compare(len(b.key), len(a.key)); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})

	for _, p := range houseplants {
		idx.byKorean[fold(p.Korean)] = p.English
	}
	for sci, ko := range scientificToKorean {
		if _, ok := idx.byKorean[fold(ko)]; !ok {
			idx.byKorean[fold(ko)] = sci
		}
	}
	for ko, term := range searchTerms {
		idx.terms[fold(ko)] = term
	}
	return idx
}

// LocalizedName translates a scientific name to a Korean display name.
// The longest table key found in the name at a word boundary wins, so
// "Monstera adansonii" beats the genus "Monstera".
func LocalizedName(scientific string) (string, bool) {
	name := fold(scientific)
	if name == "" {
		return "", false
	}
	for _, e := range getIndex().byScientific {
		if containsWord(name, e.key) {
			return e.korean, true
		}
	}
	return "", false
}

// SearchTerm returns the care directory search term for a Korean display name.
func SearchTerm(displayName string) (string, bool) {
	term, ok := getIndex().terms[fold(displayName)]
	return term, ok
}

// ScientificFor returns the scientific name behind a Korean display name.
func ScientificFor(displayName string) (string, bool) {
	sci, ok := getIndex().byKorean[fold(displayName)]
	return sci, ok
}

// EnglishName returns an English common name for a Korean display name,
// falling back to the scientific name.
func EnglishName(displayName string) (string, bool) {
	if term, ok := SearchTerm(displayName); ok {
		return term, true
	}
	return ScientificFor(displayName)
}

// containsWord reports whether key occurs in s starting and ending on word
// boundaries.
func containsWord(s, key string) bool {
	for offset := 0; ; {
		i := strings.Index(s[offset:], key)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(key)
		if (start == 0 || isBoundary(s[start-1])) && (end == len(s) || isBoundary(s[end])) {
			return true
		}
		offset = start + 1
	}
}

func isBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '-', '\'', '"', '(', ')', ',', '.':
		return true
	}
	return false
}
