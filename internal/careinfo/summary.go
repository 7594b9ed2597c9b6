package careinfo

import (
	"strings"

	"golang.org/x/text/language"
)

// phrases holds the category→phrase tables and line labels for one language.
type phrases struct {
	watering    map[string]string
	sunlight    map[string]string
	growth      map[string]string
	maintenance map[string]string

	wateringLabel    string
	sunlightLabel    string
	growthLabel      string
	maintenanceLabel string
	toxicHumans      string
	toxicPets        string
}

var korean = phrases{
	watering: map[string]string{
		"frequent": "자주 (흙이 마르면 바로)",
		"average":  "보통 (흙 표면이 마르면)",
		"minimum":  "적게 (흙이 완전히 마르면)",
		"none":     "거의 필요 없음",
	},
	sunlight: map[string]string{
		"full sun":       "직사광선",
		"part shade":     "반양지",
		"sun-part shade": "반양지",
		"full shade":     "그늘",
	},
	growth: map[string]string{
		"high":     "빠름",
		"moderate": "보통",
		"medium":   "보통",
		"low":      "느림",
	},
	maintenance: map[string]string{
		"high":     "높음",
		"moderate": "보통",
		"medium":   "보통",
		"low":      "낮음",
	},
	wateringLabel:    "💧 물 주기: ",
	sunlightLabel:    "☀️ 햇빛: ",
	growthLabel:      "🌱 성장 속도: ",
	maintenanceLabel: "🔧 관리 난이도: ",
	toxicHumans:      "⚠️ 사람에게 독성 있음",
	toxicPets:        "🐾 반려동물에게 독성 있음",
}

var english = phrases{
	watering: map[string]string{
		"frequent": "Frequent (as soon as the soil dries)",
		"average":  "Average (when the topsoil is dry)",
		"minimum":  "Minimal (when the soil is completely dry)",
		"none":     "Rarely needed",
	},
	sunlight: map[string]string{
		"full sun":       "Direct sun",
		"part shade":     "Partial shade",
		"sun-part shade": "Partial shade",
		"full shade":     "Shade",
	},
	growth: map[string]string{
		"high":     "Fast",
		"moderate": "Moderate",
		"medium":   "Moderate",
		"low":      "Slow",
	},
	maintenance: map[string]string{
		"high":     "High",
		"moderate": "Moderate",
		"medium":   "Moderate",
		"low":      "Low",
	},
	wateringLabel:    "💧 Watering: ",
	sunlightLabel:    "☀️ Sunlight: ",
	growthLabel:      "🌱 Growth rate: ",
	maintenanceLabel: "🔧 Maintenance: ",
	toxicHumans:      "⚠️ Toxic to humans",
	toxicPets:        "🐾 Toxic to pets",
}

var (
	supported = []language.Tag{language.Korean, language.English}
	matcher   = language.NewMatcher(supported)
)

// phrasesFor picks the table for a BCP 47 tag. Unknown or empty tags get
// the Korean table.
func phrasesFor(lang string) *phrases {
	if lang == "" {
		return &korean
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return &korean
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No || supported[index] == language.Korean {
		return &korean
	}
	return &english
}

// Summary renders the care notes for p, one line per category the
// directory returned. An empty string means nothing was present.
func Summary(p *Profile, lang string) string {
	if p == nil {
		return ""
	}
	t := phrasesFor(lang)
	var lines []string

	if p.Watering != "" {
		line := t.wateringLabel + translate(t.watering, p.Watering)
		if p.Benchmark != "" {
			line += " (" + p.Benchmark + ")"
		}
		lines = append(lines, line)
	}

	if len(p.Sunlight) > 0 {
		parts := make([]string, 0, len(p.Sunlight))
		for _, s := range p.Sunlight {
			parts = append(parts, translate(t.sunlight, s))
		}
		lines = append(lines, t.sunlightLabel+strings.Join(parts, ", "))
	}

	if p.GrowthRate != "" {
		lines = append(lines, t.growthLabel+translate(t.growth, p.GrowthRate))
	}
	if p.Maintenance != "" {
		lines = append(lines, t.maintenanceLabel+translate(t.maintenance, p.Maintenance))
	}
	if p.PoisonousToHumans {
		lines = append(lines, t.toxicHumans)
	}
	if p.PoisonousToPets {
		lines = append(lines, t.toxicPets)
	}

	return strings.Join(lines, "\n")
}

// translate looks up a category case-insensitively and falls back to the
// raw value.
func translate(table map[string]string, category string) string {
	if phrase, ok := table[strings.ToLower(strings.TrimSpace(category))]; ok {
		return phrase
	}
	return category
}
