package perenual

import (
	"strings"

	"github.com/tidwall/gjson"
)

// parseFirstSpecies reads data[0] of a species-list response. The API is
// inconsistent about types, so every field is read leniently.
func parseFirstSpecies(body []byte) (*Species, bool) {
	first := gjson.GetBytes(body, "data.0")
	if !first.Exists() || !first.IsObject() {
		return nil, false
	}

	s := &Species{
		ID:             int(first.Get("id").Int()),
		CommonName:     first.Get("common_name").String(),
		ScientificName: firstString(first.Get("scientific_name")),
		Watering:       first.Get("watering").String(),
		Sunlight:       stringList(first.Get("sunlight")),
		Cycle:          first.Get("cycle").String(),
	}
	if s.Watering == "" {
		s.Watering = DefaultWatering
	}
	return s, true
}

// applyDetails fills s from a species/details response.
func applyDetails(s *Species, body []byte) {
	doc := gjson.ParseBytes(body)

	if b := benchmark(doc.Get("watering_general_benchmark")); b != "" {
		s.Benchmark = b
	}
	if v := doc.Get("growth_rate").String(); v != "" {
		s.GrowthRate = v
	}
	if v := doc.Get("maintenance").String(); v != "" {
		s.Maintenance = v
	} else if v := doc.Get("care_level").String(); v != "" {
		s.Maintenance = v
	}
	if v, ok := flag(doc.Get("poisonous_to_humans")); ok {
		s.PoisonousToHumans = &v
	}
	if v, ok := flag(doc.Get("poisonous_to_pets")); ok {
		s.PoisonousToPets = &v
	}
	if len(s.Sunlight) == 0 {
		s.Sunlight = stringList(doc.Get("sunlight"))
	}
	if s.Cycle == "" {
		s.Cycle = doc.Get("cycle").String()
	}
	if w := doc.Get("watering").String(); w != "" {
		s.Watering = w
	}
}

// stringList accepts a string or an array of strings.
func stringList(r gjson.Result) []string {
	if r.IsArray() {
		var out []string
		for _, v := range r.Array() {
			if str := strings.TrimSpace(v.String()); str != "" {
				out = append(out, str)
			}
		}
		return out
	}
	if r.Type == gjson.String {
		if str := strings.TrimSpace(r.String()); str != "" {
			return []string{str}
		}
	}
	return nil
}

// firstString accepts a string or the first element of an array.
func firstString(r gjson.Result) string {
	if list := stringList(r); len(list) > 0 {
		return list[0]
	}
	return ""
}

// benchmark renders {"value":"5-7","unit":"days"} as "5-7 days". Values
// sometimes arrive wrapped in extra quotes.
func benchmark(r gjson.Result) string {
	if !r.Exists() {
		return ""
	}
	if r.Type == gjson.String {
		return strings.Trim(strings.TrimSpace(r.String()), `"`)
	}
	value := strings.Trim(strings.TrimSpace(r.Get("value").String()), `"`)
	if value == "" {
		return ""
	}
	if unit := strings.TrimSpace(r.Get("unit").String()); unit != "" {
		return value + " " + unit
	}
	return value
}

// flag accepts true/false, 0/1 and "0"/"1".
func flag(r gjson.Result) (bool, bool) {
	switch r.Type {
	case gjson.True:
		return true, true
	case gjson.False:
		return false, true
	case gjson.Number:
		return r.Int() != 0, true
	case gjson.String:
		switch strings.ToLower(strings.TrimSpace(r.String())) {
		case "1", "true", "yes":
			return true, true
		case "0", "false", "no":
			return false, true
		}
	}
	return false, false
}
