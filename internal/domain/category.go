package domain

import "strings"

// DisasterCategory classifies an upstream disaster-type label.
type DisasterCategory string

const (
	CategoryEarthquake   DisasterCategory = "earthquake"
	CategoryTsunami      DisasterCategory = "tsunami"
	CategoryWildfire     DisasterCategory = "wildfire"
	CategoryCivilDefense DisasterCategory = "civil-defense"

	// Legacy categories kept for older fallback templates.
	CategoryFlood   DisasterCategory = "flood"
	CategoryTyphoon DisasterCategory = "typhoon"
	CategoryFire    DisasterCategory = "fire"

	CategoryOther DisasterCategory = "other"
)

// categoryLabels maps upstream DSSTR_SE_NM labels to categories. Lookup is
// exact on the trimmed label; substring routing would make "지진해일"
// ambiguous against "지진" as the vocabulary grows.
var categoryLabels = map[string]DisasterCategory{
	"지진":   CategoryEarthquake,
	"지진해일": CategoryTsunami,
	"해일":   CategoryTsunami,
	"쓰나미":  CategoryTsunami,
	"산불":   CategoryWildfire,
	"민방위":  CategoryCivilDefense,
	"전쟁":   CategoryCivilDefense,
	"공습":   CategoryCivilDefense,
	"호우":   CategoryFlood,
	"홍수":   CategoryFlood,
	"태풍":   CategoryTyphoon,
	"화재":   CategoryFire,

	// English aliases accepted on the synchronous API surface.
	"earthquake":    CategoryEarthquake,
	"tsunami":       CategoryTsunami,
	"wildfire":      CategoryWildfire,
	"civil-defense": CategoryCivilDefense,
	"flood":         CategoryFlood,
	"typhoon":       CategoryTyphoon,
	"fire":          CategoryFire,
}

// ParseCategory resolves an upstream disaster-type label. Unknown labels
// classify as CategoryOther.
func ParseCategory(label string) DisasterCategory {
	if c, ok := categoryLabels[strings.TrimSpace(label)]; ok {
		return c
	}
	return CategoryOther
}

// ShelterCategory is the fixed shelter-type vocabulary.
type ShelterCategory string

const (
	ShelterEarthquake   ShelterCategory = "earthquake"
	ShelterTsunami      ShelterCategory = "tsunami"
	ShelterCivilDefense ShelterCategory = "civil-defense"
	ShelterOther        ShelterCategory = "other"
)

// shelterLabels accepts both the vocabulary itself and the Korean labels
// used by the national shelter data set.
var shelterLabels = map[string]ShelterCategory{
	"earthquake":    ShelterEarthquake,
	"tsunami":       ShelterTsunami,
	"civil-defense": ShelterCivilDefense,
	"other":         ShelterOther,
	"지진대피소":         ShelterEarthquake,
	"지진해일대피소":       ShelterTsunami,
	"해일대피소":         ShelterTsunami,
	"민방위대피소":        ShelterCivilDefense,
	"기타대피소":         ShelterOther,
}

// ParseShelterCategory resolves a shelter-type label from reference data.
// Unknown labels classify as ShelterOther.
func ParseShelterCategory(label string) ShelterCategory {
	if c, ok := shelterLabels[strings.TrimSpace(label)]; ok {
		return c
	}
	return ShelterOther
}

// ShelterCategoryFor returns the shelter-vocabulary entry appropriate to a
// disaster category. The second return is false for categories that rank
// against the unfiltered pool (wildfire, weather disasters, other).
func ShelterCategoryFor(c DisasterCategory) (ShelterCategory, bool) {
	switch c {
	case CategoryEarthquake:
		return ShelterEarthquake, true
	case CategoryTsunami:
		return ShelterTsunami, true
	case CategoryCivilDefense:
		return ShelterCivilDefense, true
	case CategoryWildfire, CategoryFlood, CategoryTyphoon, CategoryFire, CategoryOther:
		return "", false
	default:
		return "", false
	}
}
