package domain

import "time"

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Alert is a single disaster notice accepted from the upstream source.
// Immutable once persisted; downstream stages reference it by ID only.
type Alert struct {
	ID            string           `json:"id"`
	ExternalID    string           `json:"external_id,omitempty"`
	Category      DisasterCategory `json:"category"`
	CategoryLabel string           `json:"category_label"`
	AreaName      string           `json:"area_name"`
	Message       string           `json:"message"`
	Severity      string           `json:"severity,omitempty"`
	IssuedAt      time.Time        `json:"issued_at"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Profile holds the non-identifying subscriber attributes used to
// personalize guidance. Optional fields are declared up front rather than
// passed around in loose maps.
type Profile struct {
	AgeGroup    string `json:"age_group,omitempty"`   // e.g. "청소년", "성인", "노인"
	Mobility    string `json:"mobility,omitempty"`    // e.g. "정상", "휠체어", "유아동반"
	HeightCM    *int   `json:"height_cm,omitempty"`
	MedicalNote string `json:"medical_note,omitempty"`
}

// Subscriber is a device-identified user of the consuming mobile app.
// Read-only to this pipeline; the registration surface owns mutation.
type Subscriber struct {
	DeviceID       string    `json:"device_id"`
	PushToken      string    `json:"push_token,omitempty"`
	Profile        Profile   `json:"profile"`
	Location       *Geo      `json:"location,omitempty"`
	LastLocationAt time.Time `json:"last_location_at"`
	Active         bool      `json:"active"`
}

// Shelter is static reference data.
type Shelter struct {
	Name     string          `json:"name"`
	Address  string          `json:"address"`
	Category ShelterCategory `json:"category"`
	Geo      Geo             `json:"geo"`
	Capacity *int            `json:"capacity,omitempty"`
}

// RankedShelter is a Shelter plus observer-relative measurements. It is
// produced fresh for every ranking call and must never be cached.
type RankedShelter struct {
	Shelter
	DistanceKM     float64 `json:"distance_km"`
	WalkingMinutes int     `json:"walking_minutes"`
}

// GenerationMethod records how an action card's text was produced.
type GenerationMethod string

const (
	MethodGenerated GenerationMethod = "generated"
	MethodFallback  GenerationMethod = "fallback"
)

// ActionCard is the short evacuation instruction delivered to one
// subscriber. Ephemeral: handed straight to the dispatcher, not persisted.
type ActionCard struct {
	Text     string           `json:"text"`
	Method   GenerationMethod `json:"method"`
	Shelters []RankedShelter  `json:"shelters,omitempty"`
}
