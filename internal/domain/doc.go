// Package domain models Korean government disaster messages (재난문자) and the
// evacuation reference data used to turn them into subscriber guidance.
//
// # Data Source
//
// Disaster messages originate from the Ministry of the Interior and Safety
// (행정안전부) public disaster-message API. The poller fetches a page of recent
// messages on a fixed interval; each record carries a serial number, a
// disaster-type label, the receiving area name, the broadcast text, and an
// emergency-step label.
//
// # Upstream Field Conventions
//
// Message identifier:
//
//	MD101_SN is the upstream serial number and the preferred stable ID.
//	When it is absent the ID falls back to a hash of the raw issuance
//	timestamp (CRT_DT). Two alerts issued in the same instant from
//	different areas then collide; this weakness is intentional and matches
//	upstream fixtures. See [AlertID].
//
// Disaster-type labels (DSSTR_SE_NM):
//
//	Free-form Korean labels such as "지진" (earthquake), "지진해일" (tsunami),
//	"산불" (wildfire), "민방위" (civil defense), "호우" (heavy rain), "태풍"
//	(typhoon), "화재" (fire). Parsed into [DisasterCategory] by an exact
//	table lookup with an explicit default arm, never substring routing, so
//	"지진해일" can never be mistaken for "지진".
//
// Issuance time (CRT_DT):
//
//	Observed in several formats across API revisions: RFC 3339,
//	"2006/01/02 15:04:05", and "2006-01-02 15:04:05". [ParseIssuedAt]
//	tries each in turn and falls back to the current clock.
//
// # Shelter Vocabulary
//
// Shelters carry one of a small fixed category vocabulary: earthquake,
// tsunami, civil-defense, other. Disaster categories with a dedicated
// shelter type map onto it via [ShelterCategoryFor]; the rest rank against
// the whole pool. Distances use the great-circle formula with a 6371 km
// Earth radius; walking time assumes a configured speed (4.8 km/h default)
// and never reports less than one minute.
package domain
