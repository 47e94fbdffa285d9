package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// issuedAtLayouts are the CRT_DT formats observed across upstream API
// revisions, tried in order.
var issuedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04:05",
}

// AlertID derives a stable identifier for an upstream message. The
// upstream serial number wins when present; otherwise the ID is a short
// SHA-256 of the raw issuance timestamp. The fallback can collide for
// alerts issued in the same instant from different areas; kept weak on
// purpose, since upstream fixtures depend on it.
func AlertID(externalID, issuedRaw string) string {
	externalID = strings.TrimSpace(externalID)
	if externalID != "" {
		return externalID
	}
	hash := sha256.Sum256([]byte(strings.TrimSpace(issuedRaw)))
	return "ts-" + hex.EncodeToString(hash[:8])
}

// ParseIssuedAt parses an upstream issuance timestamp, falling back to the
// current clock when no known layout matches.
func ParseIssuedAt(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range issuedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return clock.Now()
}
