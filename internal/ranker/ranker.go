// Package ranker selects and orders evacuation shelters around a point.
//
// Distances and walking times are observer-relative and computed fresh on
// every request; ranked results are never cached or persisted.
package ranker

import (
	"context"
	"fmt"
	"sort"

	"github.com/pes-safety/evac-notifier/internal/domain"
)

// ShelterSource yields the full shelter registry to rank against.
type ShelterSource interface {
	Shelters(ctx context.Context) ([]domain.Shelter, error)
}

// Query describes one ranking request.
type Query struct {
	Origin   domain.Geo
	RadiusKM float64
	Limit    int
	Category domain.DisasterCategory
}

// Ranker ranks shelters by walking distance with disaster-type matching.
type Ranker struct {
	source          ShelterSource
	radiusCeilingKM float64
	defaultRadiusKM float64
	defaultLimit    int
	walkingSpeedKMH float64
}

// New builds a Ranker. Zero or negative ceiling, radius, limit, and speed
// fall back to the service defaults (10 km, 2 km, 3 shelters, 4.8 km/h).
func New(source ShelterSource, radiusCeilingKM, defaultRadiusKM float64, defaultLimit int, walkingSpeedKMH float64) *Ranker {
	if radiusCeilingKM <= 0 {
		radiusCeilingKM = 10.0
	}
	if defaultRadiusKM <= 0 {
		defaultRadiusKM = 2.0
	}
	if defaultLimit <= 0 {
		defaultLimit = 3
	}
	if walkingSpeedKMH <= 0 {
		walkingSpeedKMH = 4.8
	}
	return &Ranker{
		source:          source,
		radiusCeilingKM: radiusCeilingKM,
		defaultRadiusKM: defaultRadiusKM,
		defaultLimit:    defaultLimit,
		walkingSpeedKMH: walkingSpeedKMH,
	}
}

// Rank returns up to Limit shelters within the radius, nearest first.
//
// When the disaster category maps to a shelter type, candidates of that
// type are preferred; if none of the matching type fall inside the radius
// the search falls back to all shelter types rather than returning an
// empty set while untyped shelters are still reachable.
func (r *Ranker) Rank(ctx context.Context, q Query) ([]domain.RankedShelter, error) {
	radius := q.RadiusKM
	if radius <= 0 {
		radius = r.defaultRadiusKM
	}
	if radius > r.radiusCeilingKM {
		radius = r.radiusCeilingKM
	}
	limit := q.Limit
	if limit <= 0 {
		limit = r.defaultLimit
	}

	shelters, err := r.source.Shelters(ctx)
	if err != nil {
		return nil, fmt.Errorf("load shelter registry: %w", err)
	}

	inRadius := make([]domain.RankedShelter, 0, len(shelters))
	for _, s := range shelters {
		dist := domain.HaversineKM(q.Origin, s.Geo)
		if dist > radius {
			continue
		}
		inRadius = append(inRadius, domain.RankedShelter{
			Shelter:        s,
			DistanceKM:     dist,
			WalkingMinutes: domain.WalkingMinutes(dist, r.walkingSpeedKMH),
		})
	}

	candidates := inRadius
	if want, ok := domain.ShelterCategoryFor(q.Category); ok {
		matched := make([]domain.RankedShelter, 0, len(inRadius))
		for _, rs := range inRadius {
			if rs.Category == want {
				matched = append(matched, rs)
			}
		}
		if len(matched) > 0 {
			candidates = matched
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DistanceKM < candidates[j].DistanceKM
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
