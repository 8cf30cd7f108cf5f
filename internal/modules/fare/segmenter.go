// README: Route segmenter: splits a provider trip into homogeneous
// vehicle-class segments.
package fare

import (
	"citypass/internal/maps"
	"citypass/internal/types"
)

// Segment is one transit leg of a trip, priced independently. Transient:
// produced per trip, consumed by the calculator, discarded.
type Segment struct {
	Class      Class
	Line       string
	Start      types.Point
	End        types.Point
	Stations   int     // rail: stops traversed; 0 when unknown
	DistanceKm float64 // road/ferry: 0 when unknown
}

// Segmentize maps provider steps onto fare segments. Non-transit steps
// (walking) contribute no fare and are dropped. An empty result is valid: it
// means the trip had no transit legs, not that routing failed.
func Segmentize(steps []maps.TransitStep) []Segment {
	segments := make([]Segment, 0, len(steps))
	for _, step := range steps {
		if step.TravelMode != "TRANSIT" {
			continue
		}
		segments = append(segments, Segment{
			Class:      ClassifyVehicle(step.VehicleType, step.LineName),
			Line:       step.LineName,
			Start:      step.Departure.Location,
			End:        step.Arrival.Location,
			Stations:   step.NumStops,
			DistanceKm: float64(step.DistanceMeters) / 1000.0,
		})
	}
	return segments
}
