// README: Route search: provider alternatives priced with the fare table so
// riders see what a trip would cost before tapping in.
package routes

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"citypass/internal/maps"
	"citypass/internal/modules/fare"
	"citypass/internal/types"
)

var ErrBadRequest = errors.New("bad request")

// Provider is the slice of the routing provider the service needs.
type Provider interface {
	Routes(ctx context.Context, origin, destination string) ([]maps.TransitRoute, error)
}

// StationFinder resolves free-text queries to transit stations.
type StationFinder interface {
	SearchStations(ctx context.Context, query string) ([]maps.Station, error)
}

// Quoter prices route segments without secondary lookups. *fare.Calculator
// implements it.
type Quoter interface {
	QuoteSegments(segments []fare.Segment) types.Money
}

type Service struct {
	provider Provider
	stations StationFinder
	quoter   Quoter
	log      *logrus.Logger
}

func NewService(provider Provider, stations StationFinder, quoter Quoter, log *logrus.Logger) *Service {
	return &Service{provider: provider, stations: stations, quoter: quoter, log: log}
}

// Search returns the provider's route alternatives between two places, each
// with a fare estimate. The alternative with the shortest duration is marked
// fastest. Estimates use only the data the route already carries; unlike
// tap-out pricing there are no secondary provider queries, so an estimate
// can differ from the settled fare.
func (s *Service) Search(ctx context.Context, origin, destination string) ([]RouteSummary, error) {
	if origin == "" || destination == "" {
		return nil, ErrBadRequest
	}
	found, err := s.provider.Routes(ctx, origin, destination)
	if err != nil {
		return nil, err
	}

	out := make([]RouteSummary, 0, len(found))
	fastest := -1
	for i, r := range found {
		segments := fare.Segmentize(r.Steps)
		out = append(out, RouteSummary{
			StartAddress:   r.StartAddress,
			EndAddress:     r.EndAddress,
			DistanceMeters: r.DistanceMeters,
			Duration:       r.Duration,
			EstimatedFare:  s.quoter.QuoteSegments(segments),
			Steps:          convertSteps(r.Steps),
			Polyline:       r.Polyline,
		})
		if fastest < 0 || r.Duration < found[fastest].Duration {
			fastest = i
		}
	}
	if fastest >= 0 {
		out[fastest].Fastest = true
	}
	s.log.WithFields(logrus.Fields{
		"origin":      origin,
		"destination": destination,
		"routes":      len(out),
	}).Debug("route search completed")
	return out, nil
}

// Stations resolves a free-text station query through the places provider.
func (s *Service) Stations(ctx context.Context, query string) ([]maps.Station, error) {
	if query == "" {
		return nil, ErrBadRequest
	}
	return s.stations.SearchStations(ctx, query)
}

func convertSteps(steps []maps.TransitStep) []StepDetail {
	out := make([]StepDetail, 0, len(steps))
	for _, st := range steps {
		d := StepDetail{
			TravelMode:     st.TravelMode,
			Instruction:    st.Instruction,
			DistanceMeters: st.DistanceMeters,
			Duration:       st.Duration,
		}
		if st.TravelMode == "TRANSIT" {
			d.Line = st.LineName
			if st.LineShortName != "" {
				d.Line = st.LineShortName
			}
			d.VehicleClass = string(fare.ClassifyVehicle(st.VehicleType, st.LineName))
			d.NumStops = st.NumStops
			d.From = st.Departure.Name
			d.To = st.Arrival.Name
		}
		out = append(out, d)
	}
	return out
}
