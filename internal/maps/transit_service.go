package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"googlemaps.github.io/maps"

	"citypass/internal/types"
)

// ErrNoRoute is returned when the provider cannot produce a route between two
// points. Callers must not confuse it with a route that has no transit legs.
var ErrNoRoute = errors.New("no route found")

// Stop is a transit boarding or alighting point.
type Stop struct {
	Name     string
	Location types.Point
}

// TransitStep is one travel step of a provider route. Non-transit steps carry
// only TravelMode and DistanceMeters.
type TransitStep struct {
	TravelMode     string
	Instruction    string
	VehicleType    string
	LineName       string
	LineShortName  string
	NumStops       int
	DistanceMeters int
	Duration       time.Duration
	Departure      Stop
	Arrival        Stop
}

// TransitRoute is a summarised provider route.
type TransitRoute struct {
	StartAddress   string
	EndAddress     string
	DistanceMeters int
	Duration       time.Duration
	Steps          []TransitStep
	Polyline       string
}

// TransitService handles interactions with the Google Maps Directions API.
type TransitService struct {
	client   *maps.Client
	executor failsafe.Executor[[]maps.Route]
}

// NewTransitService creates a TransitService with the given API key. Provider
// calls are retried with backoff; directions queries are read-only so a retry
// can never double-charge anything.
func NewTransitService(apiKey string) (*TransitService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	retry := retrypolicy.NewBuilder[[]maps.Route]().
		WithBackoff(200*time.Millisecond, 2*time.Second).
		WithMaxRetries(2).
		Build()
	return &TransitService{client: client, executor: failsafe.With(retry)}, nil
}

func (s *TransitService) directions(ctx context.Context, req *maps.DirectionsRequest) ([]maps.Route, error) {
	routes, err := s.executor.WithContext(ctx).Get(func() ([]maps.Route, error) {
		r, _, err := s.client.Directions(ctx, req)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoRoute, err)
	}
	if len(routes) == 0 {
		return nil, ErrNoRoute
	}
	return routes, nil
}

// Routes returns all transit routes between the origin and destination, which
// may be addresses or "lat,lng" strings.
func (s *TransitService) Routes(ctx context.Context, origin, destination string) ([]TransitRoute, error) {
	routes, err := s.directions(ctx, &maps.DirectionsRequest{
		Origin:        origin,
		Destination:   destination,
		Mode:          maps.TravelModeTransit,
		DepartureTime: "now",
		Alternatives:  true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]TransitRoute, 0, len(routes))
	for _, r := range routes {
		if len(r.Legs) == 0 {
			continue
		}
		out = append(out, summarizeRoute(r))
	}
	if len(out) == 0 {
		return nil, ErrNoRoute
	}
	return out, nil
}

// TransitSteps returns the steps of the fastest transit route between two
// points. An empty step list means the provider routed the whole trip on foot.
func (s *TransitService) TransitSteps(ctx context.Context, origin, destination types.Point) ([]TransitStep, error) {
	routes, err := s.Routes(ctx, origin.String(), destination.String())
	if err != nil {
		return nil, err
	}
	fastest := routes[0]
	for _, r := range routes[1:] {
		if r.Duration < fastest.Duration {
			fastest = r
		}
	}
	return fastest.Steps, nil
}

// StationCount sums num_stops over the transit steps of a route between two
// points. Used for rail segments whose primary step carried no stop count.
func (s *TransitService) StationCount(ctx context.Context, origin, destination types.Point) (int, error) {
	routes, err := s.directions(ctx, &maps.DirectionsRequest{
		Origin:        origin.String(),
		Destination:   destination.String(),
		Mode:          maps.TravelModeTransit,
		DepartureTime: "now",
	})
	if err != nil {
		return 0, err
	}
	total := 0
	for _, leg := range routes[0].Legs {
		for _, step := range leg.Steps {
			if step.TravelMode == "TRANSIT" && step.TransitDetails != nil {
				total += int(step.TransitDetails.NumStops)
			}
		}
	}
	return total, nil
}

// DrivingDistanceKm returns the road distance between two points in km.
func (s *TransitService) DrivingDistanceKm(ctx context.Context, origin, destination types.Point) (float64, error) {
	routes, err := s.directions(ctx, &maps.DirectionsRequest{
		Origin:      origin.String(),
		Destination: destination.String(),
		Mode:        maps.TravelModeDriving,
	})
	if err != nil {
		return 0, err
	}
	if len(routes[0].Legs) == 0 {
		return 0, ErrNoRoute
	}
	meters := 0
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
	}
	return float64(meters) / 1000.0, nil
}

func summarizeRoute(r maps.Route) TransitRoute {
	out := TransitRoute{
		StartAddress: r.Legs[0].StartAddress,
		EndAddress:   r.Legs[len(r.Legs)-1].EndAddress,
		Polyline:     r.OverviewPolyline.Points,
	}
	for _, leg := range r.Legs {
		out.DistanceMeters += leg.Distance.Meters
		out.Duration += leg.Duration
		for _, step := range leg.Steps {
			out.Steps = append(out.Steps, convertStep(step))
		}
	}
	return out
}

func convertStep(step *maps.Step) TransitStep {
	s := TransitStep{
		TravelMode:     step.TravelMode,
		Instruction:    stripBold(step.HTMLInstructions),
		DistanceMeters: step.Distance.Meters,
		Duration:       step.Duration,
	}
	if step.TransitDetails != nil {
		td := step.TransitDetails
		s.VehicleType = string(td.Line.Vehicle.Type)
		s.LineName = td.Line.Name
		s.LineShortName = td.Line.ShortName
		s.NumStops = int(td.NumStops)
		s.Departure = Stop{
			Name:     td.DepartureStop.Name,
			Location: types.Point{Lat: td.DepartureStop.Location.Lat, Lng: td.DepartureStop.Location.Lng},
		}
		s.Arrival = Stop{
			Name:     td.ArrivalStop.Name,
			Location: types.Point{Lat: td.ArrivalStop.Location.Lat, Lng: td.ArrivalStop.Location.Lng},
		}
	}
	return s
}

func stripBold(html string) string {
	return strings.ReplaceAll(strings.ReplaceAll(html, "<b>", ""), "</b>", "")
}
