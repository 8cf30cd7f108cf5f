// README: Route search result shapes.
package routes

import (
	"time"

	"citypass/internal/types"
)

// StepDetail is one leg of a suggested route as shown to the rider.
type StepDetail struct {
	TravelMode     string
	Instruction    string
	Line           string
	VehicleClass   string
	NumStops       int
	DistanceMeters int
	Duration       time.Duration
	From           string
	To             string
}

// RouteSummary is one suggested route, priced with the fare table.
type RouteSummary struct {
	StartAddress   string
	EndAddress     string
	DistanceMeters int
	Duration       time.Duration
	Fastest        bool
	EstimatedFare  types.Money
	Steps          []StepDetail
	Polyline       string
}
