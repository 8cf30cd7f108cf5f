// README: Fare calculator: prices whole trips through the segmenter and the
// fare table, with routing-provider lookups for missing segment data.
package fare

import (
	"context"

	"github.com/sirupsen/logrus"

	"citypass/internal/maps"
	"citypass/internal/types"
)

// Directions is the slice of the routing provider the calculator needs.
type Directions interface {
	TransitSteps(ctx context.Context, origin, destination types.Point) ([]maps.TransitStep, error)
	StationCount(ctx context.Context, origin, destination types.Point) (int, error)
	DrivingDistanceKm(ctx context.Context, origin, destination types.Point) (float64, error)
}

type Calculator struct {
	table *Table
	dir   Directions
	log   *logrus.Logger
}

func NewCalculator(table *Table, dir Directions, log *logrus.Logger) *Calculator {
	return &Calculator{table: table, dir: dir, log: log}
}

// Maximum returns the worst-case fare for a vehicle class. Used as the tap-in
// reservation estimate; the destination is unknown at that point, so no
// routing query is made.
func (c *Calculator) Maximum(class Class) types.Money {
	return c.table.Maximum(class)
}

// TripTotal prices the whole trip between the tap-in and tap-out points. If
// the primary transit query fails entirely the platform default fare is
// returned instead of an error: the trip must settle rather than leave its
// transaction open forever. This is the single sanctioned fallback point.
func (c *Calculator) TripTotal(ctx context.Context, from, to types.Point) (types.Money, []Segment, error) {
	steps, err := c.dir.TransitSteps(ctx, from, to)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"from":  from.String(),
			"to":    to.String(),
			"error": err.Error(),
		}).Warn("trip routing failed, charging platform default fare")
		return DefaultFare, nil, nil
	}
	segments := Segmentize(steps)
	total := types.Baht(0)
	for _, seg := range segments {
		total = total.Add(c.price(ctx, seg))
	}
	return total, segments, nil
}

// QuoteSegments prices segments using only the data they already carry,
// without secondary provider lookups. Used for route-search estimates.
func (c *Calculator) QuoteSegments(segments []Segment) types.Money {
	total := types.Baht(0)
	for _, seg := range segments {
		if c.table.IsRail(seg.Class) {
			total = total.Add(c.table.StepFare(seg.Class, seg.Stations))
		} else {
			total = total.Add(c.table.RoadFare(seg.Class, seg.DistanceKm))
		}
	}
	return total
}

func (c *Calculator) price(ctx context.Context, seg Segment) types.Money {
	if c.table.IsRail(seg.Class) {
		return c.table.StepFare(seg.Class, c.stationCount(ctx, seg))
	}
	return c.table.RoadFare(seg.Class, c.distanceKm(ctx, seg))
}

// stationCount prefers the count the primary step carried; otherwise it asks
// the provider for a transit route between the segment endpoints. Lookup
// failure resolves to zero, which the step table treats as the class maximum.
func (c *Calculator) stationCount(ctx context.Context, seg Segment) int {
	if seg.Stations > 0 {
		return seg.Stations
	}
	n, err := c.dir.StationCount(ctx, seg.Start, seg.End)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"class": seg.Class,
			"error": err.Error(),
		}).Warn("station count lookup failed, defaulting to zero")
		return 0
	}
	return n
}

func (c *Calculator) distanceKm(ctx context.Context, seg Segment) float64 {
	if seg.DistanceKm > 0 {
		return seg.DistanceKm
	}
	rule, ok := roadRules[seg.Class]
	if ok && rule.rate.IsZero() {
		// Flat-fare class: distance is irrelevant, skip the lookup.
		return 0
	}
	km, err := c.dir.DrivingDistanceKm(ctx, seg.Start, seg.End)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"class": seg.Class,
			"error": err.Error(),
		}).Warn("driving distance lookup failed, defaulting to zero")
		return 0
	}
	return km
}
