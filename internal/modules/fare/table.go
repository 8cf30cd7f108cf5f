// README: Static fare table: step tables for rail classes, base+rate formulas
// for road and ferry classes.
package fare

import (
	"strings"

	"github.com/shopspring/decimal"

	"citypass/internal/types"
)

// Class is one of the platform's closed set of fare classes.
type Class string

const (
	ClassBTS       Class = "BTS"
	ClassMRTBlue   Class = "MRT_BLUE"
	ClassMRTPurple Class = "MRT_PURPLE"
	ClassARL       Class = "ARL"
	ClassACBus     Class = "AC_BUS"
	ClassBRT       Class = "BRT"
	ClassNonACBus  Class = "NON_AC_BUS"
	ClassFerry     Class = "FERRY"
)

// railTables maps a rail class to its fare by station count. The index is
// clamped to the last entry, so the table tail is also the class maximum.
var railTables = map[Class][]int64{
	ClassBTS:       {16, 16, 23, 26, 30, 33, 37, 40, 44, 44, 59, 59, 59, 59, 59, 59},
	ClassMRTBlue:   {16, 16, 19, 21, 23, 26, 28, 30, 33, 35, 37, 40, 42, 42, 42, 42},
	ClassMRTPurple: {14, 17, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20},
	ClassARL:       {15, 15, 20, 25, 30, 35, 40, 45, 45, 45, 45, 45, 45, 45, 45, 45},
}

type roadRule struct {
	base decimal.Decimal
	rate decimal.Decimal // per km; zero means flat fare
	max  decimal.Decimal
}

var roadRules = map[Class]roadRule{
	ClassACBus:    {base: decimal.NewFromInt(15), rate: decimal.RequireFromString("0.5"), max: decimal.NewFromInt(25)},
	ClassBRT:      {base: decimal.NewFromInt(15), rate: decimal.Zero, max: decimal.NewFromInt(15)},
	ClassNonACBus: {base: decimal.NewFromInt(8), rate: decimal.Zero, max: decimal.NewFromInt(8)},
	ClassFerry:    {base: decimal.NewFromInt(10), rate: decimal.RequireFromString("0.3"), max: decimal.NewFromInt(20)},
}

// DefaultFare is the platform-wide fallback charged when a whole trip cannot
// be priced. A tap-out must always settle for something.
var DefaultFare = types.Baht(15)

// Table prices individual trip segments. Pure lookup, no side effects.
type Table struct{}

func NewTable() *Table {
	return &Table{}
}

// IsRail reports whether the class is priced by station count.
func (t *Table) IsRail(class Class) bool {
	_, ok := railTables[class]
	return ok
}

// Maximum returns the class's maximum possible fare. It caps the road formula
// and serves as the tap-in reservation estimate.
func (t *Table) Maximum(class Class) types.Money {
	if table, ok := railTables[class]; ok {
		return types.Baht(table[len(table)-1])
	}
	if rule, ok := roadRules[class]; ok {
		return types.FromDecimal(rule.max)
	}
	return DefaultFare
}

// StepFare prices a rail segment by station count. A count of zero (the count
// could not be determined) yields the class maximum.
func (t *Table) StepFare(class Class, stations int) types.Money {
	table, ok := railTables[class]
	if !ok {
		return DefaultFare
	}
	if stations <= 0 {
		return types.Baht(table[len(table)-1])
	}
	idx := stations
	if idx > len(table)-1 {
		idx = len(table) - 1
	}
	return types.Baht(table[idx])
}

// RoadFare prices a road or ferry segment: base + rate*km, capped at the
// class maximum, rounded up to the next whole unit. Flat-rate classes return
// the base without needing a distance.
func (t *Table) RoadFare(class Class, distanceKm float64) types.Money {
	rule, ok := roadRules[class]
	if !ok {
		return DefaultFare
	}
	if rule.rate.IsZero() {
		return types.FromDecimal(rule.base)
	}
	fare := rule.base.Add(rule.rate.Mul(decimal.NewFromFloat(distanceKm)))
	if fare.GreaterThan(rule.max) {
		fare = rule.max
	}
	return types.FromDecimal(fare.Ceil())
}

// ParseClass resolves a tap event's vehicle type string to a fare class.
func ParseClass(s string) (Class, bool) {
	c := Class(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := railTables[c]; ok {
		return c, true
	}
	if _, ok := roadRules[c]; ok {
		return c, true
	}
	return "", false
}

// ClassifyVehicle maps a provider vehicle type and line name onto a fare
// class. Unknown vehicle types fall back to the standard bus class.
func ClassifyVehicle(vehicleType, lineName string) Class {
	switch {
	case strings.Contains(lineName, "ARL"):
		return ClassARL
	case strings.Contains(lineName, "BTS"),
		strings.Contains(lineName, "Sukhumvit Line"),
		strings.Contains(lineName, "Silom Line"):
		return ClassBTS
	case strings.Contains(lineName, "Purple Line"):
		return ClassMRTPurple
	case strings.Contains(lineName, "MRT"), strings.Contains(lineName, "Blue Line"):
		return ClassMRTBlue
	}
	switch strings.ToUpper(vehicleType) {
	case "SUBWAY", "METRO_RAIL":
		return ClassMRTBlue
	case "HEAVY_RAIL", "COMMUTER_TRAIN", "TRAIN", "RAIL":
		return ClassARL
	case "FERRY":
		return ClassFerry
	default:
		return ClassACBus
	}
}

// ClassForVehicle resolves a tap event's vehicle type: an exact class name
// wins, anything else goes through the provider-type mapping.
func ClassForVehicle(vehicleType string) Class {
	if c, ok := ParseClass(vehicleType); ok {
		return c
	}
	return ClassifyVehicle(vehicleType, "")
}
