// README: Fare table tests (step lookup, road formulas, class resolution).
package fare

import (
	"testing"

	"citypass/internal/types"
)

func TestStepFare(t *testing.T) {
	table := NewTable()
	cases := []struct {
		name     string
		class    Class
		stations int
		want     int64
	}{
		{"bts one station", ClassBTS, 1, 16},
		{"bts mid range", ClassBTS, 4, 30},
		{"bts clamps past table end", ClassBTS, 50, 59},
		{"bts unknown count charges maximum", ClassBTS, 0, 59},
		{"mrt blue top of table", ClassMRTBlue, 12, 42},
		{"mrt purple flattens early", ClassMRTPurple, 9, 20},
		{"arl eight stops", ClassARL, 7, 45},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := table.StepFare(tc.class, tc.stations)
			if !got.Equal(types.Baht(tc.want)) {
				t.Errorf("StepFare(%s, %d) = %s, want %d", tc.class, tc.stations, got, tc.want)
			}
		})
	}
}

func TestStepFareMonotonic(t *testing.T) {
	table := NewTable()
	for _, class := range []Class{ClassBTS, ClassMRTBlue, ClassMRTPurple, ClassARL} {
		prev := table.StepFare(class, 1)
		for n := 2; n <= 20; n++ {
			cur := table.StepFare(class, n)
			if cur.LessThan(prev) {
				t.Errorf("%s: fare for %d stations (%s) below fare for %d (%s)", class, n, cur, n-1, prev)
			}
			prev = cur
		}
	}
}

func TestRoadFare(t *testing.T) {
	table := NewTable()
	cases := []struct {
		name  string
		class Class
		km    float64
		want  int64
	}{
		{"ac bus base plus rate rounds up", ClassACBus, 12, 21}, // 15 + 0.5*12 = 21
		{"ac bus fractional rounds up", ClassACBus, 12.2, 22},   // 21.1 -> 22
		{"ac bus capped", ClassACBus, 100, 25},
		{"brt is flat", ClassBRT, 30, 15},
		{"non-ac bus is flat", ClassNonACBus, 0, 8},
		{"ferry short hop", ClassFerry, 5, 12}, // 10 + 1.5 -> 12
		{"ferry capped", ClassFerry, 80, 20},
		{"zero distance charges base", ClassACBus, 0, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := table.RoadFare(tc.class, tc.km)
			if !got.Equal(types.Baht(tc.want)) {
				t.Errorf("RoadFare(%s, %v) = %s, want %d", tc.class, tc.km, got, tc.want)
			}
		})
	}
}

func TestMaximum(t *testing.T) {
	table := NewTable()
	cases := []struct {
		class Class
		want  int64
	}{
		{ClassBTS, 59},
		{ClassMRTBlue, 42},
		{ClassMRTPurple, 20},
		{ClassARL, 45},
		{ClassACBus, 25},
		{ClassBRT, 15},
		{ClassNonACBus, 8},
		{ClassFerry, 20},
	}
	for _, tc := range cases {
		got := table.Maximum(tc.class)
		if !got.Equal(types.Baht(tc.want)) {
			t.Errorf("Maximum(%s) = %s, want %d", tc.class, got, tc.want)
		}
	}
}

func TestClassForVehicle(t *testing.T) {
	cases := []struct {
		input string
		want  Class
	}{
		{"BTS", ClassBTS},
		{"mrt_blue", ClassMRTBlue},
		{"FERRY", ClassFerry},
		{"SUBWAY", ClassMRTBlue},
		{"HEAVY_RAIL", ClassARL},
		{"BUS", ClassACBus},
		{"something-unknown", ClassACBus},
		{"", ClassACBus},
	}
	for _, tc := range cases {
		if got := ClassForVehicle(tc.input); got != tc.want {
			t.Errorf("ClassForVehicle(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestClassifyVehicleByLine(t *testing.T) {
	cases := []struct {
		vehicleType, line string
		want              Class
	}{
		{"SUBWAY", "BTS Sukhumvit Line", ClassBTS},
		{"SUBWAY", "Silom Line", ClassBTS},
		{"SUBWAY", "MRT Blue Line", ClassMRTBlue},
		{"SUBWAY", "Purple Line", ClassMRTPurple},
		{"HEAVY_RAIL", "ARL City Line", ClassARL},
		{"BUS", "510", ClassACBus},
	}
	for _, tc := range cases {
		if got := ClassifyVehicle(tc.vehicleType, tc.line); got != tc.want {
			t.Errorf("ClassifyVehicle(%q, %q) = %s, want %s", tc.vehicleType, tc.line, got, tc.want)
		}
	}
}
