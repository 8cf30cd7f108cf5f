// README: Route search handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"citypass/internal/modules/routes"
)

type RouteHandler struct {
	routes *routes.Service
}

func NewRouteHandler(svc *routes.Service) *RouteHandler {
	return &RouteHandler{routes: svc}
}

type routeStepResp struct {
	TravelMode     string `json:"travel_mode"`
	Instruction    string `json:"instruction,omitempty"`
	Line           string `json:"line,omitempty"`
	VehicleClass   string `json:"vehicle_class,omitempty"`
	NumStops       int    `json:"num_stops,omitempty"`
	DistanceMeters int    `json:"distance_meters"`
	DurationSec    int    `json:"duration_sec"`
	From           string `json:"from,omitempty"`
	To             string `json:"to,omitempty"`
}

type routeResp struct {
	StartAddress   string          `json:"start_address"`
	EndAddress     string          `json:"end_address"`
	DistanceMeters int             `json:"distance_meters"`
	DurationSec    int             `json:"duration_sec"`
	Fastest        bool            `json:"fastest"`
	EstimatedFare  string          `json:"estimated_fare"`
	Steps          []routeStepResp `json:"steps"`
	Polyline       string          `json:"polyline,omitempty"`
}

type stationResp struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	PlaceID string  `json:"place_id"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

func (h *RouteHandler) Stations(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		writeError(c, http.StatusBadRequest, "query is required")
		return
	}
	found, err := h.routes.Stations(c.Request.Context(), query)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]stationResp, 0, len(found))
	for _, st := range found {
		out = append(out, stationResp{
			Name:    st.Name,
			Address: st.Address,
			PlaceID: st.PlaceID,
			Lat:     st.Location.Lat,
			Lng:     st.Location.Lng,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"stations": out})
}

func (h *RouteHandler) Search(c *gin.Context) {
	origin := c.Query("origin")
	destination := c.Query("destination")
	if origin == "" || destination == "" {
		writeError(c, http.StatusBadRequest, "origin and destination are required")
		return
	}
	found, err := h.routes.Search(c.Request.Context(), origin, destination)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]routeResp, 0, len(found))
	for _, r := range found {
		resp := routeResp{
			StartAddress:   r.StartAddress,
			EndAddress:     r.EndAddress,
			DistanceMeters: r.DistanceMeters,
			DurationSec:    int(r.Duration.Seconds()),
			Fastest:        r.Fastest,
			EstimatedFare:  r.EstimatedFare.String(),
			Polyline:       r.Polyline,
		}
		for _, st := range r.Steps {
			resp.Steps = append(resp.Steps, routeStepResp{
				TravelMode:     st.TravelMode,
				Instruction:    st.Instruction,
				Line:           st.Line,
				VehicleClass:   st.VehicleClass,
				NumStops:       st.NumStops,
				DistanceMeters: st.DistanceMeters,
				DurationSec:    int(st.Duration.Seconds()),
				From:           st.From,
				To:             st.To,
			})
		}
		out = append(out, resp)
	}
	writeJSON(c, http.StatusOK, gin.H{"routes": out})
}
