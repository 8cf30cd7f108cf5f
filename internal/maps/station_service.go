// README: Station lookup via the Google Places API. Backs the station
// search box in rider apps; fare calculation never depends on it.
package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"citypass/internal/types"
)

const maxStationResults = 5

// Station is a simplified transit station result.
type Station struct {
	Name     string
	Address  string
	PlaceID  string
	Location types.Point
}

// StationService handles interactions with the Google Places API.
type StationService struct {
	client *maps.Client
}

func NewStationService(apiKey string) (*StationService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &StationService{client: client}, nil
}

// SearchStations resolves a free-text query ("mo chit", "siam bts") to
// transit stations. The type filter keeps shops and landmarks out of the
// results.
func (s *StationService) SearchStations(ctx context.Context, query string) ([]Station, error) {
	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:  query,
		Type:   "transit_station",
		Region: "TH",
	})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	var results []Station
	for _, result := range resp.Results {
		results = append(results, Station{
			Name:    result.Name,
			Address: result.FormattedAddress,
			PlaceID: result.PlaceID,
			Location: types.Point{
				Lat: result.Geometry.Location.Lat,
				Lng: result.Geometry.Location.Lng,
			},
		})
		if len(results) >= maxStationResults {
			break
		}
	}
	return results, nil
}
