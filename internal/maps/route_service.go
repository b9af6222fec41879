package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"
)

// RouteService handles interactions with Google Maps API.
type RouteService struct {
	client *maps.Client
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// TravelEstimate is the driving duration and human-readable distance for a
// trip's origin to destination, shown on trip detail pages. Best-effort only:
// the booking core never depends on it.
type TravelEstimate struct {
	Duration time.Duration `json:"duration_ns"`
	Distance string        `json:"distance"`
}

// GetTravelEstimate returns the driving estimate from origin to destination,
// biased to India where the platform operates.
func (s *RouteService) GetTravelEstimate(ctx context.Context, origin, destination string) (TravelEstimate, error) {
	r := &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Mode:        maps.TravelModeDriving,
		Region:      "IN",
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return TravelEstimate{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return TravelEstimate{}, fmt.Errorf("no route found")
	}

	leg := routes[0].Legs[0]
	return TravelEstimate{Duration: leg.Duration, Distance: leg.Distance.HumanReadable}, nil
}
