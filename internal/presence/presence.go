// Package presence classifies reported positions against the household
// geofence and keeps the latest position per user.
package presence

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/svanleeuwen/hearth/internal/geo"
	"github.com/svanleeuwen/hearth/internal/store"
)

var (
	// ErrHomeNotConfigured means no geofence center has been set, so a
	// position cannot be classified.
	ErrHomeNotConfigured = errors.New("presence: home location not configured")

	// ErrInvalidCoordinates means the reported position is not a usable
	// WGS84 coordinate pair.
	ErrInvalidCoordinates = errors.New("presence: invalid coordinates")
)

// Update is the outcome of one position report.
type Update struct {
	Status         geo.Status
	DistanceMeters float64
	HomeName       string
}

type Service struct {
	home      store.HomeLocationRepository
	locations store.UserLocationRepository
	now       func() time.Time
}

func NewService(home store.HomeLocationRepository, locations store.UserLocationRepository) *Service {
	return &Service{home: home, locations: locations, now: time.Now}
}

// Report classifies a position against the home geofence and stores it as
// the user's latest known location.
func (s *Service) Report(ctx context.Context, userID string, lat, lon float64, accuracy *float64) (*Update, error) {
	if !geo.Valid(lat, lon) {
		return nil, fmt.Errorf("%w: (%f, %f)", ErrInvalidCoordinates, lat, lon)
	}

	home, err := s.home.Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrHomeNotConfigured
	}
	if err != nil {
		return nil, err
	}

	status, distance := geo.Evaluate(lat, lon, home.Latitude, home.Longitude, home.RadiusMeters)

	err = s.locations.Upsert(ctx, store.UserLocation{
		UserID:      userID,
		Latitude:    lat,
		Longitude:   lon,
		Accuracy:    accuracy,
		Status:      string(status),
		LastUpdated: s.now(),
	})
	if err != nil {
		return nil, err
	}

	return &Update{
		Status:         status,
		DistanceMeters: math.Round(distance),
		HomeName:       home.DisplayName,
	}, nil
}

// Everyone returns the latest stored location per household member.
func (s *Service) Everyone(ctx context.Context) ([]store.UserLocation, error) {
	return s.locations.ListAll(ctx)
}
