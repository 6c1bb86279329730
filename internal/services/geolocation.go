package services

import (
	"context"
	"time"

	"medtransport/internal/domain/models"
	"medtransport/internal/utils"
)

// GeolocationService attaches best-effort location metadata to check-ins.
// A missing or failed capture never blocks the check-in transition.
type GeolocationService struct {
	Timeout   time.Duration
	Provider  func(ctx context.Context) (models.GeoPoint, error)
	RequestID string
}

func (s GeolocationService) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return 2 * time.Second
}

// Capture prefers the caller-supplied point, then asks the provider with a
// bounded wait. Any failure is logged and swallowed.
func (s GeolocationService) Capture(ctx context.Context, supplied *models.GeoPoint) *models.GeoPoint {
	if supplied != nil {
		return supplied
	}
	if s.Provider == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	type result struct {
		point models.GeoPoint
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := s.Provider(ctx)
		ch <- result{point: p, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			utils.LogError(s.RequestID, "geolocation", "capture", r.err)
			return nil
		}
		p := r.point
		return &p
	case <-ctx.Done():
		utils.LogError(s.RequestID, "geolocation", "capture", ctx.Err())
		return nil
	}
}
