package location

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"dispatch/internal/entities"

	"github.com/redis/go-redis/v9"
)

const (
	geoKey  = "dispatch:couriers:geo"
	seenKey = "dispatch:couriers:seen"
)

type Store struct {
	client Client
	// maxAge отсекает курьеров, давно не присылавших координаты; 0 отключает.
	maxAge time.Duration
	now    Clock
}

func New(client Client, maxAge time.Duration) *Store {
	return &Store{
		client: client,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Upsert перезаписывает позицию курьера, последняя запись побеждает.
func (s *Store) Upsert(ctx context.Context, loc entities.CourierLocation) error {
	updatedAt := loc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
			Name:      loc.CourierID,
			Longitude: loc.Point.Longitude,
			Latitude:  loc.Point.Latitude,
		})
		pipe.HSet(ctx, seenKey, loc.CourierID, updatedAt.Unix())
		return nil
	})
	if err != nil {
		return fmt.Errorf("unexpected location store upsert error: %w", err)
	}
	return nil
}

// Nearby до limit курьеров в радиусе radiusKm от center, по возрастанию расстояния.
// Устаревшие позиции не считаются: окно поиска растёт, пока не наберётся limit
// свежих или радиус не исчерпан, так что меньше limit значит «больше никого».
func (s *Store) Nearby(ctx context.Context, center entities.Point, radiusKm float64, limit int) ([]entities.NearbyCourier, error) {
	count := limit
	for {
		nearby, err := s.search(ctx, center, radiusKm, count)
		if err != nil {
			return nil, err
		}
		exhausted := count <= 0 || len(nearby) < count

		if s.maxAge > 0 && len(nearby) > 0 {
			if nearby, err = s.dropStale(ctx, nearby); err != nil {
				return nil, err
			}
		}
		if exhausted || len(nearby) >= limit {
			if limit > 0 && len(nearby) > limit {
				nearby = nearby[:limit]
			}
			return nearby, nil
		}
		count *= 2
	}
}

func (s *Store) search(ctx context.Context, center entities.Point, radiusKm float64, count int) ([]entities.NearbyCourier, error) {
	locations, err := s.client.GeoSearchLocation(ctx, geoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  center.Longitude,
			Latitude:   center.Latitude,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      count,
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return []entities.NearbyCourier{}, nil
		}
		return nil, fmt.Errorf("unexpected location store nearby error: %w", err)
	}

	nearby := make([]entities.NearbyCourier, 0, len(locations))
	for _, loc := range locations {
		nearby = append(nearby, entities.NearbyCourier{
			CourierID:  loc.Name,
			Point:      entities.Point{Latitude: loc.Latitude, Longitude: loc.Longitude},
			DistanceKm: loc.Dist,
		})
	}
	return nearby, nil
}

func (s *Store) dropStale(ctx context.Context, nearby []entities.NearbyCourier) ([]entities.NearbyCourier, error) {
	ids := make([]string, len(nearby))
	for i, c := range nearby {
		ids[i] = c.CourierID
	}

	seen, err := s.client.HMGet(ctx, seenKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("unexpected location store freshness error: %w", err)
	}

	threshold := s.now().Add(-s.maxAge).Unix()
	fresh := nearby[:0]
	for i, c := range nearby {
		raw, ok := seen[i].(string)
		if !ok {
			continue
		}
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ts < threshold {
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh, nil
}
