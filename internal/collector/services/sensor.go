package services

import "context"

// Sensor reads one family of host counters.
type Sensor[T any] interface {
	Name() string
	Collect(ctx context.Context) (T, error)
}
