package leads

import (
	"context"
	"time"
)

type StoreAPI interface {
	Create(ctx context.Context, r Record) error
	Get(ctx context.Context, id string) (Record, error)
	MarkBooked(ctx context.Context, id, ref string, at time.Time) error
	List(ctx context.Context) ([]Record, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
