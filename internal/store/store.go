// Package store provides durable keyed storage of draft sessions with
// atomic read-modify-write semantics per game code.
package store

import (
	"context"
	"errors"

	"github.com/mkearny/draft-battle-backend/internal/engine"
)

var ErrNotFound = errors.New("game not found")
var ErrCodeTaken = errors.New("game code already in use")

// Store persists sessions keyed by game code. Apply must be atomic per code:
// two concurrent calls for the same code never interleave their
// read-modify-write cycles.
type Store interface {
	Create(ctx context.Context, s engine.Session) error
	Get(ctx context.Context, code string) (engine.Session, error)
	Apply(ctx context.Context, code string, fn func(engine.Session) (engine.Session, error)) (engine.Session, error)
}
