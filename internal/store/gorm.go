package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mkearny/draft-battle-backend/internal/engine"
)

// casRetries bounds the optimistic-concurrency loop in Apply. The lobby is a
// single writer per code, so conflicts only show up under operator tooling.
const casRetries = 5

type sessionRow struct {
	Code      string `gorm:"primaryKey;size:12"`
	Doc       []byte `gorm:"type:jsonb"`
	Version   int64
	UpdatedAt time.Time
}

func (sessionRow) TableName() string { return "draft_sessions" }

// GormStore persists each session as one versioned document row. Apply uses
// a compare-and-swap on the version column so a stale read-modify-write is
// retried instead of silently dropped.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&sessionRow{}); err != nil {
		return nil, fmt.Errorf("migrate draft_sessions: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (g *GormStore) Create(ctx context.Context, s engine.Session) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.GameCode, err)
	}

	row := sessionRow{Code: s.GameCode, Doc: doc, Version: 1}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCodeTaken
		}
		return fmt.Errorf("insert session %s: %w", s.GameCode, err)
	}
	return nil
}

func (g *GormStore) Get(ctx context.Context, code string) (engine.Session, error) {
	sess, _, err := g.load(ctx, code)
	return sess, err
}

func (g *GormStore) Apply(ctx context.Context, code string, fn func(engine.Session) (engine.Session, error)) (engine.Session, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		sess, version, err := g.load(ctx, code)
		if err != nil {
			return engine.Session{}, err
		}

		next, err := fn(sess)
		if err != nil {
			return engine.Session{}, err
		}

		doc, err := json.Marshal(next)
		if err != nil {
			return engine.Session{}, fmt.Errorf("marshal session %s: %w", code, err)
		}

		res := g.db.WithContext(ctx).
			Model(&sessionRow{}).
			Where("code = ? AND version = ?", code, version).
			Updates(map[string]any{"doc": doc, "version": version + 1})
		if res.Error != nil {
			return engine.Session{}, fmt.Errorf("update session %s: %w", code, res.Error)
		}
		if res.RowsAffected == 1 {
			return next, nil
		}
		// Version moved underneath us; reload and retry.
	}
	return engine.Session{}, fmt.Errorf("session %s: too many concurrent updates", code)
}

func (g *GormStore) load(ctx context.Context, code string) (engine.Session, int64, error) {
	var row sessionRow
	err := g.db.WithContext(ctx).First(&row, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.Session{}, 0, ErrNotFound
	}
	if err != nil {
		return engine.Session{}, 0, fmt.Errorf("load session %s: %w", code, err)
	}

	var sess engine.Session
	if err := json.Unmarshal(row.Doc, &sess); err != nil {
		return engine.Session{}, 0, fmt.Errorf("unmarshal session %s: %w", code, err)
	}
	return sess, row.Version, nil
}
