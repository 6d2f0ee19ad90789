package store

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/big"
	mrand "math/rand"
	"sync"
	"time"

	"github.com/mkearny/draft-battle-backend/internal/engine"
)

const codeLength = 6

// Service layers game-level operations on a Store: code generation, the
// season/week draw at creation, and join validation.
type Service struct {
	store Store

	mu  sync.Mutex
	rng *mrand.Rand
}

func NewService(st Store) *Service {
	return &Service{
		store: st,
		rng:   mrand.New(mrand.NewSource(time.Now().UnixNano())),
	}
}

// CreateGame opens a new waiting session with the creator seated first and a
// randomly drawn (season, week) to score against.
func (s *Service) CreateGame(ctx context.Context, playerName string) (engine.Session, string, error) {
	s.mu.Lock()
	season, week := engine.MatchWeek(s.rng)
	s.mu.Unlock()

	host := engine.NewParticipant(playerName)

	for {
		code, err := GenerateCode()
		if err != nil {
			return engine.Session{}, "", fmt.Errorf("generate game code: %w", err)
		}

		sess := engine.NewSession(code, season, week, time.Now().UTC())
		sess.Players = append(sess.Players, host)

		err = s.store.Create(ctx, sess)
		if errors.Is(err, ErrCodeTaken) {
			continue
		}
		if err != nil {
			return engine.Session{}, "", err
		}
		return sess, host.ID, nil
	}
}

// JoinGame seats a second participant in an existing waiting session.
func (s *Service) JoinGame(ctx context.Context, code, playerName string) (engine.Session, string, error) {
	p := engine.NewParticipant(playerName)

	sess, err := s.store.Apply(ctx, code, func(cur engine.Session) (engine.Session, error) {
		return engine.Join(cur, p)
	})
	if err != nil {
		return engine.Session{}, "", err
	}
	return sess, p.ID, nil
}

func (s *Service) Get(ctx context.Context, code string) (engine.Session, error) {
	return s.store.Get(ctx, code)
}

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, codeLength)
	for i := 0; i < codeLength; i++ {
		num, err := crand.Int(crand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}
