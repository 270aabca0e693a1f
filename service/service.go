package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"harmonychain/models"

	"github.com/google/uuid"
)

//go:generate mockgen -destination=./mocks/mock_repository.go -package=mocks harmonychain/service Repository

type Repository interface {
	CreateSession(ctx context.Context, s models.Session) error
	GetSession(ctx context.Context, id string) (models.Session, error)
	UpdateSession(ctx context.Context, id string, fn func(*models.Session) error) (models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	ExpireSessions(ctx context.Context, before time.Time) (int, error)
	CountSessions(ctx context.Context) (int, error)
}

type Options struct {
	StartingBalance models.Amount
	MiningPower     int
	StreamReward    models.Amount
	Market          Market
	// RegenerateOnRender redraws the price series on every read instead of
	// keeping one history per session.
	RegenerateOnRender bool
	SessionTTL         time.Duration

	Rand   Randomizer
	Clock  func() time.Time
	NewID  func() string
	Logger *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		StartingBalance: 1000 * models.HMT,
		MiningPower:     10,
		StreamReward:    5 * models.HMT,
		Market:          DefaultMarket(nil),
		SessionTTL:      24 * time.Hour,
	}
}

type Service struct {
	repo Repository
	opts Options
}

func NewService(repo Repository, opts Options) Service {
	if opts.Rand == nil {
		opts.Rand = DefaultRandomizer
	}
	if opts.Market.Rand == nil {
		opts.Market.Rand = opts.Rand
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return Service{repo: repo, opts: opts}
}

type Result struct {
	Session models.Session
	Outcome Outcome
}

func (s Service) StartSession(ctx context.Context) (models.Session, error) {
	if s.opts.MiningPower <= 0 {
		return models.Session{}, fmt.Errorf("mining power must be positive, got %d", s.opts.MiningPower)
	}
	now := s.opts.Clock()
	sess := models.Session{
		ID:       s.opts.NewID(),
		Username: models.DefaultUsername,
		State: models.SessionState{
			Balance:     s.opts.StartingBalance,
			MiningPower: s.opts.MiningPower,
		},
		Page:      models.PageDashboard,
		Prices:    s.opts.Market.Series(now),
		CreatedAt: now,
		LastSeen:  now,
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return models.Session{}, fmt.Errorf("create session: %w", err)
	}
	s.opts.Logger.DebugContext(ctx, "session started", "session_id", sess.ID)
	return sess, nil
}

// ResumeSession marks the session as seen and rolls its price history
// forward when the calendar day has changed.
func (s Service) ResumeSession(ctx context.Context, id string) (models.Session, error) {
	now := s.opts.Clock()
	sess, err := s.repo.UpdateSession(ctx, id, func(sess *models.Session) error {
		sess.LastSeen = now
		if !seriesCurrent(sess.Prices, s.opts.Market.Days, now) {
			sess.Prices = s.opts.Market.Series(now)
		}
		return nil
	})
	if err != nil {
		return models.Session{}, fmt.Errorf("resume session: %w", err)
	}
	return sess, nil
}

func (s Service) Balance(ctx context.Context, id string) (models.Amount, error) {
	sess, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return 0, err
	}
	return sess.State.Balance, nil
}

func (s Service) MiningPower(ctx context.Context, id string) (int, error) {
	sess, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return 0, err
	}
	return sess.State.MiningPower, nil
}

// Dispatch applies ev to the session atomically.
func (s Service) Dispatch(ctx context.Context, id string, ev Event) (Result, error) {
	if ev.Kind == EventMine && ev.Draw == 0 {
		ev.Draw = MinDraw + s.opts.Rand.IntN(MaxDraw-MinDraw+1)
	}
	rules := Rules{StreamReward: s.opts.StreamReward}
	now := s.opts.Clock()

	var out Outcome
	sess, err := s.repo.UpdateSession(ctx, id, func(sess *models.Session) error {
		next, o, err := Apply(*sess, ev, rules)
		if err != nil {
			return err
		}
		next.LastSeen = now
		*sess = next
		out = o
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", ev.Kind, err)
	}
	s.opts.Logger.DebugContext(ctx, "event applied",
		"session_id", id,
		"event", ev.Kind.String(),
		"credited", out.Credited.Float64(),
		"balance", sess.State.Balance.Float64(),
	)
	return Result{Session: sess, Outcome: out}, nil
}

func (s Service) StreamMusic(ctx context.Context, id, genre string) (Result, error) {
	return s.Dispatch(ctx, id, Event{Kind: EventStream, Genre: genre})
}

func (s Service) Mine(ctx context.Context, id string) (Result, error) {
	return s.Dispatch(ctx, id, Event{Kind: EventMine})
}

func (s Service) SubmitProposal(ctx context.Context, id, text string) (Result, error) {
	return s.Dispatch(ctx, id, Event{Kind: EventProposal, Text: text})
}

func (s Service) Navigate(ctx context.Context, id string, page models.Page) (Result, error) {
	return s.Dispatch(ctx, id, Event{Kind: EventNavigate, Page: page})
}

func (s Service) Rename(ctx context.Context, id, username string) (Result, error) {
	return s.Dispatch(ctx, id, Event{Kind: EventRename, Username: username})
}

// PriceSeries returns the session's chart data.
func (s Service) PriceSeries(sess models.Session) []models.PricePoint {
	if s.opts.RegenerateOnRender || len(sess.Prices) == 0 {
		return s.opts.Market.Series(s.opts.Clock())
	}
	return sess.Prices
}

func (s Service) ActiveSessions(ctx context.Context) (int, error) {
	return s.repo.CountSessions(ctx)
}

func (s Service) EndSession(ctx context.Context, id string) error {
	if err := s.repo.DeleteSession(ctx, id); err != nil && !errors.Is(err, models.ErrSessionNotFound) {
		return err
	}
	return nil
}

// ExpireIdle removes sessions idle for longer than the session TTL.
func (s Service) ExpireIdle(ctx context.Context) (int, error) {
	cutoff := s.opts.Clock().Add(-s.opts.SessionTTL)
	n, err := s.repo.ExpireSessions(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire sessions: %w", err)
	}
	if n > 0 {
		s.opts.Logger.InfoContext(ctx, "expired idle sessions", "count", n)
	}
	return n, nil
}

// RunJanitor calls ExpireIdle every interval until ctx is done.
func (s Service) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ExpireIdle(ctx); err != nil && ctx.Err() == nil {
				s.opts.Logger.ErrorContext(ctx, "session janitor", "error", err)
			}
		}
	}
}
