package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"harmonychain/models"
	"harmonychain/repository"

	"github.com/stretchr/testify/require"
)

func newSession(id string, seen time.Time) models.Session {
	return models.Session{
		ID:       id,
		Username: models.DefaultUsername,
		State:    models.SessionState{Balance: 1000 * models.HMT, MiningPower: 10},
		Page:     models.PageDashboard,
		LastSeen: seen,
	}
}

func TestMemoryRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()

	require.NoError(t, repo.CreateSession(ctx, newSession("a", time.Now())))
	require.Error(t, repo.CreateSession(ctx, newSession("a", time.Now())))

	s, err := repo.GetSession(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, 1000*models.HMT, s.State.Balance)

	_, err = repo.GetSession(ctx, "missing")
	require.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestMemoryRepository_UpdateSession(t *testing.T) {
	type args struct {
		id string
		fn func(*models.Session) error
	}
	tests := []struct {
		name        string
		args        args
		wantErr     error
		wantBalance models.Amount
	}{
		{
			name: "Reward applied",
			args: args{
				id: "a",
				fn: func(s *models.Session) error {
					s.State.Balance += 5 * models.HMT
					return nil
				},
			},
			wantBalance: 1005 * models.HMT,
		},
		{
			name: "Negative balance rejected",
			args: args{
				id: "a",
				fn: func(s *models.Session) error {
					s.State.Balance -= 2000 * models.HMT
					return nil
				},
			},
			wantErr:     models.ErrInsufficientBalance,
			wantBalance: 1000 * models.HMT,
		},
		{
			name: "Callback error discards changes",
			args: args{
				id: "a",
				fn: func(s *models.Session) error {
					s.State.Balance = 0
					return errors.New("boom")
				},
			},
			wantErr:     errors.New("boom"),
			wantBalance: 1000 * models.HMT,
		},
		{
			name: "Unknown session",
			args: args{
				id: "missing",
				fn: func(*models.Session) error { return nil },
			},
			wantErr:     models.ErrSessionNotFound,
			wantBalance: 1000 * models.HMT,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := repository.NewMemoryRepository()
			require.NoError(t, repo.CreateSession(ctx, newSession("a", time.Now())))

			_, err := repo.UpdateSession(ctx, tt.args.id, tt.args.fn)
			if tt.wantErr != nil {
				require.Error(t, err)
				require.Equal(t, tt.wantErr.Error(), err.Error())
			} else {
				require.NoError(t, err)
			}
			s, err := repo.GetSession(ctx, "a")
			require.NoError(t, err)
			require.Equal(t, tt.wantBalance, s.State.Balance)
		})
	}
}

func TestMemoryRepository_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.CreateSession(ctx, newSession("a", time.Now())))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateSession(ctx, "a", func(s *models.Session) error {
				s.State.Balance += 5 * models.HMT
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := repo.GetSession(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, 1250*models.HMT, s.State.Balance)
}

func TestMemoryRepository_ExpireSessions(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	now := time.Now()
	require.NoError(t, repo.CreateSession(ctx, newSession("old", now.Add(-2*time.Hour))))
	require.NoError(t, repo.CreateSession(ctx, newSession("new", now)))

	n, err := repo.ExpireSessions(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	count, err := repo.CountSessions(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, err = repo.GetSession(ctx, "old")
	require.ErrorIs(t, err, models.ErrSessionNotFound)

	require.NoError(t, repo.DeleteSession(ctx, "new"))
	require.ErrorIs(t, repo.DeleteSession(ctx, "new"), models.ErrSessionNotFound)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	s := newSession("a", time.Now())
	s.Proposals = []string{"first"}
	require.NoError(t, repo.CreateSession(ctx, s))

	got, err := repo.GetSession(ctx, "a")
	require.NoError(t, err)
	got.Proposals[0] = "changed"

	again, err := repo.GetSession(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "first", again.Proposals[0])
}

func TestMemoryRepository_CancelledContext(t *testing.T) {
	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.CreateSession(context.Background(), newSession("a", time.Now())))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		call func() error
	}{
		{name: "create", call: func() error { return repo.CreateSession(ctx, newSession("b", time.Now())) }},
		{name: "get", call: func() error { _, err := repo.GetSession(ctx, "a"); return err }},
		{name: "update", call: func() error {
			_, err := repo.UpdateSession(ctx, "a", func(*models.Session) error { return nil })
			return err
		}},
		{name: "delete", call: func() error { return repo.DeleteSession(ctx, "a") }},
		{name: "expire", call: func() error { _, err := repo.ExpireSessions(ctx, time.Now()); return err }},
		{name: "count", call: func() error { _, err := repo.CountSessions(ctx); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.call(), context.Canceled)
		})
	}

	n, err := repo.CountSessions(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
