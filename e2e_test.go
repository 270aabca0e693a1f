package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"harmonychain/handlers"
	"harmonychain/repository"
	"harmonychain/service"

	"github.com/stretchr/testify/require"
)

type fixedDraw struct{ draw int }

func (f fixedDraw) IntN(n int) int {
	if f.draw-1 >= n {
		return n - 1
	}
	return f.draw - 1
}

func setupTestServer(draw int) *httptest.Server {
	opts := service.DefaultOptions()
	opts.Rand = fixedDraw{draw: draw}
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewService(repository.NewMemoryRepository(), opts)
	h := handlers.NewHandler(
		svc,
		handlers.NewSessionTokens("secret", time.Hour),
		handlers.CookieConfig{Name: "harmony_session"},
		opts.Logger,
	)
	return httptest.NewServer(handlers.NewRouter(h))
}

func fetchState(t *testing.T, client *http.Client, base string) map[string]interface{} {
	t.Helper()
	resp, err := client.Get(base + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var state map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &state))
	return state
}

func TestE2E_StreamAndMine(t *testing.T) {
	type args struct {
		streams int
		mines   int
		draw    int
	}
	tests := []struct {
		name        string
		args        args
		wantBalance float64
	}{
		{
			name:        "Stream once then mine with draw 7: 1000 -> 1012",
			args:        args{streams: 1, mines: 1, draw: 7},
			wantBalance: 1012,
		},
		{
			name:        "Ten streams: 1000 -> 1050",
			args:        args{streams: 10, draw: 1},
			wantBalance: 1050,
		},
		{
			name:        "Three mines with draw 10: 1000 -> 1030",
			args:        args{mines: 3, draw: 10},
			wantBalance: 1030,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(tt.args.draw)
			defer ts.Close()
			jar, err := cookiejar.New(nil)
			require.NoError(t, err)
			client := ts.Client()
			client.Jar = jar

			for i := 0; i < tt.args.streams; i++ {
				resp, err := client.PostForm(ts.URL+"/actions/stream", url.Values{"genre": {"Electronic"}})
				require.NoError(t, err)
				resp.Body.Close()
				require.Equal(t, http.StatusOK, resp.StatusCode)
			}
			for i := 0; i < tt.args.mines; i++ {
				resp, err := client.PostForm(ts.URL+"/actions/mine", nil)
				require.NoError(t, err)
				resp.Body.Close()
				require.Equal(t, http.StatusOK, resp.StatusCode)
			}

			state := fetchState(t, client, ts.URL)
			require.InDelta(t, tt.wantBalance, state["balance"].(float64), 1e-9)
			require.Equal(t, float64(10), state["miningPower"])
			require.Equal(t, "HarmonyUser", state["username"])
		})
	}
}

func TestE2E_ConcurrentClicksOnOneSession(t *testing.T) {
	ts := setupTestServer(5)
	defer ts.Close()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := ts.Client()
	client.Jar = jar

	// First request establishes the session cookie.
	fetchState(t, client, ts.URL)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.Post(ts.URL+"/api/mine", "application/json", nil)
			if err != nil {
				errs <- err
				return
			}
			resp.Body.Close()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	state := fetchState(t, client, ts.URL)
	require.InDelta(t, 1200.0, state["balance"].(float64), 1e-9)
}
