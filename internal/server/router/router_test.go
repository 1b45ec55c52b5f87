package router

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/goldquote/internal/domain/models"
	"github.com/mamadbah2/goldquote/internal/metrics"
	"github.com/mamadbah2/goldquote/internal/rates"
	"github.com/mamadbah2/goldquote/internal/server/handlers"
	"github.com/mamadbah2/goldquote/internal/service/quote"
)

type stubSyncer struct {
	store *rates.Store
	rate  float64
	runs  int
}

func (s *stubSyncer) Run(context.Context) {
	s.runs++
	s.store.SetBaseRate(s.rate)
}

type fixture struct {
	engine http.Handler
	store  *rates.Store
	board  *quote.Board
	syncer *stubSyncer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	store := rates.NewStore()
	store.Initialize(6000, 1)
	board := quote.NewBoard()
	ctrl := quote.NewController(store, board, quote.Inputs{Weight: 10, MakingPercent: 12}, nil, quote.WithMetrics(m))
	ctrl.Recalculate()

	syncer := &stubSyncer{store: store, rate: 6500}
	h := handlers.NewQuoteHandler(ctrl, board, syncer, nil)

	return &fixture{
		engine: New(h, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil),
		store:  store,
		board:  board,
		syncer: syncer,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_Healthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_Quote(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/quote", "")
	require.Equal(t, http.StatusOK, rec.Code)

	snap := decode[models.QuoteSnapshot](t, rec)
	assert.Equal(t, int64(69216), snap.Quote.TotalPrice.IntPart())
	assert.Equal(t, int64(2016), snap.Quote.GST.IntPart())
	assert.Equal(t, 6000.0, snap.EffectiveRate)
}

func TestRouter_UpdateInputs(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/v1/quote/inputs", `{"weight":"5","purity":"0.75"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	snap := decode[models.QuoteSnapshot](t, rec)
	assert.Equal(t, 4500.0, snap.EffectiveRate)
	assert.Equal(t, int64(22500), snap.Quote.BasePrice.IntPart())
	assert.Equal(t, 0.75, f.store.State().Purity)

	latest, ok := f.board.Latest()
	require.True(t, ok)
	assert.Equal(t, 4500.0, latest.EffectiveRate)
}

func TestRouter_UpdateInputsRejectsBadJSON(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPut, "/api/v1/quote/inputs", `{"weight":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Estimate(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/quote/estimate", `{"weight":5,"rate":6500,"purity":0.916,"making_percent":10}`)
	require.Equal(t, http.StatusOK, rec.Code)

	q := decode[models.Quote](t, rec)
	assert.Equal(t, int64(29770), q.BasePrice.IntPart())
	assert.Equal(t, int64(2977), q.MakingCharges.IntPart())
	assert.Equal(t, int64(982), q.GST.IntPart())
	assert.Equal(t, int64(33729), q.TotalPrice.IntPart())
}

func TestRouter_RateAndSync(t *testing.T) {
	f := newFixture(t)

	view := decode[models.RateView](t, f.do(t, http.MethodGet, "/api/v1/rate", ""))
	assert.Equal(t, 6000.0, view.BaseRate)

	rec := f.do(t, http.MethodPost, "/api/v1/rate/sync", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[models.RateView](t, rec)
	assert.Equal(t, 6500.0, view.BaseRate)
	assert.Equal(t, 1, f.syncer.runs)

	snap := decode[models.QuoteSnapshot](t, f.do(t, http.MethodGet, "/api/v1/quote", ""))
	assert.Equal(t, int64(65000), snap.Quote.BasePrice.IntPart())
}

func TestRouter_Metrics(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goldquote_quotes_total")
}

func TestRouter_Stream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.engine)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/quote/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	events := make(chan string, 4)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data:") {
				events <- strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}
		}
		close(events)
	}()

	first := <-events
	var snap models.QuoteSnapshot
	require.NoError(t, json.Unmarshal([]byte(first), &snap))
	assert.Equal(t, 6000.0, snap.EffectiveRate)

	require.Eventually(t, func() bool { return f.board.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	f.store.SetBaseRate(7000)

	select {
	case next := <-events:
		require.NoError(t, json.Unmarshal([]byte(next), &snap))
		assert.Equal(t, 7000.0, snap.EffectiveRate)
	case <-ctx.Done():
		t.Fatal("no update streamed")
	}
}
