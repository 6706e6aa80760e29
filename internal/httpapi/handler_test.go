package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/huangsam/sizeup/internal/iocache"
	"github.com/huangsam/sizeup/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 13, 30, 0, 0, time.UTC)

func newTestHandler(store *iocache.MockStore) http.Handler {
	h := NewHandler(store)
	h.now = func() time.Time { return fixedNow }
	return h.Router()
}

func doGet(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	store := &iocache.MockStore{}
	store.On("GetStatus", mock.Anything).Return(schema.StoreStatus{Connected: true}, nil).Once()
	store.On("GetStatus", mock.Anything).Return(schema.StoreStatus{}, errors.New("dial tcp root:secret@db:3306: connection refused")).Once()
	handler := newTestHandler(store)

	rec := doGet(t, handler, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = doGet(t, handler, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "UNHEALTHY", body.Code)
	assert.Equal(t, "store unavailable", body.Message)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestGetStatus(t *testing.T) {
	store := &iocache.MockStore{}
	store.On("GetStatus", mock.Anything).Return(schema.StoreStatus{
		Backend:           "sqlite",
		Connected:         true,
		TotalPullRequests: 2,
		TableSizes:        map[string]int64{"pull_requests": 2},
	}, nil)

	rec := doGet(t, newTestHandler(store), "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got schema.StoreStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "sqlite", got.Backend)
	assert.Equal(t, 2, got.TotalPullRequests)
}

func TestGetPullRequest(t *testing.T) {
	store := &iocache.MockStore{}
	record := schema.PullRequestRecord{Repository: "lerebear/sizeup", Number: 7, NumCommits: 3}
	store.On("GetPullRequest", mock.Anything, "lerebear/sizeup", 7).Return(record, nil)
	store.On("GetPullRequest", mock.Anything, "lerebear/sizeup", 8).
		Return(schema.PullRequestRecord{}, fmt.Errorf("%w: lerebear/sizeup#8", schema.ErrPullRequestNotFound))
	handler := newTestHandler(store)

	t.Run("found", func(t *testing.T) {
		rec := doGet(t, handler, "/repos/lerebear/sizeup/pulls/7")
		require.Equal(t, http.StatusOK, rec.Code)
		var got schema.PullRequestRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, record, got)
	})

	t.Run("missing", func(t *testing.T) {
		rec := doGet(t, handler, "/repos/lerebear/sizeup/pulls/8")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
	})

	t.Run("bad number", func(t *testing.T) {
		rec := doGet(t, handler, "/repos/lerebear/sizeup/pulls/abc")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "pull request number must be a positive integer", decodeError(t, rec).Message)
	})
}

func TestGetReport(t *testing.T) {
	store := &iocache.MockStore{}
	store.On("Backend").Return(schema.PostgreSQLBackend)
	store.On("QueryRows", mock.Anything, mock.Anything).Return(schema.ResultSet{
		Columns: []string{"sizeup score", "number of reviews"},
		Rows:    [][]string{{"3", "1"}},
	}, nil)

	rec := doGet(t, newTestHandler(store), "/repos/lerebear/sizeup/reports/review-engagement?lookback=7d")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got reportPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "lerebear/sizeup", got.Repository)
	assert.Equal(t, schema.ReviewEngagementStat, got.StatType)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), got.Range.Start)
	require.NotNil(t, got.Range.End)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *got.Range.End)
	require.Len(t, got.Charts, 3)
	assert.Equal(t, "comments vs. diff size", got.Charts[0].Title)
	assert.Equal(t, schema.ScatterChart, got.Charts[0].Kind)

	query, ok := store.Calls[len(store.Calls)-1].Arguments.Get(1).(schema.Query)
	require.True(t, ok)
	assert.Contains(t, query.SQL, "$1")
}

func TestGetReport_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{name: "no window", target: "/repos/lerebear/sizeup/reports/delivery"},
		{name: "conflicting window", target: "/repos/lerebear/sizeup/reports/delivery?lookback=7d&start-date=2024-01-01"},
		{name: "bad lookback", target: "/repos/lerebear/sizeup/reports/delivery?lookback=seven"},
		{name: "inverted range", target: "/repos/lerebear/sizeup/reports/delivery?start-date=2024-02-01&end-date=2024-01-01"},
		{name: "unknown stat type", target: "/repos/lerebear/sizeup/reports/velocity?lookback=7d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGet(t, newTestHandler(&iocache.MockStore{}), tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "BAD_REQUEST", decodeError(t, rec).Code)
		})
	}
}

func TestGetReport_StoreFailure(t *testing.T) {
	store := &iocache.MockStore{}
	store.On("Backend").Return(schema.SQLiteBackend)
	store.On("QueryRows", mock.Anything, mock.Anything).Return(schema.ResultSet{}, errors.New("disk I/O error"))

	rec := doGet(t, newTestHandler(store), "/repos/lerebear/sizeup/reports/effectiveness?lookback=7d")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeError(t, rec).Message)
}

func TestServe(t *testing.T) {
	store := &iocache.MockStore{}
	store.On("Backend").Return(schema.SQLiteBackend)
	store.On("GetStatus", mock.Anything).Return(schema.StoreStatus{Connected: true}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", store, ready) }()

	addr := <-ready
	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
