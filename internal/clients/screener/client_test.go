package screener

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceOK(rows []Row) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, _ := json.Marshal(rows)
		_ = json.NewEncoder(w).Encode(ServiceResponse{
			Success:   true,
			Data:      data,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}

func TestExecuteFilterQuery_ParsesRows(t *testing.T) {
	sector := "Technology"
	rel := 2.4
	srv := httptest.NewServer(serviceOK([]Row{
		{Symbol: "ABC", Price: 12.34, ChangePct: 4.2, Volume: 1_500_000, RelVolume: &rel, Sector: &sector},
		{Symbol: "DEF", Price: 55.0, ChangePct: -1.1, Volume: 800_000},
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok", 5*time.Second, 3, zerolog.Nop())

	rows, err := client.ExecuteFilterQuery(context.Background(), "breakout", "ta_highlow52w_nh,sh_avgvol_o500")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ABC", rows[0].Symbol)
	assert.Equal(t, 12.34, rows[0].Price)
	require.NotNil(t, rows[0].RelVolume)
	assert.Equal(t, 2.4, *rows[0].RelVolume)
	assert.Nil(t, rows[1].Sector)
}

func TestExecuteFilterQuery_SendsAuthAndPayload(t *testing.T) {
	var gotAuth string
	var gotBody runRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		serviceOK(nil)(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", 5*time.Second, 3, zerolog.Nop())

	_, err := client.ExecuteFilterQuery(context.Background(), "momentum", "ta_perf_dup")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "momentum", gotBody.Name)
	assert.Equal(t, "ta_perf_dup", gotBody.Filters)
}

func TestExecuteFilterQuery_RetriesThenSucceeds(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		serviceOK([]Row{{Symbol: "GHI", Price: 9.9, Volume: 100}})(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second, 3, zerolog.Nop())

	rows, err := client.ExecuteFilterQuery(context.Background(), "reversal", "ta_perf_d10u")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestExecuteFilterQuery_ServiceError(t *testing.T) {
	msg := "invalid filter syntax"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ServiceResponse{Success: false, Error: &msg})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second, 1, zerolog.Nop())

	_, err := client.ExecuteFilterQuery(context.Background(), "pattern", "ta_pattern_oops")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter syntax")
}

func TestExecuteFilterQuery_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second, 5, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ExecuteFilterQuery(ctx, "breakout", "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
