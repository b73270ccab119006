package common

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestIndexNames(t *testing.T) {
	day := DayStamp(time.Date(2024, 4, 2, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024.04.02", day)
	assert.Equal(t, "safepc-siem-ueba-events-2024.04.02", DailyEventsIndex("safepc", day))
	assert.Equal(t, "safepc-siem-ueba-risk-2024.04.02", DailyRiskIndex("safepc", day))
	assert.Equal(t, "safepc-siem-ueba-runs", RunsIndex("safepc"))
}

func TestLoadTimezone(t *testing.T) {
	assert.Equal(t, time.UTC, LoadTimezone("UTC", zap.NewNop()))
	assert.Equal(t, time.UTC, LoadTimezone("Nowhere/Invalid", zap.NewNop()))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLogLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLogLevel("warning"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel(""))

	for _, format := range []string{"json", "console"} {
		logger, err := NewLogger("info", format)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	}
}

func TestOSClient_Bulk(t *testing.T) {
	var lines []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_bulk", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		lines = strings.Split(strings.TrimSpace(string(body)), "\n")
		_, _ = w.Write([]byte(`{"errors":true,"items":[{"index":{"status":201}},{"index":{"status":400}}]}`))
	}))
	defer srv.Close()

	c := NewOSClient(srv.URL)
	res, err := c.Bulk(context.Background(), []BulkDoc{
		{Index: "idx", Doc: map[string]int{"a": 1}},
		{Index: "idx", ID: "k", Doc: map[string]int{"a": 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, BulkResult{Indexed: 1, Failed: 1}, res)

	require.Len(t, lines, 4)
	var action map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &action))
	assert.Equal(t, "k", action["index"]["_id"])

	res, err = c.Bulk(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res)
}

func TestOSClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad"}`))
	}))
	defer srv.Close()

	c := NewOSClient(srv.URL)
	_, err := c.Bulk(context.Background(), []BulkDoc{{Index: "idx", Doc: 1}})
	assert.Error(t, err)
	assert.Error(t, c.Put(context.Background(), "idx", "1", map[string]int{}))
	_, err = c.Count(context.Background(), "idx", nil)
	assert.Error(t, err)
}
