package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/markany/safepc-anomaly/internal/ueba/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newIPInfoServer(t *testing.T, hits *int32, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		ip := strings.TrimPrefix(r.URL.Path, "/")
		country := "US"
		if ip == "211.45.1.1" {
			country = "KR"
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip":"` + ip + `","country":"` + country + `","region":"R","city":"C"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func enrichEvents() []models.Event {
	return []models.Event{
		{SrcIP: "8.8.8.8"},
		{SrcIP: "211.45.1.1"},
		{SrcIP: "8.8.8.8"},
		{SrcIP: "10.0.0.5"},
		{SrcIP: models.DefaultSrcIP},
		{SrcIP: "unknown"},
	}
}

func TestEnricher(t *testing.T) {
	var hits int32
	srv := newIPInfoServer(t, &hits, http.StatusOK)
	client := NewIPInfoClient(IPInfoConfig{Token: "secret", BaseURL: srv.URL})
	cache := NewMemoryGeoCache()
	e := NewEnricher(client, cache, EnricherConfig{Concurrency: 4}, zap.NewNop())

	events := enrichEvents()
	e.Enrich(context.Background(), events)

	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "고유 공인 IP만 조회")
	assert.Equal(t, models.Geo{Country: "US", Region: "R", City: "C"}, events[0].Geo)
	assert.Equal(t, "KR", events[1].Geo.Country)
	assert.Equal(t, events[0].Geo, events[2].Geo)
	for _, ev := range events[3:] {
		assert.Equal(t, models.Geo{}, ev.Geo)
	}

	// 두 번째 배치는 캐시 사용
	again := enrichEvents()
	e.Enrich(context.Background(), again)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, "KR", again[1].Geo.Country)
}

func TestEnricher_LookupFailure(t *testing.T) {
	var hits int32
	srv := newIPInfoServer(t, &hits, http.StatusTooManyRequests)
	client := NewIPInfoClient(IPInfoConfig{Token: "secret", BaseURL: srv.URL})
	cache := NewMemoryGeoCache()
	e := NewEnricher(client, cache, EnricherConfig{Concurrency: 2}, zap.NewNop())

	events := enrichEvents()
	e.Enrich(context.Background(), events)
	for _, ev := range events {
		assert.Equal(t, models.Geo{}, ev.Geo)
	}
	_, cached := cache.Get(context.Background(), "8.8.8.8")
	assert.False(t, cached, "실패 결과는 캐시하지 않음")

	// 실패 이벤트도 피처 단계에서는 country=unknown
	feats := BuildFeatures(events)
	assert.Equal(t, models.Unknown, feats[0].Features.Country)
}

func TestEnricher_Disabled(t *testing.T) {
	e := NewEnricher(nil, nil, EnricherConfig{}, zap.NewNop())
	events := enrichEvents()
	e.Enrich(context.Background(), events)
	for _, ev := range events {
		assert.Equal(t, models.Geo{}, ev.Geo)
	}
}

func TestIPInfoClient_NoToken(t *testing.T) {
	_, err := NewIPInfoClient(IPInfoConfig{}).Lookup(context.Background(), "8.8.8.8")
	require.Error(t, err)
}

func TestRoutable(t *testing.T) {
	assert.True(t, routable("8.8.8.8"))
	assert.True(t, routable("2001:4860:4860::8888"))
	assert.False(t, routable("0.0.0.0"))
	assert.False(t, routable("127.0.0.1"))
	assert.False(t, routable("192.168.1.10"))
	assert.False(t, routable("not-an-ip"))
}
