package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/markany/safepc-anomaly/internal/ueba/models"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errNoToken = errors.New("ipinfo token not configured")

// GeoLookup resolves a source identifier to coarse geo data.
type GeoLookup interface {
	Lookup(ctx context.Context, ip string) (models.Geo, error)
}

type IPInfoConfig struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// IPInfoClient: ipinfo.io 조회. 재시도 없음
type IPInfoClient struct {
	cfg  IPInfoConfig
	http *http.Client
}

func NewIPInfoClient(cfg IPInfoConfig) *IPInfoClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://ipinfo.io"
	}
	return &IPInfoClient{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

func (c *IPInfoClient) Lookup(ctx context.Context, ip string) (models.Geo, error) {
	if c.cfg.Token == "" {
		return models.Geo{}, errNoToken
	}
	u := fmt.Sprintf("%s/%s?token=%s", c.cfg.BaseURL, url.PathEscape(ip), url.QueryEscape(c.cfg.Token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.Geo{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return models.Geo{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.Geo{}, errors.Errorf("ipinfo %s: status %d", ip, resp.StatusCode)
	}
	var data struct {
		Country string `json:"country"`
		Region  string `json:"region"`
		City    string `json:"city"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return models.Geo{}, errors.Wrapf(err, "decode ipinfo %s", ip)
	}
	return models.Geo{Country: data.Country, Region: data.Region, City: data.City}, nil
}

// GeoCache: 고유 IP 단위 조회 결과 캐시
type GeoCache interface {
	Get(ctx context.Context, ip string) (models.Geo, bool)
	Set(ctx context.Context, ip string, geo models.Geo)
}

type MemoryGeoCache struct {
	mu sync.RWMutex
	m  map[string]models.Geo
}

func NewMemoryGeoCache() *MemoryGeoCache {
	return &MemoryGeoCache{m: make(map[string]models.Geo)}
}

func (c *MemoryGeoCache) Get(_ context.Context, ip string) (models.Geo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	geo, ok := c.m[ip]
	return geo, ok
}

func (c *MemoryGeoCache) Set(_ context.Context, ip string, geo models.Geo) {
	c.mu.Lock()
	c.m[ip] = geo
	c.mu.Unlock()
}

// RedisGeoCache: 프로세스/배치 간 공유 캐시 (TTL)
type RedisGeoCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisGeoCache(addr string, ttl time.Duration, logger *zap.Logger) *RedisGeoCache {
	return &RedisGeoCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		logger: logger,
	}
}

func geoKey(ip string) string { return "ueba:geo:" + ip }

func (c *RedisGeoCache) Get(ctx context.Context, ip string) (models.Geo, bool) {
	raw, err := c.client.Get(ctx, geoKey(ip)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("[ENRICH] redis 조회 실패", zap.String("ip", ip), zap.Error(err))
		}
		return models.Geo{}, false
	}
	var geo models.Geo
	if err := json.Unmarshal(raw, &geo); err != nil {
		return models.Geo{}, false
	}
	return geo, true
}

func (c *RedisGeoCache) Set(ctx context.Context, ip string, geo models.Geo) {
	raw, _ := json.Marshal(geo)
	if err := c.client.Set(ctx, geoKey(ip), raw, c.ttl).Err(); err != nil {
		c.logger.Debug("[ENRICH] redis 저장 실패", zap.String("ip", ip), zap.Error(err))
	}
}

func (c *RedisGeoCache) Close() error { return c.client.Close() }

type EnricherConfig struct {
	Concurrency int
}

// Enricher: 배치 내 고유 src_ip만 조회하여 geo 필드를 채운다.
// 조회 실패/타임아웃/토큰 없음은 모두 빈 geo로 처리하며 배치를 중단하지 않는다.
type Enricher struct {
	lookup GeoLookup
	cache  GeoCache
	cfg    EnricherConfig
	logger *zap.Logger
}

// NewEnricher: lookup이 nil이면 조회 없이 geo를 비워둔다
func NewEnricher(lookup GeoLookup, cache GeoCache, cfg EnricherConfig, logger *zap.Logger) *Enricher {
	if cache == nil {
		cache = NewMemoryGeoCache()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Enricher{lookup: lookup, cache: cache, cfg: cfg, logger: logger}
}

// routable: 사설/루프백/미지정 주소는 외부 조회 대상이 아님
func routable(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return !(parsed.IsUnspecified() || parsed.IsLoopback() || parsed.IsPrivate() ||
		parsed.IsLinkLocalUnicast() || parsed.IsMulticast())
}

func (e *Enricher) Enrich(ctx context.Context, events []models.Event) {
	if e.lookup == nil {
		e.logger.Info("[ENRICH] geo 조회 비활성 (IPINFO_TOKEN 미설정)")
		return
	}

	seen := make(map[string]bool)
	var unique []string
	for _, ev := range events {
		if seen[ev.SrcIP] {
			continue
		}
		seen[ev.SrcIP] = true
		if routable(ev.SrcIP) {
			unique = append(unique, ev.SrcIP)
		}
	}

	var (
		mu       sync.Mutex
		resolved = make(map[string]models.Geo, len(unique))
		failed   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for _, ip := range unique {
		ip := ip
		g.Go(func() error {
			geo, ok := e.cache.Get(gctx, ip)
			if !ok {
				var err error
				geo, err = e.lookup.Lookup(gctx, ip)
				if err != nil {
					e.logger.Debug("[ENRICH] 조회 실패", zap.String("ip", ip), zap.Error(err))
					mu.Lock()
					failed++
					mu.Unlock()
					return nil
				}
				e.cache.Set(gctx, ip, geo)
			}
			mu.Lock()
			resolved[ip] = geo
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i := range events {
		events[i].Geo = resolved[events[i].SrcIP]
	}
	e.logger.Info("[ENRICH] geo 조회 완료",
		zap.Int("unique_ips", len(seen)),
		zap.Int("looked_up", len(unique)),
		zap.Int("failed", failed),
	)
}
