package middleware

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/cespare/xxhash/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/logutil"
)

// CacheStore holds encoded responses.  Purge drops every entry written
// through the store; catalog writes call it so readers never see stale data
// for longer than one request.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
	Purge(ctx context.Context) error
}

// NewCacheStore returns a Redis-backed store when rdb is set and an
// in-process bigcache otherwise.
func NewCacheStore(cfg config.CacheConfig, rdb *redis.Client) (CacheStore, error) {
	if rdb != nil {
		return &redisStore{rdb: rdb, prefix: cfg.Prefix}, nil
	}
	bcfg := bigcache.DefaultConfig(cfg.TTL)
	bcfg.CleanWindow = cfg.TTL
	bcfg.HardMaxCacheSize = cfg.LocalMaxMB
	bcfg.Verbose = false
	bc, err := bigcache.New(context.Background(), bcfg)
	if err != nil {
		return nil, fmt.Errorf("local cache: %w", err)
	}
	return &localStore{bc: bc}, nil
}

type redisStore struct {
	rdb    *redis.Client
	prefix string
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	bs, err := s.rdb.Get(ctx, key).Bytes()
	return bs, err == nil
}

func (s *redisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	_ = s.rdb.SetEx(ctx, key, val, ttl).Err()
}

func (s *redisStore) Purge(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, s.prefix+":*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// localStore entries live for the configured TTL; bigcache has no per-entry
// lifetime, so Set ignores ttl.
type localStore struct{ bc *bigcache.BigCache }

func (s *localStore) Get(_ context.Context, key string) ([]byte, bool) {
	bs, err := s.bc.Get(key)
	return bs, err == nil
}

func (s *localStore) Set(_ context.Context, key string, val []byte, _ time.Duration) {
	_ = s.bc.Set(key, val)
}

func (s *localStore) Purge(context.Context) error { return s.bc.Reset() }

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 || cw.size+int64(len(b)) <= cw.limit {
		cw.buf.Write(b)
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// cacheKeyFrom builds a stable cache key honoring prefix/strategy.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	method := r.Method
	route := c.Path()
	query := r.URL.RawQuery

	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", route}
	case "method_route":
		parts = []string{"method", method, "route", route}
	case "method_route_query":
		parts = []string{"method", method, "route", route, "q", query}
	default: // "route_query"
		parts = []string{"route", route, "q", query}
	}
	// the path carries the resource id; c.Path() is only the pattern
	parts = append(parts, "p", r.URL.Path)
	return fmt.Sprintf("%s:%016x", cfg.Prefix, xxhash.Sum64String(strings.Join(parts, ":")))
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

var errBadPayload = errors.New("cache: bad payload")

func decodePayload(bs []byte) (status int, header http.Header, body []byte, err error) {
	if len(bs) < 8 {
		return 0, nil, nil, errBadPayload
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, errBadPayload
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, errBadPayload
		}
	}
	return status, header, bs[8+hlen:], nil
}

// ResponseCache serves repeated public reads from store.  Only 200 responses
// no larger than MaxBodyBytes are stored.  X-Cache tells HIT from MISS.
func ResponseCache(cfg config.CacheConfig, store CacheStore) echo.MiddlewareFunc {
	if !cfg.Enabled || store == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKeyFrom(cfg, c)

			if bs, ok := store.Get(ctx, key); ok {
				if status, hdr, body, err := decodePayload(bs); err == nil {
					for k, vals := range hdr {
						if strings.EqualFold(k, echo.HeaderContentLength) {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, _ = c.Response().Write(body)
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || (maxBody > 0 && cw.size > maxBody) {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			hdr.Del(echo.HeaderSetCookie)
			hdr.Del(echo.HeaderXRequestID)
			if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
				store.Set(context.WithoutCancel(ctx), key, payload, ttl)
			}
			return nil
		}
	}
}

// PurgeCache empties store after every successful write passing through it.
func PurgeCache(store CacheStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if store == nil || c.Request().Method == http.MethodGet {
				return err
			}
			if status := c.Response().Status; err == nil && status >= 200 && status < 300 {
				ctx := c.Request().Context()
				if perr := store.Purge(context.WithoutCancel(ctx)); perr != nil {
					lg := logutil.GetOrDefault(ctx)
					lg.Warn().Err(perr).Msg("cache purge failed")
				}
			}
			return err
		}
	}
}
