package server

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/pipeline"
)

// NewRedisClient connects to Redis and pings it. It returns nil when no
// address is configured or the server is unreachable, which disables caching.
func NewRedisClient(ctx context.Context, cfg common.RedisConfig, logger *slog.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("cache.redis.unreachable", "addr", cfg.Addr, "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("cache.redis.connected", "addr", cfg.Addr)
	return client
}

// captureWriter tees the response body while forwarding it to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if remain := cw.limit - cw.buf.Len(); remain > 0 {
		if len(b) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	return cw.ResponseWriter.Write(b)
}

func cacheKey(prefix string, c echo.Context) string {
	sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdr, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdr)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
	copy(out[8:], hdr)
	copy(out[8+len(hdr):], body)
	return out, nil
}

func decodePayload(bs []byte) (int, http.Header, []byte, bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status := int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	hdr := http.Header{}
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, hdr, bs[8+hlen:], true
}

// CacheMiddleware serves repeated GET requests from Redis. Only complete
// 200 responses are stored. A nil client or disabled config passes through.
func CacheMiddleware(cfg common.CacheConfig, rdb *redis.Client, logger *slog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	limit := cfg.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	prefix := cachePrefix(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(prefix, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if k == echo.HeaderContentLength {
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
			} else if err != redis.Nil {
				logger.Warn("cache.get.failed", "key", key, "error", err)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: limit + 1}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.buf.Len() > limit {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			if err := rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
				logger.Warn("cache.set.failed", "key", key, "error", err)
			}
			return nil
		}
	}
}

func cachePrefix(cfg common.CacheConfig) string {
	if cfg.Prefix == "" {
		return "gymslots"
	}
	return cfg.Prefix
}

// PurgeCache deletes every cached response under the configured prefix.
func PurgeCache(ctx context.Context, cfg common.CacheConfig, rdb *redis.Client) (int, error) {
	if rdb == nil {
		return 0, nil
	}
	var keys []string
	iter := rdb.Scan(ctx, 0, cachePrefix(cfg)+":*", 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := rdb.Del(ctx, keys...).Result()
	return int(n), err
}

// PurgingIngester clears the response cache after every completed run.
type PurgingIngester struct {
	next   Ingester
	purge  func(ctx context.Context) (int, error)
	logger *slog.Logger
}

func NewPurgingIngester(next Ingester, cfg common.CacheConfig, rdb *redis.Client, logger *slog.Logger) *PurgingIngester {
	if logger == nil {
		logger = slog.Default()
	}
	return &PurgingIngester{
		next:   next,
		purge:  func(ctx context.Context) (int, error) { return PurgeCache(ctx, cfg, rdb) },
		logger: logger,
	}
}

func (p *PurgingIngester) Ingest(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	res, err := p.next.Ingest(ctx, req)
	if err != nil || res.GymID == "" {
		return res, err
	}
	n, perr := p.purge(context.WithoutCancel(ctx))
	if perr != nil {
		p.logger.Warn("cache.purge.failed", "source_id", req.SourceID, "error", perr)
	} else if n > 0 {
		p.logger.Debug("cache.purged", "keys", n, "source_id", req.SourceID)
	}
	return res, nil
}
