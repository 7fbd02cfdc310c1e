package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/salones-cra/booking-api/internal/config"
)

// catalogRecorder tees the handler's response into a buffer, capped at the
// configured body limit, while still streaming it to the client.  Oversized
// listings are served normally but skipped by the cache.
type catalogRecorder struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cr *catalogRecorder) WriteHeader(code int) {
    cr.status = code
    cr.ResponseWriter.WriteHeader(code)
}

func (cr *catalogRecorder) Write(b []byte) (int, error) {
    cr.size += int64(len(b))
    if cr.limit <= 0 || cr.size <= cr.limit {
        cr.buf.Write(b)
    }
    return cr.ResponseWriter.Write(b)
}

// cacheable reports whether this request may be served from the catalog
// cache.  Requests carrying credentials bypass it entirely: an admin who
// just edited the catalog should see the change on their next read, not a
// stale shared copy.
func cacheable(cfg config.CacheConfig, c echo.Context) bool {
    if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
        return false
    }
    return c.Request().Header.Get("Authorization") == ""
}

// catalogKey hashes the route (and query, depending on strategy) under the
// configured prefix, so /v1/rooms and /v1/materials each get their own
// entry and an admin catalog edit only has to outlive one TTL.
func catalogKey(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    parts := []string{}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = append(parts, "route", c.Path())
    case "method_route":
        parts = append(parts, "method", r.Method, "route", c.Path())
    case "method_route_query":
        parts = append(parts, "method", r.Method, "route", c.Path(), "q", r.URL.RawQuery)
    default: // "route_query"
        parts = append(parts, "route", c.Path(), "q", r.URL.RawQuery)
    }
    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// Cached entries pack [4 bytes status][4 bytes headerLen][headerJSON][body]
// so a hit replays the exact bytes and headers the handler produced.

func encodeEntry(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodeEntry(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    header = make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, header, bs[8+hlen:], true
}

// NewRedisCache caches successful anonymous catalog reads in Redis.  With
// caching disabled or Redis unavailable it degrades to a pass-through, the
// same way the rate limiter does.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cacheable(cfg, c) {
                return next(c)
            }

            ctx := c.Request().Context()
            key := catalogKey(cfg, c)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodeEntry(bs); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, "Content-Length") {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    if len(body) > 0 {
                        _, _ = c.Response().Write(body)
                    }
                    return nil
                }
            }

            rec := &catalogRecorder{
                ResponseWriter: c.Response().Writer,
                status:         http.StatusOK,
                limit:          int64(cfg.MaxBodyBytes),
            }
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            // Only a complete 200 listing is worth replaying.
            if rec.status != http.StatusOK || (rec.limit > 0 && rec.size > rec.limit) {
                return nil
            }
            hdr := make(http.Header, len(c.Response().Header()))
            for k, vals := range c.Response().Header() {
                hdr[k] = append([]string(nil), vals...)
            }
            if entry, err := encodeEntry(rec.status, hdr, rec.buf.Bytes()); err == nil {
                _ = rdb.SetEx(context.Background(), key, entry, cfg.TTL).Err()
            }
            return nil
        }
    }
}
