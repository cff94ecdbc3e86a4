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
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/asset-management/internal/config"
)

// ResponseCache stores successful responses in Redis keyed by route so
// that a write to the underlying data can purge every variant of that
// route at once. A nil client turns both Middleware and Invalidate into
// no-ops.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
	log *logrus.Logger
}

func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log *logrus.Logger) *ResponseCache {
	return &ResponseCache{cfg: cfg, rdb: rdb, log: log}
}

func (rc *ResponseCache) enabled() bool { return rc != nil && rc.cfg.Enabled && rc.rdb != nil }

// routePrefix is the key prefix shared by every cached variant of route.
func (rc *ResponseCache) routePrefix(route string) string {
	return rc.cfg.Prefix + ":" + route + ":"
}

// key returns prefix:route:sha1(variant) where the variant depends on the
// key strategy.
func (rc *ResponseCache) key(c echo.Context) string {
	r := c.Request()
	var variant string
	switch strings.ToLower(rc.cfg.KeyStrategy) {
	case "route":
		variant = ""
	case "method_route":
		variant = r.Method
	case "method_route_query":
		variant = r.Method + "?" + r.URL.RawQuery
	default: // route_query
		variant = r.URL.RawQuery
	}
	sum := sha1.Sum([]byte(variant))
	return fmt.Sprintf("%s%x", rc.routePrefix(c.Path()), sum[:])
}

// Middleware serves cached copies of 200 responses for the configured
// methods and records misses. X-Cache reports HIT or MISS.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	if !rc.enabled() {
		return passThrough
	}
	maxBody := int64(rc.cfg.MaxBodyBytes)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rc.cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := rc.key(c)

			if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for _, k := range cachedHeaders {
						if v := hdr.Get(k); v != "" {
							c.Response().Header().Set(k, v)
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
			if cw.status != http.StatusOK || cw.truncated {
				return nil
			}
			payload, err := encodePayload(cw.status, contentHeaders(c.Response().Header()), cw.buf.Bytes())
			if err != nil {
				return nil
			}
			if err := rc.rdb.SetEx(context.WithoutCancel(ctx), key, payload, rc.cfg.TTL).Err(); err != nil {
				rc.log.WithError(err).WithField("key", key).Warn("cache store failed")
			}
			return nil
		}
	}
}

// Invalidate drops every cached response of route. Failures are logged;
// the entries then expire through their TTL.
func (rc *ResponseCache) Invalidate(ctx context.Context, route string) {
	if !rc.enabled() {
		return
	}
	iter := rc.rdb.Scan(ctx, 0, rc.routePrefix(route)+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		rc.log.WithError(err).WithField("route", route).Warn("cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := rc.rdb.Del(ctx, keys...).Err(); err != nil {
		rc.log.WithError(err).WithField("route", route).Warn("cache purge failed")
	}
}

// cachedHeaders describe the body itself. Headers set by other middleware
// (CORS, rate limit, request id) are produced fresh on every request.
var cachedHeaders = []string{
	echo.HeaderContentType,
	echo.HeaderContentEncoding,
	"Content-Language",
}

func contentHeaders(src http.Header) http.Header {
	out := make(http.Header, len(cachedHeaders))
	for _, k := range cachedHeaders {
		if v := src.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

// captureWriter tees the response body into buf while forwarding it.
type captureWriter struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	limit     int64
	truncated bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.truncated {
		if cw.limit > 0 && int64(cw.buf.Len()+len(b)) > cw.limit {
			cw.truncated = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
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

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
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
