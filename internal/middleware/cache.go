package middleware

import (
	"crypto/sha1"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/coursehub/coursehub/internal/config"
)

// cacheRecorder buffers the response body while forwarding it to the client
// so a successful catalog response can be stored after the handler runs.
type cacheRecorder struct {
	http.ResponseWriter
	status int
	body   strings.Builder
}

func (w *cacheRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// NewCatalogCache caches successful GET responses of the public catalog in
// Redis, keyed by route and query string. Only 200 JSON responses are
// stored. With caching disabled or Redis unavailable the middleware is a
// pass-through.
func NewCatalogCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}

			ctx := c.Request().Context()
			sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
			key := fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])

			if body, err := rdb.Get(ctx, key).Result(); err == nil {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.JSONBlob(http.StatusOK, []byte(body))
			}

			rec := &cacheRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if rec.status == http.StatusOK {
				_ = rdb.SetEx(ctx, key, rec.body.String(), ttl).Err()
			}
			return nil
		}
	}
}
