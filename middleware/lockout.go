package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// NewLockoutMiddleware returns a middleware that locks a client address out
// after `limit` consecutive 401 responses within `window`, and a closer
// function that stops the cache's expiration loop.
// While locked out, the client receives 429 Too Many Requests without the
// request reaching the authentication chain. A successful response clears the
// client's failure count.
func NewLockoutMiddleware(limit uint64, window time.Duration) (middleware func(next http.Handler) http.Handler, closer func()) {
	cache := ttlcache.New[string, uint64]()

	done := make(chan struct{})
	go func() {
		cache.Start()
		close(done)
	}()

	closer = func() {
		cache.Stop()
		<-done
	}

	middleware = func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientAddr(r)

			if item := cache.Get(key); item != nil && item.Value() >= limit {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			switch {
			case rec.status == http.StatusUnauthorized:
				var failures uint64
				if item := cache.Get(key); item != nil {
					failures = item.Value()
				}

				cache.Set(key, failures+1, window)
			case rec.status < http.StatusBadRequest:
				cache.Delete(key)
			}
		})
	}

	return middleware, closer
}

func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}
