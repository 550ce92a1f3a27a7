package errx

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// ErrSessionStore marks a session history backend failure. Callers holding
// a fallback store switch to it on this kind.
var ErrSessionStore = errors.New("session store unavailable")

// WrapRedis maps a Redis error onto an AppError. A missing key is a 404
// without a kind; timeouts are 504 and everything else 502, both of kind
// ErrSessionStore.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return kinded(ErrSessionStore, http.StatusGatewayTimeout, err)
	}
	return kinded(ErrSessionStore, http.StatusBadGateway, err)
}
