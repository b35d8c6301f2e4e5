package stripeapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
	"go.uber.org/zap"

	"summarist-billing/internal/apperr"
)

// ErrNotFound is returned when Stripe reports resource_missing.
var ErrNotFound = errors.New("stripe resource not found")

type Config struct {
	SecretKey   string
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
	Backends    *stripe.Backends // nil uses Stripe's defaults
}

// Client wraps the Stripe API with per-call timeouts and a circuit breaker.
// The underlying *client.API is built on first use.
type Client struct {
	cfg     Config
	log     *zap.Logger
	breaker *gobreaker.CircuitBreaker[any]

	once sync.Once
	api  *client.API
}

func New(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	c := &Client{cfg: cfg, log: log}
	c.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "stripe",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isOutage(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

var (
	sharedOnce   sync.Once
	sharedClient *Client
)

// Shared returns the process-wide client, building it from cfg on the first
// call. Later calls ignore their arguments.
func Shared(cfg Config, log *zap.Logger) *Client {
	sharedOnce.Do(func() {
		sharedClient = New(cfg, log)
	})
	return sharedClient
}

func (c *Client) API() *client.API {
	c.once.Do(func() {
		c.api = client.New(c.cfg.SecretKey, c.cfg.Backends)
	})
	return c.api
}

// isOutage separates transport and 5xx/429 failures from client errors so
// a 404 on a lookup does not trip the breaker.
func isOutage(err error) bool {
	var se *stripe.Error
	if errors.As(err, &se) {
		return se.HTTPStatusCode >= http.StatusInternalServerError ||
			se.HTTPStatusCode == http.StatusTooManyRequests ||
			se.HTTPStatusCode == 0
	}
	return true
}

func isNotFound(err error) bool {
	var se *stripe.Error
	if errors.As(err, &se) {
		return se.HTTPStatusCode == http.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing
	}
	return false
}

// call runs fn under the client timeout and the breaker.
func call[T any](ctx context.Context, c *Client, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	out, err := c.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		if isNotFound(err) {
			return zero, apperr.Wrap(apperr.KindNotFound, op, ErrNotFound)
		}
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = errors.Join(err, ctxErr)
		}
		return zero, apperr.Upstream(op, err)
	}
	return out.(T), nil
}
