package superdoc

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// healthProber answers "is the runtime at this endpoint alive" with a
// single bounded ping exchange. Every failure mode collapses to false;
// restart policy belongs to the supervisor, so the prober itself never
// retries.
type healthProber struct {
	logger  *zap.SugaredLogger
	client  *http.Client
	timeout time.Duration
}

func newHealthProber(logger *zap.SugaredLogger, timeout time.Duration) *healthProber {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = &logAdapter{SugaredLogger: logger}
	retryClient.HTTPClient = &http.Client{
		Transport: &http.Transport{DisableKeepAlives: true},
	}

	return &healthProber{
		logger:  logger,
		client:  retryClient.StandardClient(),
		timeout: timeout,
	}
}

// check sends a ping and inspects the reply for the liveness marker.
// Transport errors, timeouts, and malformed replies all mean unhealthy.
func (h *healthProber) check(ctx context.Context, endpoint string) bool {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	result, err := postCall(ctx, h.client, endpoint, "ping", nil, true)
	if err != nil {
		h.logger.Debugf("health check failed: %s", err)
		return false
	}
	return result.Get("pong").Bool()
}

type logAdapter struct {
	*zap.SugaredLogger
}

func (a *logAdapter) Printf(msg string, args ...interface{}) { a.Debugf(msg, args...) }
