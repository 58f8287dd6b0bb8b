package superdoc

import (
	"context"
	"encoding/base64"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// caller is the contract an Editor needs from its owning client: one
// request/response exchange against the runtime.
type caller interface {
	Call(ctx context.Context, method string, p params) (gjson.Result, error)
}

// clientCore is the behavior shared by both client variants: endpoint
// resolution through the supervisor, cache invalidation on transport
// failure, and the common framing. The variants differ only in how the
// underlying HTTP exchange manages connections.
type clientCore struct {
	logger       *zap.SugaredLogger
	sup          *Supervisor
	httpClient   *http.Client
	callTimeout  time.Duration
	closePerCall bool

	mu       sync.Mutex
	endpoint string
}

// ClientOption configures a Client or PooledClient.
type ClientOption func(c *clientCore)

// WithSupervisor binds the client to a specific supervisor instead of the
// shared Default one.
func WithSupervisor(s *Supervisor) ClientOption {
	return func(c *clientCore) {
		c.sup = s
	}
}

// WithClientLogger sets the client's logger.
func WithClientLogger(l *zap.Logger) ClientOption {
	return func(c *clientCore) {
		c.logger = l.Named("superdoc_client").Sugar()
	}
}

// WithCallTimeout sets the default per-call deadline applied when the
// caller's context carries none.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *clientCore) {
		c.callTimeout = d
	}
}

// Call issues one RPC to the runtime, starting it first if needed. The
// result is the raw "result" value of the reply; use gjson paths to walk
// into it. On a connection-class failure the cached endpoint is cleared so
// the next call re-resolves through the supervisor, which restarts the
// runtime if it crashed.
func (c *clientCore) Call(ctx context.Context, method string, p params) (gjson.Result, error) {
	endpoint, err := c.resolveEndpoint(ctx)
	if err != nil {
		return gjson.Result{}, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	result, err := postCall(ctx, c.httpClient, endpoint, method, p, c.closePerCall)
	if err != nil && invalidatesEndpoint(err) {
		c.logger.Debugf("invalidating endpoint %s: %s", endpoint, err)
		c.invalidate(endpoint)
	}
	return result, err
}

func (c *clientCore) resolveEndpoint(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.endpoint != "" {
		endpoint := c.endpoint
		c.mu.Unlock()
		return endpoint, nil
	}
	c.mu.Unlock()

	endpoint, err := c.sup.EnsureRunning(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.endpoint = endpoint
	c.mu.Unlock()
	return endpoint, nil
}

// invalidate clears the cached endpoint, but only if it still matches the
// one the failing call used; a concurrent caller may already have
// re-resolved to a newer runtime generation.
func (c *clientCore) invalidate(endpoint string) {
	c.mu.Lock()
	if c.endpoint == endpoint {
		c.endpoint = ""
	}
	c.mu.Unlock()
}

// Ping reports whether the runtime is reachable and answering. All
// failures collapse to false.
func (c *clientCore) Ping(ctx context.Context) bool {
	result, err := c.Call(ctx, "ping", nil)
	if err != nil {
		return false
	}
	return result.Get("pong").Bool()
}

// load opens a document and returns the editor bound to the new session.
func (c *clientCore) load(ctx context.Context, self caller, docx []byte) (*Editor, error) {
	result, err := c.Call(ctx, "loadDocx", params{
		"docx": base64.StdEncoding.EncodeToString(docx),
	})
	if err != nil {
		return nil, err
	}
	sessionID := result.Get("sessionId").String()
	if sessionID == "" {
		return nil, newError(KindConnection, "loadDocx reply carries no session id")
	}
	return &Editor{client: self, sessionID: sessionID}, nil
}

func (c *clientCore) loadFile(ctx context.Context, self caller, path string) (*Editor, error) {
	docx, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapError(KindApplication, err, "reading document %q", path)
	}
	return c.load(ctx, self, docx)
}

// Client talks to the runtime with a fresh connection per call. It is safe
// for concurrent use and needs no explicit shutdown; for high call volumes
// prefer PooledClient.
type Client struct {
	clientCore
}

// NewClient constructs a per-call-connection client on the shared Default
// supervisor unless WithSupervisor overrides it.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		clientCore: clientCore{
			logger:       zap.NewNop().Sugar(),
			callTimeout:  DefaultCallTimeout,
			closePerCall: true,
			httpClient: &http.Client{
				Transport: &http.Transport{DisableKeepAlives: true},
			},
		},
	}
	for _, o := range opts {
		o(&c.clientCore)
	}
	if c.sup == nil {
		c.sup = Default()
	}
	return c
}

// Load opens the given document bytes in a new runtime session, starting
// the runtime on first use.
func (c *Client) Load(ctx context.Context, docx []byte) (*Editor, error) {
	return c.load(ctx, c, docx)
}

// LoadFile opens the DOCX file at path in a new runtime session.
func (c *Client) LoadFile(ctx context.Context, path string) (*Editor, error) {
	return c.loadFile(ctx, c, path)
}
