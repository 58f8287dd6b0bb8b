package superdoc

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// PooledClient talks to the runtime over a shared keep-alive connection
// pool. It is safe for concurrent use; the pool is owned by the client and
// must be released with Close when the client is no longer needed.
//
// Behavior is otherwise identical to Client: both route through the same
// framing and endpoint-invalidation path.
type PooledClient struct {
	clientCore
	transport *http.Transport
}

// NewPooledClient constructs a pooled client on the shared Default
// supervisor unless WithSupervisor overrides it.
func NewPooledClient(opts ...ClientOption) *PooledClient {
	transport := &http.Transport{}
	c := &PooledClient{
		transport: transport,
		clientCore: clientCore{
			logger:      zap.NewNop().Sugar(),
			callTimeout: DefaultCallTimeout,
			httpClient:  &http.Client{Transport: transport},
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
func (c *PooledClient) Load(ctx context.Context, docx []byte) (*Editor, error) {
	return c.load(ctx, c, docx)
}

// LoadFile opens the DOCX file at path in a new runtime session.
func (c *PooledClient) LoadFile(ctx context.Context, path string) (*Editor, error) {
	return c.loadFile(ctx, c, path)
}

// Close releases the client's pooled connections. The runtime process is
// shared and keeps running; stop it with Shutdown or Supervisor.Stop.
func (c *PooledClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}
