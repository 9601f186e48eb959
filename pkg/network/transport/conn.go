package transport

import (
	"context"
	"fmt"

	"github.com/quic-go/quic-go"

	"github.com/eigerco/relief/internal/identity"
)

// Conn is an authenticated QUIC connection. Peer is the account behind the
// remote certificate.
type Conn struct {
	qConn     quic.Connection
	transport *Transport
	peer      identity.AccountID
	ctx       context.Context
	cancel    context.CancelFunc
}

// newConn derives the connection context from the transport; it is also
// cancelled when the QUIC connection goes away.
func newConn(qConn quic.Connection, transport *Transport) *Conn {
	ctx, cancel := context.WithCancel(transport.ctx)
	context.AfterFunc(qConn.Context(), cancel)

	return &Conn{
		qConn:     qConn,
		transport: transport,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (c *Conn) QConn() quic.Connection {
	return c.qConn
}

func (c *Conn) OpenStream(ctx context.Context) (quic.Stream, error) {
	stream, err := c.qConn.OpenStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open QUIC stream: %w", err)
	}
	return stream, nil
}

func (c *Conn) AcceptStream() (quic.Stream, error) {
	stream, err := c.qConn.AcceptStream(c.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to accept QUIC stream: %w", err)
	}
	return stream, nil
}

func (c *Conn) Peer() identity.AccountID {
	return c.peer
}

func (c *Conn) Close() error {
	c.cancel()
	return c.qConn.CloseWithError(0, "")
}

func (c *Conn) Context() context.Context {
	return c.ctx
}
