package protocol

import (
	"context"
	"fmt"
	"io"

	"github.com/quic-go/quic-go"

	"github.com/eigerco/relief/pkg/log"
	"github.com/eigerco/relief/pkg/network/transport"
)

// ProtocolConn wraps a transport connection and dispatches incoming streams
// to the handler registered for their kind.
type ProtocolConn struct {
	TConn    *transport.Conn
	registry *Registry
}

func NewProtocolConn(tConn *transport.Conn, registry *Registry) *ProtocolConn {
	return &ProtocolConn{
		TConn:    tConn,
		registry: registry,
	}
}

// OpenStream opens a new stream and writes its kind as the first byte.
func (pc *ProtocolConn) OpenStream(ctx context.Context, kind StreamKind) (quic.Stream, error) {
	stream, err := pc.TConn.OpenStream(ctx)
	if err != nil {
		return nil, err
	}
	if err := writeWithContext(ctx, stream, []byte{byte(kind)}); err != nil {
		stream.CancelRead(0)
		_ = stream.Close()
		return nil, fmt.Errorf("failed to write stream kind: %w", err)
	}
	return stream, nil
}

// AcceptStream accepts one stream, reads its kind and hands it to the
// registered handler on a new goroutine.
func (pc *ProtocolConn) AcceptStream() error {
	stream, err := pc.TConn.AcceptStream()
	if err != nil {
		return err
	}

	var kind [1]byte
	if _, err := io.ReadFull(stream, kind[:]); err != nil {
		_ = stream.Close()
		return fmt.Errorf("failed to read stream kind: %w", err)
	}
	handler, err := pc.registry.GetHandler(StreamKind(kind[0]))
	if err != nil {
		stream.CancelRead(0)
		_ = stream.Close()
		return err
	}

	peer := pc.TConn.Peer()
	go func() {
		if err := handler.HandleStream(pc.TConn.Context(), stream, peer); err != nil {
			log.Network.Warn().Err(err).
				Stringer("kind", StreamKind(kind[0])).
				Str("peer", peer.Short()).
				Msg("stream handler error")
		}
	}()
	return nil
}

// writeWithContext writes p to stream unless ctx is cancelled first.
func writeWithContext(ctx context.Context, stream quic.Stream, p []byte) error {
	done := make(chan error, 1)
	go func() {
		_, err := stream.Write(p)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (pc *ProtocolConn) Close() error {
	return pc.TConn.Close()
}
