package protocol

import (
	"crypto/tls"
	"errors"
	"fmt"
	"sync"

	"github.com/quic-go/quic-go"

	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/pkg/log"
	"github.com/eigerco/relief/pkg/network/transport"
)

type Config struct {
	// Network is the deployment name both sides must agree on
	Network string
}

// Manager implements transport.ConnectionHandler. It wraps every new
// connection in a ProtocolConn and serves its streams until it closes.
type Manager struct {
	Registry *Registry
	config   Config
	// OnClosed, when set, runs after a connection stops serving streams.
	OnClosed func(conn *transport.Conn)

	mu    sync.RWMutex
	conns map[identity.AccountID]*ProtocolConn
}

func NewManager(config Config) (*Manager, error) {
	if config.Network == "" {
		return nil, fmt.Errorf("network name required")
	}
	if err := ValidateALPNProtocol(NewProtocolID(config.Network).String()); err != nil {
		return nil, fmt.Errorf("invalid network name: %w", err)
	}
	return &Manager{
		Registry: NewRegistry(),
		config:   config,
		conns:    make(map[identity.AccountID]*ProtocolConn),
	}, nil
}

// OnConnection is called by the transport once a connection is authenticated.
func (m *Manager) OnConnection(conn *transport.Conn) error {
	pc := NewProtocolConn(conn, m.Registry)

	m.mu.Lock()
	m.conns[conn.Peer()] = pc
	m.mu.Unlock()

	go m.handleStreams(pc)
	return nil
}

// Conn returns the protocol connection of peer.
func (m *Manager) Conn(peer identity.AccountID) (*ProtocolConn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pc, ok := m.conns[peer]
	return pc, ok
}

func (m *Manager) handleStreams(pc *ProtocolConn) {
	defer m.release(pc)

	for {
		err := pc.AcceptStream()
		if err == nil {
			continue
		}
		if pc.TConn.Context().Err() != nil {
			log.Network.Debug().Str("peer", pc.TConn.Peer().Short()).Msg("connection closed")
			return
		}
		if isTimeoutError(err) {
			log.Network.Debug().Str("peer", pc.TConn.Peer().Short()).Msg("connection timed out due to inactivity")
			return
		}
		log.Network.Debug().Err(err).Msg("stream accept error")
	}
}

func (m *Manager) release(pc *ProtocolConn) {
	_ = pc.Close()

	m.mu.Lock()
	if m.conns[pc.TConn.Peer()] == pc {
		delete(m.conns, pc.TConn.Peer())
	}
	m.mu.Unlock()

	if m.OnClosed != nil {
		m.OnClosed(pc.TConn)
	}
}

func isTimeoutError(err error) bool {
	var idle *quic.IdleTimeoutError
	return errors.As(err, &idle)
}

// GetProtocols implements the transport.ConnectionHandler interface.
func (m *Manager) GetProtocols() []string {
	return []string{NewProtocolID(m.config.Network).String()}
}

// ValidateConnection checks the negotiated protocol matches our network.
// Implements the transport.ConnectionHandler interface.
func (m *Manager) ValidateConnection(tlsState tls.ConnectionState) error {
	if tlsState.NegotiatedProtocol == "" {
		return fmt.Errorf("no protocol negotiated")
	}
	protocolID, err := ParseProtocolID(tlsState.NegotiatedProtocol)
	if err != nil {
		return fmt.Errorf("invalid protocol: %w", err)
	}
	if protocolID.Network != m.config.Network {
		return fmt.Errorf("network mismatch: got %s, want %s", protocolID.Network, m.config.Network)
	}
	return nil
}
