// Package transport manages mutually authenticated QUIC connections. Both
// sides present self-signed Ed25519 certificates; the certificate key is the
// peer's account id.
package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/pkg/log"
)

const MaxIdleTimeout = 30 * time.Minute

// CertValidator validates peer certificates and extracts account ids from them
type CertValidator interface {
	ValidateCertificate(cert *x509.Certificate) error
	ExtractAccount(cert *x509.Certificate) (identity.AccountID, error)
}

// ConnectionHandler processes new connections and validates their protocols
type ConnectionHandler interface {
	// OnConnection is called when a new connection is established
	OnConnection(conn *Conn) error
	// GetProtocols returns supported ALPN protocol strings
	GetProtocols() []string
	// ValidateConnection verifies TLS connection parameters
	ValidateConnection(tlsState tls.ConnectionState) error
}

// Config contains all configuration parameters for a Transport
type Config struct {
	TLSCert       *tls.Certificate
	ListenAddr    string // Address to listen on, unused by dial-only transports
	CertValidator CertValidator
	Handler       ConnectionHandler
}

// Transport manages QUIC connections and their lifecycles
type Transport struct {
	config   Config
	listener *quic.Listener
	mu       sync.RWMutex
	conns    map[identity.AccountID]*Conn
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{} // closed when the accept loop exits
}

// NewTransport creates and configures a new transport instance.
// Returns an error if any required configuration is missing or invalid.
func NewTransport(ctx context.Context, config Config) (*Transport, error) {
	if config.TLSCert == nil {
		return nil, fmt.Errorf("TLS certificate required")
	}
	if config.CertValidator == nil {
		return nil, fmt.Errorf("certificate validator required")
	}
	if config.Handler == nil {
		return nil, fmt.Errorf("connection handler required")
	}
	if err := config.CertValidator.ValidateCertificate(config.TLSCert.Leaf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Transport{
		config: config,
		conns:  make(map[identity.AccountID]*Conn),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (t *Transport) quicConfig() *quic.Config {
	return &quic.Config{
		MaxIdleTimeout:  MaxIdleTimeout,
		KeepAlivePeriod: MaxIdleTimeout / 2,
	}
}

func (t *Transport) verifyPeer(cs tls.ConnectionState) error {
	if len(cs.PeerCertificates) == 0 {
		return fmt.Errorf("%w: no peer certificate provided", ErrInvalidCertificate)
	}
	if err := t.config.CertValidator.ValidateCertificate(cs.PeerCertificates[0]); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}
	if err := t.config.Handler.ValidateConnection(cs); err != nil {
		return fmt.Errorf("connection validation failed: %w", err)
	}
	return nil
}

// Start begins listening on the configured address and accepting connections.
func (t *Transport) Start() error {
	tlsConfig := &tls.Config{
		Certificates:       []tls.Certificate{*t.config.TLSCert},
		NextProtos:         t.config.Handler.GetProtocols(),
		ClientAuth:         tls.RequireAnyClientCert,
		MinVersion:         tls.VersionTLS13,
		InsecureSkipVerify: true,
		VerifyConnection:   t.verifyPeer,
	}

	listener, err := quic.ListenAddr(t.config.ListenAddr, tlsConfig, t.quicConfig())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrListenerFailed, err)
	}

	t.listener = listener
	t.done = make(chan struct{})
	go func() {
		t.acceptLoop()
		close(t.done)
	}()
	log.Network.Info().Stringer("addr", listener.Addr()).Msg("listening")
	return nil
}

// Addr is the address the listener is bound to.
func (t *Transport) Addr() net.Addr {
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

// Stop closes every connection and the listener, then waits for the accept
// loop to finish.
func (t *Transport) Stop() error {
	t.cancel()

	t.mu.Lock()
	for _, conn := range t.conns {
		if err := conn.Close(); err != nil {
			log.Network.Warn().Err(err).Str("peer", conn.Peer().Short()).Msg("failed to close connection")
		}
	}
	t.conns = make(map[identity.AccountID]*Conn)
	t.mu.Unlock()

	if t.listener == nil {
		return nil
	}
	if err := t.listener.Close(); err != nil {
		return fmt.Errorf("failed to close listener: %w", err)
	}
	<-t.done
	return nil
}

// Connect dials a remote node.
func (t *Transport) Connect(ctx context.Context, addr string) (*Conn, error) {
	tlsConf := &tls.Config{
		Certificates:       []tls.Certificate{*t.config.TLSCert},
		NextProtos:         t.config.Handler.GetProtocols(),
		MinVersion:         tls.VersionTLS13,
		InsecureSkipVerify: true,
		VerifyConnection:   t.verifyPeer,
	}

	quicConn, err := quic.DialAddr(ctx, addr, tlsConf, t.quicConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDialFailed, err)
	}

	conn := t.handleConnection(quicConn)
	if conn == nil {
		return nil, ErrConnFailed
	}
	return conn, nil
}

// GetConnection retrieves an active connection by peer account.
func (t *Transport) GetConnection(peer identity.AccountID) (*Conn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	conn, ok := t.conns[peer]
	return conn, ok
}

func (t *Transport) ListConnections() []*Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	conns := make([]*Conn, 0, len(t.conns))
	for _, conn := range t.conns {
		conns = append(conns, conn)
	}
	return conns
}

func (t *Transport) acceptLoop() {
	for {
		conn, err := t.listener.Accept(t.ctx)
		if err != nil {
			if t.ctx.Err() != nil {
				return
			}
			log.Network.Warn().Err(err).Msg("failed to accept connection")
			continue
		}
		go t.handleConnection(conn)
	}
}

func (t *Transport) handleConnection(qConn quic.Connection) *Conn {
	peer, err := t.config.CertValidator.ExtractAccount(qConn.ConnectionState().TLS.PeerCertificates[0])
	if err != nil {
		log.Network.Warn().Err(err).Msg("failed to extract peer account")
		if cerr := qConn.CloseWithError(0, fmt.Sprintf("%s: %v", ErrInvalidCertificate, err)); cerr != nil {
			log.Network.Warn().Err(cerr).Msg("failed to close connection")
		}
		return nil
	}

	conn := t.manageConnection(peer, qConn)
	log.Network.Debug().Str("peer", peer.Short()).Stringer("remote", qConn.RemoteAddr()).Msg("connection established")

	if err := t.config.Handler.OnConnection(conn); err != nil {
		t.cleanup(peer, conn)
		if cerr := qConn.CloseWithError(0, err.Error()); cerr != nil {
			log.Network.Warn().Err(cerr).Msg("failed to close connection")
		}
		return nil
	}
	return conn
}

// manageConnection stores conn, replacing any earlier connection of the same peer.
func (t *Transport) manageConnection(peer identity.AccountID, qConn quic.Connection) *Conn {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.conns[peer]; ok {
		log.Network.Debug().Str("peer", peer.Short()).Msg("replacing existing connection")
		if err := existing.Close(); err != nil {
			log.Network.Warn().Err(err).Msg("failed to close existing connection")
		}
	}

	conn := newConn(qConn, t)
	conn.peer = peer
	t.conns[peer] = conn
	return conn
}

func (t *Transport) cleanup(peer identity.AccountID, conn *Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conns[peer] == conn {
		delete(t.conns, peer)
	}
}

// Forget drops conn from the connection table once it has closed.
func (t *Transport) Forget(conn *Conn) {
	t.cleanup(conn.Peer(), conn)
}
