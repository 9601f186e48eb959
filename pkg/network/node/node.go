// Package node serves the ledger over QUIC and provides the matching client.
package node

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/ledger"
	"github.com/eigerco/relief/pkg/log"
	"github.com/eigerco/relief/pkg/network/cert"
	"github.com/eigerco/relief/pkg/network/handlers"
	"github.com/eigerco/relief/pkg/network/protocol"
	"github.com/eigerco/relief/pkg/network/transport"
)

const (
	DefaultNetwork        = "relief"
	DefaultCertValidity   = 24 * time.Hour
	DefaultRequestTimeout = 10 * time.Second
)

type Config struct {
	ListenAddr     string
	Network        string
	Keypair        *identity.Keypair
	CertValidity   time.Duration
	RequestTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.Network == "" {
		c.Network = DefaultNetwork
	}
	if c.CertValidity <= 0 {
		c.CertValidity = DefaultCertValidity
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// Node accepts connections and serves every ledger stream kind to them.
type Node struct {
	account   identity.AccountID
	manager   *protocol.Manager
	transport *transport.Transport
}

// endpoint builds a certificate for kp and a transport whose connections are
// handled by a fresh protocol manager.
func endpoint(ctx context.Context, kp *identity.Keypair, network string, validity time.Duration, listenAddr string) (*transport.Transport, *protocol.Manager, error) {
	if kp == nil {
		return nil, nil, fmt.Errorf("keypair required")
	}
	tlsCert, err := cert.ForKeypair(kp, validity).GenerateCertificate()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate certificate: %w", err)
	}
	manager, err := protocol.NewManager(protocol.Config{Network: network})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create protocol manager: %w", err)
	}
	tr, err := transport.NewTransport(ctx, transport.Config{
		TLSCert:       tlsCert,
		ListenAddr:    listenAddr,
		CertValidator: cert.NewValidator(),
		Handler:       manager,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create transport: %w", err)
	}
	manager.OnClosed = tr.Forget
	return tr, manager, nil
}

func New(ctx context.Context, cfg Config, l *ledger.Ledger) (*Node, error) {
	cfg.setDefaults()
	tr, manager, err := endpoint(ctx, cfg.Keypair, cfg.Network, cfg.CertValidity, cfg.ListenAddr)
	if err != nil {
		return nil, err
	}
	handlers.NewLedgerService(l, cfg.RequestTimeout).Register(manager.Registry)

	return &Node{
		account:   cfg.Keypair.Account(),
		manager:   manager,
		transport: tr,
	}, nil
}

func (n *Node) Account() identity.AccountID {
	return n.account
}

func (n *Node) Start() error {
	if err := n.transport.Start(); err != nil {
		return err
	}
	log.Network.Info().Str("account", n.account.String()).Msg("node started")
	return nil
}

// Addr is the bound listen address, valid after Start.
func (n *Node) Addr() net.Addr {
	return n.transport.Addr()
}

func (n *Node) Stop() error {
	log.Network.Info().Msg("node stopping")
	return n.transport.Stop()
}

// Run starts the node and serves until ctx is done.
func (n *Node) Run(ctx context.Context) error {
	if err := n.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return n.Stop()
}
