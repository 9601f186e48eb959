package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/config"
	"github.com/eigerco/relief/internal/events"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/internal/ledger"
	"github.com/eigerco/relief/pkg/db"
	"github.com/eigerco/relief/pkg/db/pebble"
	"github.com/eigerco/relief/pkg/log"
	"github.com/eigerco/relief/pkg/network/node"
)

// main runs a relief node.
//
//	relief -genkey relief.key
//	RELIEF_DATA_DIR=./data relief -listen 0.0.0.0:9900
func main() {
	genKey := flag.String("genkey", "", "write a new Ed25519 key file to this path and exit")
	listen := flag.String("listen", "", "listen address, overrides RELIEF_LISTEN_ADDR")
	dataDir := flag.String("data", "", "data directory, overrides RELIEF_DATA_DIR")
	keyFile := flag.String("key", "", "key file, overrides RELIEF_KEY_FILE")
	flag.Parse()

	if *genKey != "" {
		if err := writeKey(*genKey); err != nil {
			config.Exitf("genkey: %v", err)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *keyFile != "" {
		cfg.KeyFile = *keyFile
	}

	logOpts, err := cfg.LogOptions()
	if err != nil {
		config.Exitf("config: %v", err)
	}
	log.Init(logOpts)

	if err := run(cfg); err != nil {
		log.Root.Error().Err(err).Msg("relief stopped")
		os.Exit(1)
	}
}

func writeKey(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fs.ErrExist
	}
	kp, err := identity.GenerateKeypair()
	if err != nil {
		return err
	}
	if err := kp.Save(path); err != nil {
		return err
	}
	os.Stdout.WriteString(kp.Account().String() + "\n")
	return nil
}

func openStore(dir string) (db.KVStore, error) {
	if dir == "" {
		log.Store.Warn().Msg("no data directory set, state is kept in memory")
		return pebble.NewKVStore()
	}
	return pebble.NewKVStore(pebble.WithPath(dir))
}

func run(cfg config.Config) error {
	kp, err := identity.LoadKeypair(cfg.KeyFile)
	if errors.Is(err, fs.ErrNotExist) {
		return errors.New("key file " + cfg.KeyFile + " not found, create one with -genkey")
	}
	if err != nil {
		return err
	}

	kv, err := openStore(cfg.DataDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Store.Error().Err(err).Msg("failed to close store")
		}
	}()

	journal := events.SinkFunc(func(e events.Event) {
		log.Ledger.Info().
			Uint64("seq", e.Seq).
			Str("kind", string(e.Kind)).
			Uint64("entity", e.EntityID).
			Str("actor", e.Actor.Short()).
			Msg("journal")
	})
	l, err := ledger.New(kv, ledger.Config{
		Authority:       cfg.ResolveAuthority(kp.Account()),
		RequireVerified: cfg.RequireVerified,
		MinStake:        common.Amount(cfg.MinStake),
	}, ledger.WithSink(journal))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := node.New(ctx, node.Config{
		ListenAddr:     cfg.ListenAddr,
		Network:        cfg.Network,
		Keypair:        kp,
		CertValidity:   cfg.CertValidity,
		RequestTimeout: cfg.RequestTimeout,
	}, l)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return n.Run(gctx)
	})
	if cfg.DigestInterval > 0 {
		g.Go(func() error {
			reportDigest(gctx, l, cfg.DigestInterval)
			return nil
		})
	}
	return g.Wait()
}

// reportDigest logs the journal digest every interval until ctx is done.
func reportDigest(ctx context.Context, l *ledger.Ledger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary, err := l.JournalDigest()
			if err != nil {
				log.Ledger.Error().Err(err).Msg("journal digest")
				continue
			}
			log.Ledger.Info().
				Uint64("length", summary.Length).
				Stringer("digest", summary.Digest).
				Msg("journal digest")
		}
	}
}
