package node

import (
	"context"
	"fmt"
	"log/slog"

	"tlscope/internal/discovery"
	"tlscope/internal/presence"
	"tlscope/internal/securechannel"
	"tlscope/internal/storage/peercache"
	"tlscope/internal/storage/userstore"
)

// Node is one active session: the local identity, the presence table and
// the discovery loop lifecycle. The presence table exists only while
// discovery runs; the loop is its sole writer.
type Node struct {
	Name   string
	Token  string
	User   *userstore.UserRecord
	Secure *securechannel.Context

	table *presence.Table
	loop  *discovery.Loop
	fatal chan error
	port  int
	log   *slog.Logger
}

func New(name, token string, user *userstore.UserRecord, secure *securechannel.Context, log *slog.Logger) *Node {
	return &Node{
		Name:   name,
		Token:  token,
		User:   user,
		Secure: secure,
		log:    log,
	}
}

// StartDiscovery binds the discovery socket, creates a fresh presence
// table and launches the loop. cache may be nil.
func (n *Node) StartDiscovery(ctx context.Context, cfg discovery.Config, cache *peercache.Cache) error {
	const op = "node.StartDiscovery"

	if n.loop != nil {
		return fmt.Errorf("%s: discovery already running", op)
	}

	sock, err := discovery.Bind(cfg, n.Token, n.log)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n.port = sock.Port()
	n.table = presence.NewTable()

	var loopCache discovery.PeerCache
	if cache != nil {
		loopCache = cache
	}

	n.loop = discovery.NewLoop(sock, n.table, loopCache, cfg, n.Token, n.log)
	n.loop.Start(ctx)

	fatal := make(chan error, 1)
	n.fatal = fatal
	go func(l *discovery.Loop) {
		fatal <- l.Wait()
	}(n.loop)

	n.log.Info("discovery started",
		slog.String("name", n.Name),
		slog.Int("port", n.port),
	)
	return nil
}

// StopDiscovery requests loop shutdown and waits for the socket to close.
// The presence table is discarded with the loop.
func (n *Node) StopDiscovery() {
	if n.loop == nil {
		return
	}

	n.loop.Stop()
	n.loop.Wait()
	n.loop = nil
	n.table = nil

	n.log.Info("discovery stopped", slog.String("name", n.Name))
}

// DiscoveryDone yields exactly once, when the discovery loop exits: nil
// after a clean stop, the terminal socket error otherwise. Valid only
// after a successful StartDiscovery.
func (n *Node) DiscoveryDone() <-chan error {
	return n.fatal
}

// Port reports the negotiated UDP port for diagnostics; zero before
// discovery starts.
func (n *Node) Port() int {
	return n.port
}

// Snapshot returns a detached copy of the presence table, or nil when
// discovery is not running.
func (n *Node) Snapshot() []presence.Record {
	if n.table == nil {
		return nil
	}
	return n.table.Snapshot()
}
