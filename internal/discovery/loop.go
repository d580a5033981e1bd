package discovery

import (
	"context"
	"log/slog"
	"net"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"tlscope/internal/presence"
	"tlscope/internal/util/logger/sl"
)

// PeerCache receives every identify observation for persistence across
// restarts. Write failures are logged and never stop the loop.
type PeerCache interface {
	Put(token string, endpoint string, seen time.Time) error
}

// Loop runs the symmetric discovery protocol: every cycle sweeps stale
// peers, multicasts a probe when one is due, and waits (bounded) for one
// inbound datagram. Probes from other nodes are answered with a unicast
// identify; identifies refresh the presence table.
//
// The loop is the sole writer of the presence table.
type Loop struct {
	sock      *Socket
	table     *presence.Table
	cache     PeerCache
	cfg       Config
	token     string
	localIPs  map[string]struct{}
	log       *slog.Logger
	running   *atomic.Bool
	done      chan struct{}
	err       error // terminal socket error, written before done closes
	lastProbe time.Time
}

func NewLoop(
	sock *Socket,
	table *presence.Table,
	cache PeerCache,
	cfg Config,
	token string,
	log *slog.Logger,
) *Loop {
	return &Loop{
		sock:     sock,
		table:    table,
		cache:    cache,
		cfg:      cfg.withDefaults(),
		token:    token,
		localIPs: localIPSet(),
		log:      log.With(slog.String("discovery", "loop")),
		running:  atomic.NewBool(false),
		done:     make(chan struct{}),
	}
}

// Start launches the loop on its own goroutine. The loop owns the socket
// from this point and closes it on exit.
func (l *Loop) Start(ctx context.Context) {
	l.running.Store(true)
	go l.run(ctx)
}

// Stop requests a cooperative shutdown. The loop finishes its current
// cycle, bounded by the receive timeout.
func (l *Loop) Stop() {
	l.running.Store(false)
}

// Wait blocks until the loop has exited and the socket is closed. The
// returned error is nil after a clean stop or context cancellation and
// non-nil when a socket failure killed the loop; the owner decides
// whether to retry the session or shut down.
func (l *Loop) Wait() error {
	<-l.done
	return l.err
}

func (l *Loop) run(ctx context.Context) {
	const op = "discovery.Loop.run"
	log := l.log.With(slog.String("op", op))

	defer close(l.done)
	defer l.sock.Close()

	for l.running.Load() {
		select {
		case <-ctx.Done():
			log.Info("context canceled, stopping discovery loop")
			return
		default:
		}

		l.table.Sweep(time.Now(), l.cfg.PresenceTimeout)

		probeDue := time.Since(l.lastProbe) >= l.cfg.ProbeInterval

		var (
			msg *Message
			src *net.UDPAddr
		)

		g := new(errgroup.Group)
		g.Go(func() error {
			if !probeDue {
				return nil
			}
			if _, err := l.sock.SendProbe(); err != nil {
				log.Error("probe send failed", sl.Err(err))
			}
			return nil
		})
		g.Go(func() error {
			var err error
			msg, src, err = l.sock.ReceiveOne(l.cfg.ReceiveTimeout)
			return err
		})

		err := g.Wait()
		if probeDue {
			l.lastProbe = time.Now()
		}
		if err != nil {
			if !l.running.Load() {
				return
			}
			log.Error("socket receive failed, stopping discovery loop", sl.Err(err))
			l.err = err
			return
		}

		if msg == nil {
			// quiet cycle, nothing arrived before the timeout
			continue
		}

		l.handleDatagram(*msg, src, time.Now())
	}
}

func (l *Loop) handleDatagram(msg Message, src *net.UDPAddr, now time.Time) {
	const op = "discovery.Loop.handleDatagram"
	log := l.log.With(slog.String("op", op))

	if src == nil || l.isSelf(msg, src) {
		return
	}

	switch msg.Kind {
	case KindProbe:
		if _, err := l.sock.SendIdentify(src); err != nil {
			log.Error("identify reply failed",
				slog.String("peer", src.String()),
				sl.Err(err),
			)
		}
	case KindIdentify:
		l.table.Upsert(msg.Token, src, now)
		if l.cache != nil {
			if err := l.cache.Put(msg.Token, src.String(), now); err != nil {
				log.Warn("peer cache write failed", sl.Err(err))
			}
		}
	default:
		log.Debug("unknown datagram ignored", slog.String("peer", src.String()))
	}
}

// isSelf filters this node's own traffic by full source endpoint (local
// interface address and bound port) and by token on identify datagrams.
// Port-only comparison is deliberately not used.
func (l *Loop) isSelf(msg Message, src *net.UDPAddr) bool {
	if msg.Kind == KindIdentify && msg.Token == l.token {
		return true
	}

	if src.Port != l.sock.Port() {
		return false
	}
	_, local := l.localIPs[src.IP.String()]
	return local
}

func localIPSet() map[string]struct{} {
	set := make(map[string]struct{})

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return set
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if v4 := ipNet.IP.To4(); v4 != nil {
			set[v4.String()] = struct{}{}
		}
	}
	return set
}
