package discovery

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/net/ipv4"

	"tlscope/internal/util/logger/sl"
)

// Socket owns the single UDP socket used for both multicast probes and
// unicast identify replies. Lifecycle: Bind -> (SendProbe | ReceiveOne |
// SendIdentify)* -> Close.
type Socket struct {
	conn  *net.UDPConn
	pconn *ipv4.PacketConn
	group *net.UDPAddr
	port  int
	token string
	log   *slog.Logger
}

// Bind negotiates a local UDP port starting at cfg.StartPort, joins the
// multicast group and sets the multicast TTL. Port negotiation is bounded
// by cfg.BindAttempts; exhausting the budget is fatal.
func Bind(cfg Config, token string, log *slog.Logger) (*Socket, error) {
	const op = "discovery.Bind"

	cfg = cfg.withDefaults()
	log = log.With(slog.String("op", op))

	group := net.ParseIP(cfg.MulticastGroup)
	if group == nil || !group.IsMulticast() {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrInvalidGroup, cfg.MulticastGroup)
	}

	var conn *net.UDPConn
	port := cfg.StartPort
	for attempt := 0; attempt < cfg.BindAttempts; attempt++ {
		c, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
		if err == nil {
			conn = c
			break
		}
		log.Debug("port occupied, trying next",
			slog.Int("port", port),
			sl.Err(err),
		)
		port++
	}
	if conn == nil {
		return nil, fmt.Errorf("%s: %w: ports %d..%d",
			op, ErrBindExhausted, cfg.StartPort, port-1)
	}

	if err := conn.SetReadBuffer(1024 * 1024); err != nil {
		log.Warn("set read buffer", sl.Err(err))
	}

	pconn := ipv4.NewPacketConn(conn)
	if err := pconn.JoinGroup(multicastInterface(), &net.UDPAddr{IP: group}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: join multicast group %s: %w", op, group, err)
	}

	if err := pconn.SetMulticastTTL(cfg.TTL); err != nil {
		// reported, not fatal; probes may still reach the local segment
		log.Warn("set multicast TTL", sl.Err(err))
	}

	s := &Socket{
		conn:  conn,
		pconn: pconn,
		group: &net.UDPAddr{IP: group, Port: port},
		port:  port,
		token: token,
		log:   log,
	}

	log.Info("discovery socket bound",
		slog.Int("port", port),
		slog.String("multicast_group", group.String()),
	)
	return s, nil
}

func (s *Socket) Port() int {
	return s.port
}

func (s *Socket) LocalAddr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// SendProbe multicasts the probe marker to the group on the bound port.
// Errors are returned for logging; the caller treats them as non-fatal.
func (s *Socket) SendProbe() (int, error) {
	const op = "discovery.Socket.SendProbe"

	n, err := s.conn.WriteToUDP(EncodeProbe(), s.group)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// SendIdentify unicasts this node's identify datagram back to a probe
// source.
func (s *Socket) SendIdentify(dst *net.UDPAddr) (int, error) {
	const op = "discovery.Socket.SendIdentify"

	n, err := s.conn.WriteToUDP(EncodeIdentify(s.token), dst)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// ReceiveOne blocks for at most timeout waiting for one datagram. A
// timeout with no data is the normal quiet-cycle outcome and returns
// (nil, nil, nil); any other I/O error is loop-fatal.
func (s *Socket) ReceiveOne(timeout time.Duration) (*Message, *net.UDPAddr, error) {
	const op = "discovery.Socket.ReceiveOne"

	if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, nil, fmt.Errorf("%s: set read deadline: %w", op, err)
	}

	buf := make([]byte, 1024)
	n, src, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	msg := ParseDatagram(buf[:n])
	return &msg, src, nil
}

func (s *Socket) Close() error {
	return s.conn.Close()
}

// multicastInterface picks the first up, multicast-capable, non-loopback
// interface; nil lets the kernel choose.
func multicastInterface() *net.Interface {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		i := iface
		return &i
	}
	return nil
}
