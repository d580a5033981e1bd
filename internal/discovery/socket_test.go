package discovery

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// freePortRun finds n consecutive free udp4 ports and returns the first.
func freePortRun(t *testing.T, n int) int {
	t.Helper()

	for base := 42000; base < 60000; base += n {
		conns := make([]*net.UDPConn, 0, n)
		ok := true
		for p := base; p < base+n; p++ {
			c, err := net.ListenUDP("udp4", &net.UDPAddr{Port: p})
			if err != nil {
				ok = false
				break
			}
			conns = append(conns, c)
		}
		for _, c := range conns {
			c.Close()
		}
		if ok {
			return base
		}
	}
	t.Fatal("no consecutive free port run found")
	return 0
}

func occupy(t *testing.T, port int) *net.UDPConn {
	t.Helper()

	c, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestBind_SkipsOccupiedPorts(t *testing.T) {
	base := freePortRun(t, 3)
	occupy(t, base)
	occupy(t, base+1)

	sock, err := Bind(Config{StartPort: base}, "tok", discardLogger())
	require.NoError(t, err)
	defer sock.Close()

	assert.Equal(t, base+2, sock.Port())
	assert.Equal(t, base+2, sock.LocalAddr().Port)
}

func TestBind_BudgetExhausted(t *testing.T) {
	base := freePortRun(t, 2)
	occupy(t, base)
	occupy(t, base+1)

	_, err := Bind(Config{StartPort: base, BindAttempts: 2}, "tok", discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBindExhausted)
}

func TestBind_RejectsNonMulticastGroup(t *testing.T) {
	tests := []struct {
		name  string
		group string
	}{
		{name: "Unicast address", group: "192.168.1.1"},
		{name: "Garbage", group: "not-an-ip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bind(Config{MulticastGroup: tt.group, StartPort: freePortRun(t, 1)}, "tok", discardLogger())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidGroup)
		})
	}
}

func TestSocket_ReceiveOne_TimeoutIsNotAnError(t *testing.T) {
	sock, err := Bind(Config{StartPort: freePortRun(t, 1)}, "tok", discardLogger())
	require.NoError(t, err)
	defer sock.Close()

	msg, src, err := sock.ReceiveOne(50 * time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.Nil(t, src)
}

func TestSocket_SendIdentifyRoundTrip(t *testing.T) {
	sock, err := Bind(Config{StartPort: freePortRun(t, 1)}, "salt:hash", discardLogger())
	require.NoError(t, err)
	defer sock.Close()

	peer, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer peer.Close()

	_, err = sock.SendIdentify(peer.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)

	require.NoError(t, peer.SetReadDeadline(time.Now().Add(time.Second)))
	buf := make([]byte, 1024)
	n, _, err := peer.ReadFromUDP(buf)
	require.NoError(t, err)

	msg := ParseDatagram(buf[:n])
	assert.Equal(t, KindIdentify, msg.Kind)
	assert.Equal(t, "salt:hash", msg.Token)
}

func TestSocket_ReceiveParsesUnicastProbe(t *testing.T) {
	sock, err := Bind(Config{StartPort: freePortRun(t, 1)}, "tok", discardLogger())
	require.NoError(t, err)
	defer sock.Close()

	peer, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer peer.Close()

	_, err = peer.WriteToUDP(EncodeProbe(), &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: sock.Port()})
	require.NoError(t, err)

	msg, src, err := sock.ReceiveOne(time.Second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, KindProbe, msg.Kind)
	assert.Equal(t, peer.LocalAddr().(*net.UDPAddr).Port, src.Port)
}
