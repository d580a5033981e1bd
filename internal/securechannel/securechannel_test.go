package securechannel

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestCA(t *testing.T) string {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "tlscope test ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ca-cert.pem")
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	require.NoError(t, pem.Encode(out, &pem.Block{Type: "CERTIFICATE", Bytes: der}))
	return path
}

func TestNew_LoadsTrustAnchor(t *testing.T) {
	caFile := writeTestCA(t)

	ctx, err := New(caFile)
	require.NoError(t, err)

	assert.Equal(t, caFile, ctx.TrustAnchorFile())

	conf := ctx.ClientConfig("peer.local")
	require.NotNil(t, conf)
	assert.Equal(t, "peer.local", conf.ServerName)
	assert.NotNil(t, conf.RootCAs)
}

func TestNew_MissingFileFatal(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.pem"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTrustAnchor)
}

func TestNew_GarbageFileFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca-cert.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a pem"), 0o644))

	_, err := New(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTrustAnchor)
}

func TestClientConfig_CloneIsolated(t *testing.T) {
	ctx, err := New(writeTestCA(t))
	require.NoError(t, err)

	a := ctx.ClientConfig("a.local")
	b := ctx.ClientConfig("b.local")

	a.ServerName = "mutated"
	assert.Equal(t, "b.local", b.ServerName)
}
