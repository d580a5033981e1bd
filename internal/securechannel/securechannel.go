package securechannel

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Context holds the client-role TLS configuration with the trust anchor
// preloaded. No handshake is performed here; the context is a prerequisite
// for a future encrypted session.
type Context struct {
	conf   *tls.Config
	caFile string
}

// New constructs the TLS context and loads the trust anchor. Both steps
// are mandatory; the caller treats failure as fatal at startup.
func New(caFile string) (*Context, error) {
	const op = "securechannel.New"

	pemData, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: read %s: %w", op, ErrTrustAnchor, caFile, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemData) {
		return nil, fmt.Errorf("%s: %w: no certificates in %s", op, ErrTrustAnchor, caFile)
	}

	return &Context{
		conf: &tls.Config{
			RootCAs:    pool,
			MinVersion: tls.VersionTLS12,
		},
		caFile: caFile,
	}, nil
}

// ClientConfig returns a per-session clone so callers cannot mutate the
// shared trust context.
func (c *Context) ClientConfig(serverName string) *tls.Config {
	conf := c.conf.Clone()
	conf.ServerName = serverName
	return conf
}

func (c *Context) TrustAnchorFile() string {
	return c.caFile
}
