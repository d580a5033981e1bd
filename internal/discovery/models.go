package discovery

import "time"

const (
	DefaultMulticastGroup  = "224.0.0.1"
	DefaultStartPort       = 3000
	DefaultTTL             = 3
	DefaultProbeInterval   = 1 * time.Second
	DefaultReceiveTimeout  = 500 * time.Millisecond
	DefaultPresenceTimeout = 2 * time.Second
	DefaultBindAttempts    = 100
)

type Config struct {
	MulticastGroup  string
	StartPort       int
	TTL             int
	ProbeInterval   time.Duration
	ReceiveTimeout  time.Duration
	PresenceTimeout time.Duration
	BindAttempts    int
}

func (c Config) withDefaults() Config {
	if c.MulticastGroup == "" {
		c.MulticastGroup = DefaultMulticastGroup
	}
	if c.StartPort == 0 {
		c.StartPort = DefaultStartPort
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.ProbeInterval == 0 {
		c.ProbeInterval = DefaultProbeInterval
	}
	if c.ReceiveTimeout == 0 {
		c.ReceiveTimeout = DefaultReceiveTimeout
	}
	if c.PresenceTimeout == 0 {
		c.PresenceTimeout = DefaultPresenceTimeout
	}
	if c.BindAttempts == 0 {
		c.BindAttempts = DefaultBindAttempts
	}
	return c
}
