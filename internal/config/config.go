package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env       string          `yaml:"env" env-default:"local" env:"ENV"`
	Name      string          `yaml:"name" env:"NAME"`
	DataDir   string          `yaml:"data_dir" env-default:"data" env:"DATA_DIR"`
	PeerCache string          `yaml:"peer_cache" env-default:"data/peers.db" env:"PEER_CACHE"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	TLS       TLSConfig       `yaml:"tls"`
	Identity  IdentityConfig  `yaml:"identity"`
}

type DiscoveryConfig struct {
	MulticastGroup  string        `yaml:"multicast_group" env-default:"224.0.0.1" env:"MULTICAST_GROUP"`
	StartPort       int           `yaml:"start_port" env-default:"3000" env:"START_PORT"`
	TTL             int           `yaml:"ttl" env-default:"3"`
	ProbeInterval   time.Duration `yaml:"probe_interval" env-default:"1s"`
	ReceiveTimeout  time.Duration `yaml:"receive_timeout" env-default:"500ms"`
	PresenceTimeout time.Duration `yaml:"presence_timeout" env-default:"2s"`
	BindAttempts    int           `yaml:"bind_attempts" env-default:"100"`
}

type TLSConfig struct {
	CACertPath string `yaml:"ca_cert_path" env-default:"ca-cert.pem" env:"CA_CERT_PATH"`
}

// TokenMode controls whether the discovery token is derived fresh on every
// start (rotating) or derived once and reused from the user record (pinned).
type IdentityConfig struct {
	TokenMode string `yaml:"token_mode" env-default:"rotating" env:"TOKEN_MODE"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadConfig(configPath)
}

func MustLoadConfig(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

// Priority: flag > env > default.
// default value is empty string.
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}
	return res
}
