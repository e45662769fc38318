package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr        string        `yaml:"-"`
	Host        string        `yaml:"host"`
	Port        uint          `yaml:"port"`
	DBUrl       string        `yaml:"db_url"`
	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	ReceiptSalt string        `yaml:"receipt_salt"`
	Debug       bool          `yaml:"debug"`
}

// ParseFlags builds the configuration from an optional YAML file
// overridden by command-line flags.
func ParseFlags() (cfg Config, err error) {
	var file string
	flag.StringVar(&file, "config", "", "path to YAML config file")
	flag.StringVar(&cfg.Host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", 80, "listen port number (default 80)")
	flag.StringVar(&cfg.DBUrl, "db-url", "tipline.sqlite", "path to SQLite3 DB file (default tipline.sqlite)")
	flag.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for session token signing")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", 3600, "session token TTL in seconds (default 3600)")
	flag.StringVar(&cfg.ReceiptSalt, "receipt-salt", "", "salt for receipt hashing")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Port = port
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	if file != "" {
		set := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

		var fileCfg Config
		fileCfg, err = Load(file)
		if err != nil {
			return
		}
		cfg = merge(cfg, fileCfg, set)
	}

	cfg.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port)))

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	} else if cfg.ReceiptSalt == "" {
		err = errors.New("missing parameter -receipt-salt")
	}
	return
}

// Load reads a YAML config file.
func Load(path string) (cfg Config, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}
	err = yaml.Unmarshal(raw, &cfg)
	return
}

// merge fills settings from the file config; a flag the user passed on
// the command line keeps precedence over the file.
func merge(flags, file Config, set map[string]bool) Config {
	if !set["host"] && file.Host != "" {
		flags.Host = file.Host
	}
	if !set["port"] && file.Port != 0 {
		flags.Port = file.Port
	}
	if !set["db-url"] && file.DBUrl != "" {
		flags.DBUrl = file.DBUrl
	}
	if !set["token-secret"] && file.TokenSecret != "" {
		flags.TokenSecret = file.TokenSecret
	}
	if !set["token-ttl"] && file.TokenTTL != 0 {
		flags.TokenTTL = file.TokenTTL
	}
	if !set["receipt-salt"] && file.ReceiptSalt != "" {
		flags.ReceiptSalt = file.ReceiptSalt
	}
	if !set["debug"] && file.Debug {
		flags.Debug = true
	}
	return flags
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
