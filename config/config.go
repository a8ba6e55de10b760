// Package config loads runtime settings for cmd/radiotx from flags and
// environment variables, persisting the resolved values to a small JSON
// file so a second invocation without flags repeats the last run.
package config

import (
	"encoding/json"
	"flag"
	"os"
	"strconv"
)

// CLI holds the settings parsed for one run. It is the in-memory,
// ready-to-use form; Persistent is its on-disk counterpart.
type CLI struct {
	IIODURI           string
	StaticContextURI  string
	StaticContextDesc string
	MdnsTimeoutSec    int
	DatasetPath       string
	DatasetKind       string
	LogLevel          string
	LogFormat         string
	WebAddr           string
	HistoryLimit      int
	DumpPath          string
	SSHHost           string
	SSHUser           string
	SSHPassword       string
	SSHKeyPath        string
	SSHPort           int
}

// Persistent is the JSON-serializable subset of CLI saved between runs.
type Persistent struct {
	IIODURI           string `json:"iiod_uri"`
	StaticContextURI  string `json:"static_context_uri"`
	StaticContextDesc string `json:"static_context_desc"`
	MdnsTimeoutSec    int    `json:"mdns_timeout_sec"`
	DatasetPath       string `json:"dataset_path"`
	DatasetKind       string `json:"dataset_kind"`
	LogLevel          string `json:"log_level"`
	LogFormat         string `json:"log_format"`
	WebAddr           string `json:"web_addr"`
	HistoryLimit      int    `json:"history_limit"`
	DumpPath          string `json:"dump_path"`
	SSHHost           string `json:"ssh_host"`
	SSHUser           string `json:"ssh_user"`
	SSHPassword       string `json:"ssh_password"`
	SSHKeyPath        string `json:"ssh_key_path"`
	SSHPort           int    `json:"ssh_port"`
}

// Default returns the built-in defaults used when no config file and no
// overrides are present.
func Default() Persistent {
	return Persistent{
		IIODURI:        "",
		MdnsTimeoutSec: 3,
		DatasetKind:    "tuple",
		LogLevel:       "info",
		LogFormat:      "text",
		WebAddr:        ":8080",
		HistoryLimit:   500,
		SSHUser:        "root",
		SSHPort:        22,
	}
}

// Parse resolves a CLI from args, falling back to environment variables
// via lookup and then to defaults, in that precedence order (flags win
// over env, env wins over defaults).
func Parse(args []string, lookup func(string) (string, bool), defaults Persistent) (CLI, error) {
	cfg := CLI{}
	fs := flag.NewFlagSet("radiotx", flag.ContinueOnError)

	fs.StringVar(&cfg.IIODURI, "iiod-uri", envString(lookup, "RADIOTX_IIOD_URI", defaults.IIODURI), "Non-empty enables context discovery and streaming after the parse; the value itself is not dialed (contexts come from -static-context-uri, mDNS and the default-IP probe)")
	fs.StringVar(&cfg.StaticContextURI, "static-context-uri", envString(lookup, "RADIOTX_STATIC_CONTEXT_URI", defaults.StaticContextURI), "Static context URI to seed discovery with, in addition to mDNS and the default-IP probe")
	fs.StringVar(&cfg.StaticContextDesc, "static-context-desc", envString(lookup, "RADIOTX_STATIC_CONTEXT_DESC", defaults.StaticContextDesc), "Description string for -static-context-uri, used for variant matching")
	fs.IntVar(&cfg.MdnsTimeoutSec, "mdns-timeout", envInt(lookup, "RADIOTX_MDNS_TIMEOUT_SEC", defaults.MdnsTimeoutSec), "mDNS browse timeout in seconds (0 disables mDNS discovery)")
	fs.StringVar(&cfg.DatasetPath, "dataset-path", envString(lookup, "RADIOTX_DATASET_PATH", defaults.DatasetPath), "Path to the dataset file to parse")
	fs.StringVar(&cfg.DatasetKind, "dataset-kind", envString(lookup, "RADIOTX_DATASET_KIND", defaults.DatasetKind), "Dataset container format (tuple|hierarchical|tabular)")
	fs.StringVar(&cfg.LogLevel, "log-level", envString(lookup, "RADIOTX_LOG_LEVEL", defaults.LogLevel), "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.LogFormat, "log-format", envString(lookup, "RADIOTX_LOG_FORMAT", defaults.LogFormat), "Log format (text|json)")
	fs.StringVar(&cfg.WebAddr, "web-addr", envString(lookup, "RADIOTX_WEB_ADDR", defaults.WebAddr), "Telemetry HTTP listen address, blank disables the web server")
	fs.IntVar(&cfg.HistoryLimit, "history-limit", envInt(lookup, "RADIOTX_HISTORY_LIMIT", defaults.HistoryLimit), "Maximum telemetry samples retained in history")
	fs.StringVar(&cfg.DumpPath, "dump-path", envString(lookup, "RADIOTX_DUMP_PATH", defaults.DumpPath), "Optional IQ dump file path for the first two frames of a streaming session")
	fs.StringVar(&cfg.SSHHost, "ssh-host", envString(lookup, "RADIOTX_SSH_HOST", defaults.SSHHost), "SSH fallback host for attribute writes IIOD rejects, blank disables the fallback")
	fs.StringVar(&cfg.SSHUser, "ssh-user", envString(lookup, "RADIOTX_SSH_USER", defaults.SSHUser), "SSH fallback user")
	fs.StringVar(&cfg.SSHPassword, "ssh-password", envString(lookup, "RADIOTX_SSH_PASSWORD", defaults.SSHPassword), "SSH fallback password")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key-path", envString(lookup, "RADIOTX_SSH_KEY_PATH", defaults.SSHKeyPath), "SSH fallback private key path")
	fs.IntVar(&cfg.SSHPort, "ssh-port", envInt(lookup, "RADIOTX_SSH_PORT", defaults.SSHPort), "SSH fallback port")

	if err := fs.Parse(args); err != nil {
		return CLI{}, err
	}
	return cfg, nil
}

// ToPersistent projects a CLI down to its JSON-serializable fields.
func ToPersistent(cfg CLI) Persistent {
	return Persistent{
		IIODURI:           cfg.IIODURI,
		StaticContextURI:  cfg.StaticContextURI,
		StaticContextDesc: cfg.StaticContextDesc,
		MdnsTimeoutSec:    cfg.MdnsTimeoutSec,
		DatasetPath:       cfg.DatasetPath,
		DatasetKind:       cfg.DatasetKind,
		LogLevel:          cfg.LogLevel,
		LogFormat:         cfg.LogFormat,
		WebAddr:           cfg.WebAddr,
		HistoryLimit:      cfg.HistoryLimit,
		DumpPath:          cfg.DumpPath,
		SSHHost:           cfg.SSHHost,
		SSHUser:           cfg.SSHUser,
		SSHPassword:       cfg.SSHPassword,
		SSHKeyPath:        cfg.SSHKeyPath,
		SSHPort:           cfg.SSHPort,
	}
}

// LoadOrCreate reads path's persisted config, creating it with Default
// values if it doesn't yet exist.
func LoadOrCreate(path string) (Persistent, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if saveErr := Save(path, cfg); saveErr != nil {
				return Persistent{}, saveErr
			}
			return cfg, nil
		}
		return Persistent{}, err
	}
	defer f.Close()

	var cfg Persistent
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return Persistent{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON.
func Save(path string, cfg Persistent) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func envString(lookup func(string) (string, bool), key, def string) string {
	if val, ok := lookup(key); ok {
		return val
	}
	return def
}

func envInt(lookup func(string) (string, bool), key string, def int) int {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
