package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/peerline/internal/chat"
)

type fileConfig struct {
	Name            string `toml:"name"`
	ListenAddr      string `toml:"listen_addr"`
	ExitMessage     string `toml:"exit_message"`
	MetricsAddr     string `toml:"metrics_addr"`
	Debug           bool   `toml:"debug"`
	MaxPeers        int    `toml:"max_peers"`
	DialTimeout     string `toml:"dial_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	MaxPayloadBytes int64  `toml:"max_payload_bytes"`
}

func loadConfig(path string) (chat.Config, error) {
	cfg := chat.DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return chat.Config{}, fmt.Errorf("load peerchat config: %w", err)
	}

	if meta.IsDefined("name") {
		if name := strings.TrimSpace(raw.Name); name != "" {
			cfg.Name = name
		}
	}

	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}

	if meta.IsDefined("exit_message") {
		cfg.ExitMessage = raw.ExitMessage
	}

	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	if meta.IsDefined("debug") {
		cfg.Debug = raw.Debug
	}

	if meta.IsDefined("max_peers") {
		if raw.MaxPeers < 0 {
			return chat.Config{}, fmt.Errorf("max_peers must be >= 0, got %d", raw.MaxPeers)
		}
		cfg.Session.MaxSessions = raw.MaxPeers
	}

	if meta.IsDefined("dial_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.DialTimeout))
		if err != nil {
			return chat.Config{}, fmt.Errorf("parse dial_timeout: %w", err)
		}
		cfg.Session.DialTimeout = d
	}

	if meta.IsDefined("write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WriteTimeout))
		if err != nil {
			return chat.Config{}, fmt.Errorf("parse write_timeout: %w", err)
		}
		cfg.Session.WriteTimeout = d
	}

	if meta.IsDefined("max_payload_bytes") {
		if raw.MaxPayloadBytes <= 0 || raw.MaxPayloadBytes > 1<<31 {
			return chat.Config{}, fmt.Errorf("max_payload_bytes out of range: %d", raw.MaxPayloadBytes)
		}
		cfg.Session.Limits.MaxPayloadBytes = uint32(raw.MaxPayloadBytes)
	}

	return cfg, nil
}
