package chat

import (
	"time"

	"github.com/danmuck/peerline/internal/session"
)

type Config struct {
	Name        string
	ListenAddr  string
	ExitMessage string
	MetricsAddr string
	Debug       bool
	Session     session.Config
}

func DefaultConfig() Config {
	sess := session.DefaultConfig()
	sess.Node = "peerchat"
	sess.DialTimeout = 5 * time.Second
	return Config{
		Name:        "anon",
		ExitMessage: "peer is shutting down",
		Session:     sess,
	}
}
