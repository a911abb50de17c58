package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

type Config struct {
	ServerAddress string        `env:"CHAT_SERVER_ADDR,default=127.0.0.1:1112"`
	Name          string        `env:"CHAT_NAME"`
	PollInterval  time.Duration `env:"POLL_INTERVAL,default=50ms"`
	CensoredWords string        `env:"CENSORED_WORDS"`
	CensorChar    string        `env:"CENSOR_CHARACTER,default=*"`
	Colours       bool          `env:"COLOURS,default=true"`
	MaxFrameSize  int           `env:"MAX_FRAME_SIZE,default=1048576"`
	LogLevel      string        `env:"LOG_LEVEL,default=WARN"`
}

// applyArgs reads "<address> <name>", either of which may come from the environment instead.
func (c *Config) applyArgs(args []string) error {
	if len(args) > 2 {
		return fmt.Errorf("usage: client <address> <name>")
	}
	if len(args) > 0 {
		c.ServerAddress = args[0]
	}
	if len(args) > 1 {
		c.Name = args[1]
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("a display name is required (argument or CHAT_NAME)")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	_, err := c.censorRune()
	return err
}

func (c *Config) censoredWords() []string {
	return lo.Compact(lo.Map(strings.Split(c.CensoredWords, ","), func(w string, _ int) string {
		return strings.TrimSpace(w)
	}))
}

func (c *Config) censorRune() (rune, error) {
	r := []rune(c.CensorChar)
	if len(r) != 1 {
		return 0, fmt.Errorf("CENSOR_CHARACTER must be a single character, got %q", c.CensorChar)
	}
	return r[0], nil
}
