package main

import (
	"fmt"
	"strconv"
	"time"
)

type Config struct {
	Host            string        `env:"HOST,default=0.0.0.0"`
	Port            int           `env:"PORT,default=1112"`
	WSPort          int           `env:"WS_PORT,default=0"`
	SendBufferSize  int           `env:"SEND_BUFFER_SIZE,default=64"`
	EventBufferSize int           `env:"EVENT_BUFFER_SIZE,default=256"`
	MaxFrameSize    int           `env:"MAX_FRAME_SIZE,default=1048576"`
	SendTimeout     time.Duration `env:"SEND_TIMEOUT,default=2s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
}

// applyArgs lets an optional positional port override PORT.
func (c *Config) applyArgs(args []string) error {
	switch len(args) {
	case 0:
	case 1:
		port, err := strconv.Atoi(args[0])
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("invalid port %q", args[0])
		}
		c.Port = port
	default:
		return fmt.Errorf("usage: server [port]")
	}
	return c.validate()
}

func (c *Config) validate() error {
	if c.SendBufferSize <= 0 || c.EventBufferSize <= 0 {
		return fmt.Errorf("SEND_BUFFER_SIZE and EVENT_BUFFER_SIZE must be positive")
	}
	if c.MaxFrameSize <= 0 {
		return fmt.Errorf("MAX_FRAME_SIZE must be positive, got %d", c.MaxFrameSize)
	}
	if c.SendTimeout <= 0 || c.WriteTimeout <= 0 {
		return fmt.Errorf("SEND_TIMEOUT and WRITE_TIMEOUT must be positive")
	}
	if c.WSPort != 0 && c.WSPort == c.Port {
		return fmt.Errorf("WS_PORT must differ from PORT (%d)", c.Port)
	}
	return nil
}

func (c *Config) tcpAddress() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }
func (c *Config) wsAddress() string  { return fmt.Sprintf("%s:%d", c.Host, c.WSPort) }
