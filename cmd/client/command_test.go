package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line     string
		expected command
	}{
		{line: "   ", expected: command{kind: cmdNone}},
		{line: "hello there", expected: command{kind: cmdSay, text: "hello there"}},
		{line: "/connect bob", expected: command{kind: cmdConnect, args: []string{"bob"}}},
		{line: "/group bob carol", expected: command{kind: cmdGroup, args: []string{"bob", "carol"}}},
		{line: "/WHO", expected: command{kind: cmdWho}},
		{line: "/q", expected: command{kind: cmdQuit}},
		{line: "/login alice", expected: command{kind: cmdLogin, args: []string{"alice"}}},
		{line: "/connect", expected: command{kind: cmdUnknown, text: "/connect"}},
		{line: "/dance", expected: command{kind: cmdUnknown, text: "/dance"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			require.New(t).Equal(tt.expected, parseCommand(tt.line))
		})
	}
}

func TestConfig_ApplyArgs(t *testing.T) {
	req := require.New(t)

	cfg := Config{ServerAddress: "127.0.0.1:1112", PollInterval: 50, CensorChar: "*", CensoredWords: "badger, ,snake"}
	req.NoError(cfg.applyArgs([]string{"ws://localhost:1113/ws", "alice"}))
	req.Equal("ws://localhost:1113/ws", cfg.ServerAddress)
	req.Equal("alice", cfg.Name)
	req.Equal([]string{"badger", "snake"}, cfg.censoredWords())

	missingName := Config{PollInterval: 50, CensorChar: "*"}
	req.Error(missingName.applyArgs([]string{"localhost:1112"}))

	badMask := Config{Name: "bob", PollInterval: 50, CensorChar: "**"}
	req.Error(badMask.applyArgs(nil))
}
