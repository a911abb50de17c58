package main

import "strings"

type commandKind int

const (
	cmdNone commandKind = iota
	cmdSay
	cmdLogin
	cmdConnect
	cmdGroup
	cmdWho
	cmdQuit
	cmdHelp
	cmdUnknown
)

type command struct {
	kind commandKind
	args []string
	text string
}

const helpText = "/connect <name> | /group <name> <name>... | /who | /login <name> | /quit | anything else is sent to your chat"

// parseCommand reads one line typed by the user. Lines starting with a
// slash are commands, anything else is chat text.
func parseCommand(line string) command {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return command{kind: cmdNone}
	}
	if !strings.HasPrefix(trimmed, "/") {
		return command{kind: cmdSay, text: line}
	}
	fields := strings.Fields(trimmed)
	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "/login":
		if len(args) == 1 {
			return command{kind: cmdLogin, args: args}
		}
	case "/connect":
		if len(args) == 1 {
			return command{kind: cmdConnect, args: args}
		}
	case "/group":
		if len(args) > 0 {
			return command{kind: cmdGroup, args: args}
		}
	case "/who":
		return command{kind: cmdWho}
	case "/quit", "/q":
		return command{kind: cmdQuit}
	case "/help":
		return command{kind: cmdHelp}
	}
	return command{kind: cmdUnknown, text: trimmed}
}
