package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ics-chat/client"
	"ics-chat/moderation"
	"ics-chat/protocol"
	"ics-chat/ui"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const (
	dialTimeout  = 10 * time.Second
	quitTimeout  = 2 * time.Second
	maxLineBytes = 64 * 1024
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.applyArgs(os.Args[1:]); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	mask, _ := config.censorRune()
	filter, err := moderation.NewFilter(config.censoredWords(), mask, log)
	if err != nil {
		return exitConfig, fmt.Errorf("censored words: %w", err)
	}
	term := ui.NewTerminal(os.Stdout, config.Colours, filter)
	machine := client.NewMachine(log, term)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Connect and log in
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	session, err := client.Dial(dialCtx, log, config.ServerAddress, config.MaxFrameSize, client.DefaultQueueSize)
	cancel()
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer session.Close()

	login, err := machine.Login(config.Name)
	if err != nil {
		return exitConfig, err
	}
	if err := session.Send(login); err != nil {
		return exitRuntime, fmt.Errorf("login failed: %w", err)
	}

	loop := &presentationLoop{log: log, machine: machine, session: session, term: term}
	return loop.run(ctx, readLines(os.Stdin), config.PollInterval)
}

type presentationLoop struct {
	log     *slog.Logger
	machine *client.Machine
	session *client.Session
	term    *ui.Terminal

	quitting bool
	deadline <-chan time.Time
}

func (l *presentationLoop) run(ctx context.Context, lines <-chan string, poll time.Duration) (int, error) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.quit()
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				l.quit()
				lines = nil
				continue
			}
			l.handle(parseCommand(line))
		case <-ticker.C:
			l.session.Drain(l.machine)
		case <-l.session.Done():
			if l.quitting {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection closed by server")
		case <-l.deadline:
			l.log.Warn("Server did not close the connection after quit")
			return exitOK, nil
		}
	}
}

func (l *presentationLoop) handle(cmd command) {
	var (
		env protocol.Envelope
		err error
	)
	switch cmd.kind {
	case cmdNone:
		return
	case cmdSay:
		env, err = l.machine.Say(cmd.text)
	case cmdLogin:
		env, err = l.machine.Login(cmd.args[0])
	case cmdConnect:
		env, err = l.machine.Connect(cmd.args[0])
	case cmdGroup:
		env, err = l.machine.CreateGroup(cmd.args)
	case cmdWho:
		env, err = l.machine.Who()
	case cmdQuit:
		l.quit()
		return
	case cmdHelp:
		l.term.Notice(helpText)
		return
	default:
		l.term.Notice(fmt.Sprintf("Unknown command %q, try /help", cmd.text))
		return
	}
	if err != nil {
		l.term.Notice(err.Error())
		return
	}
	if err := l.session.Send(env); err != nil {
		l.log.Warn("Failed to send", "action", env.Action, "error", err)
	}
}

// quit asks the server to end the session and waits a bounded time for it to close.
func (l *presentationLoop) quit() {
	if l.quitting {
		return
	}
	l.quitting = true
	if err := l.session.Send(l.machine.Quit()); err != nil {
		l.log.Debug("Quit not delivered", "error", err)
		_ = l.session.Close()
	}
	l.deadline = time.After(quitTimeout)
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}
