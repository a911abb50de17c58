package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ics-chat/domain/chat"
	"ics-chat/runtime"
	"ics-chat/runtime/workers"
	"ics-chat/transport"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
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
	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Listeners
	tcp, err := transport.ListenTCP(config.tcpAddress())
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.tcpAddress(), err)
	}
	listeners := []transport.Listener{tcp}
	if config.WSPort != 0 {
		ws, err := transport.ListenWebSocket(config.wsAddress(), transport.DefaultWebSocketPath)
		if err != nil {
			_ = tcp.Close()
			return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.wsAddress(), err)
		}
		listeners = append(listeners, ws)
	}

	// 3. Session engine
	router := runtime.NewRouter(logger, runtime.NewSessionRegistry(), chat.NewDirectory())
	mux := runtime.NewMultiplexer(logger, runtime.Config{
		SendBufferSize:  config.SendBufferSize,
		EventBufferSize: config.EventBufferSize,
		MaxFrameSize:    config.MaxFrameSize,
		SendTimeout:     config.SendTimeout,
		WriteTimeout:    config.WriteTimeout,
	}, router, listeners...)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(workers.NewHeartbeatWorker(logger, mux, config.MetricInterval))
	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 6. Serve until a signal or a listener failure
	logger.Info("Starting chat server", "tcp", config.tcpAddress(), "ws_port", config.WSPort)
	err = mux.Run(ctx)
	sup.Stop()
	<-supDone
	if err != nil {
		return exitRuntime, err
	}
	logger.Info("Program stopped cleanly")
	return exitOK, nil
}
