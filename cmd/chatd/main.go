// chatd runs the chat backend: it claims the service name in the registry,
// listens on its inbound command topic and blocks until a Terminate command
// or an OS signal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"

	"groupchat/internal"
	"groupchat/registry"
	"groupchat/runtime"
	"groupchat/runtime/workers"
	"groupchat/transport"
)

// Exit codes to provide meaningful status to the operating system or service
// manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// Thin wrapper: run() does the work, main handles the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatd terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	config, err := internal.Load()
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus, err := transport.ConnectNATS(config.BrokerURL, config.ServiceName, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		logger.Info("Closing broker connection...")
		_ = bus.Close()
	}()

	store, err := registry.OpenNATSStore(ctx, bus.Conn())
	if err != nil {
		return exitRuntime, err
	}
	reg := registry.NewClient(store, logger, config.ResolveRetries, config.ResolveBackoff)

	actor := runtime.NewActor(logger, bus, reg, config.ServiceName, config.BufferSize, config.DrainWindow)

	// Any Starting failure is fatal: subscription trouble or another instance
	// already holding the service name.
	if err := actor.Start(ctx); err != nil {
		return exitRuntime, err
	}

	heartbeat := workers.NewRegistryHeartbeat(
		logger, reg, config.ServiceName, actor.Registration, config.HeartbeatInterval)

	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(actor, heartbeat)

	// Once the actor reaches Stopped, take the heartbeat down with it.
	go func() {
		<-actor.Done()
		sup.Stop()
	}()

	sup.Run(ctx)
	return exitOK, nil
}
