// chat is the client CLI.
//
//	chat send RECIPIENTS MESSAGE...   one-shot send ("-" = default group)
//	chat repl                         interactive session
//	chat status                       show the backend's group table
//	chat exit                         ask the backend to terminate
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"

	"groupchat/client"
	"groupchat/internal"
	"groupchat/registry"
	"groupchat/transport"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	if len(args) == 0 {
		usage()
		return exitConfig, nil
	}
	verb := args[0]

	config, err := internal.Load()
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus, err := transport.ConnectNATS(config.BrokerURL, "chat-client", logger)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = bus.Close() }()

	store, err := registry.OpenNATSStore(ctx, bus.Conn())
	if err != nil {
		return exitRuntime, err
	}
	reg := registry.NewClient(store, logger, config.ResolveRetries, config.ResolveBackoff)

	session := client.NewSession(logger, bus, reg, config.ServiceName, config.ResponseTimeout)
	defer session.Close()

	switch verb {
	case "send":
		if len(args) < 3 {
			usage()
			return exitConfig, nil
		}
		return send(ctx, session, args[1], strings.Join(args[2:], " "))
	case "repl":
		if err := session.Open(ctx); err != nil {
			return exitRuntime, err
		}
		repl := client.NewREPL(logger, session, historyPath(config))
		if err := repl.Run(ctx); err != nil {
			return exitRuntime, err
		}
		return exitOK, nil
	case "status":
		if err := session.Open(ctx); err != nil {
			return exitRuntime, err
		}
		status, err := session.Status(ctx)
		if err != nil {
			return exitRuntime, err
		}
		client.RenderStatus(os.Stdout, status)
		return exitOK, nil
	case "exit":
		if err := session.Open(ctx); err != nil {
			return exitRuntime, err
		}
		// Fire and forget; the deferred Close flushes the publish.
		if err := session.Exit(); err != nil {
			return exitRuntime, err
		}
		fmt.Println("terminate sent")
		return exitOK, nil
	default:
		usage()
		return exitConfig, fmt.Errorf("unknown command %q", verb)
	}
}

func send(ctx context.Context, session *client.Session, targets, body string) (int, error) {
	if err := session.Open(ctx); err != nil {
		return exitRuntime, err
	}

	var recipients []string
	if targets != "-" {
		recipients = strings.Split(targets, ",")
	}

	// On ErrNoResponse the broadcast may still have gone out; retrying is the
	// operator's decision, so the error is surfaced as-is.
	conf, err := session.Send(ctx, recipients, body)
	if err != nil {
		return exitRuntime, err
	}

	color.Gray.Printf("delivered to %s\n", strings.Join(conf.Recipients, ", "))
	return exitOK, nil
}

func historyPath(config internal.Config) string {
	if config.HistoryFile != "" {
		return config.HistoryFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".groupchat_history")
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  chat send RECIPIENTS MESSAGE...   one-shot send (\"-\" = default group)")
	fmt.Fprintln(os.Stderr, "  chat repl                         interactive session")
	fmt.Fprintln(os.Stderr, "  chat status                       show the backend's group table")
	fmt.Fprintln(os.Stderr, "  chat exit                         ask the backend to terminate")
}
