package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/peterh/liner"

	"groupchat/contract"
	"groupchat/domain"
)

const prompt = "chat> "

// REPL is a long-lived interactive session: many sends over one connection,
// async display of group traffic, local ":exit" that leaves the backend
// untouched. Deliveries arrive on broker goroutines and are buffered, then
// flushed between prompts so they never interleave with the line being typed.
type REPL struct {
	log     *slog.Logger
	session *Session
	out     io.Writer

	line        *liner.State
	historyPath string
	watched     map[string]contract.Subscription

	mu      sync.Mutex
	pending []string
}

func NewREPL(log *slog.Logger, session *Session, historyPath string) *REPL {
	return &REPL{
		log:         log,
		session:     session,
		out:         os.Stdout,
		historyPath: historyPath,
		watched:     make(map[string]contract.Subscription),
	}
}

// Run blocks until the user exits the loop. Input syntax:
//
//	hello world            send to the default group
//	@r0,r1 hello world     send to the named groups
//	:groups                show the backend's group table
//	:watch NAME            display traffic of another group
//	:exit                  leave (the backend keeps running)
func (r *REPL) Run(ctx context.Context) error {
	r.line = liner.NewLiner()
	defer r.line.Close()
	r.line.SetCtrlCAborts(true)

	r.loadHistory()
	defer r.saveHistory()
	defer r.unwatchAll()
	defer r.flushPending()

	if err := r.watch(domain.DefaultGroup); err != nil {
		return err
	}

	color.Cyan.Printf("Connected as session %s. Type :help for commands.\n", shortID(r.session.ID))

	for {
		if ctx.Err() != nil {
			return nil
		}
		r.flushPending()
		input, err := r.line.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		if done := r.handle(ctx, input); done {
			return nil
		}
	}
}

func (r *REPL) handle(ctx context.Context, input string) bool {
	switch {
	case input == ":exit" || input == ":quit":
		return true
	case input == ":help":
		r.printHelp()
	case input == ":groups":
		r.printGroups(ctx)
	case strings.HasPrefix(input, ":watch "):
		name := strings.TrimSpace(strings.TrimPrefix(input, ":watch "))
		if name == "" {
			color.Red.Println("usage: :watch GROUP")
			break
		}
		if err := r.watch(name); err != nil {
			color.Red.Printf("cannot watch %s: %v\n", name, err)
		}
	case strings.HasPrefix(input, ":"):
		color.Red.Printf("unknown command %s (:help lists commands)\n", input)
	default:
		r.send(ctx, input)
	}
	return false
}

// send parses the optional "@group,group" target prefix, submits the message
// and prints what was actually delivered.
func (r *REPL) send(ctx context.Context, input string) {
	var recipients []string
	body := input
	if strings.HasPrefix(input, "@") {
		targets, rest, _ := strings.Cut(input[1:], " ")
		recipients = strings.Split(targets, ",")
		body = strings.TrimSpace(rest)
	}
	if body == "" {
		color.Red.Println("empty message")
		return
	}

	conf, err := r.session.Send(ctx, recipients, body)
	if err != nil {
		color.Red.Printf("send failed: %v\n", err)
		return
	}

	// Watch every group we now belong to, so replies become visible.
	for _, g := range conf.Recipients {
		if err := r.watch(g); err != nil {
			r.log.Warn("Cannot watch group", "group", g, "error", err)
		}
	}
	color.Gray.Printf("delivered to %s\n", strings.Join(conf.Recipients, ", "))
}

func (r *REPL) printGroups(ctx context.Context) {
	status, err := r.session.Status(ctx)
	if err != nil {
		color.Red.Printf("status failed: %v\n", err)
		return
	}
	RenderStatus(r.out, status)
}

func (r *REPL) printHelp() {
	fmt.Println("  MESSAGE            send to the default group")
	fmt.Println("  @g1,g2 MESSAGE     send to the named groups")
	fmt.Println("  :groups            show the backend's group table")
	fmt.Println("  :watch GROUP       display that group's traffic here")
	fmt.Println("  :exit              leave this session (backend keeps running)")
}

// watch displays a group's traffic in this session. Own messages are skipped;
// the confirmation echo already covers them. The callback only buffers, it
// never writes to the terminal itself.
func (r *REPL) watch(group string) error {
	if _, ok := r.watched[group]; ok {
		return nil
	}
	sub, err := r.session.Watch(group, func(group string, d domain.Delivery) {
		if d.Sender == r.session.ID {
			return
		}
		line := fmt.Sprintf("[%s] %s %s: %s",
			color.Yellow.Sprint(group),
			d.SentAt.Local().Format(time.TimeOnly),
			color.Cyan.Sprint(shortID(d.Sender)),
			d.Body)
		r.mu.Lock()
		r.pending = append(r.pending, line)
		r.mu.Unlock()
	})
	if err != nil {
		return err
	}
	r.watched[group] = sub
	return nil
}

// flushPending prints the deliveries buffered since the previous prompt.
func (r *REPL) flushPending() {
	r.mu.Lock()
	lines := r.pending
	r.pending = nil
	r.mu.Unlock()
	for _, line := range lines {
		fmt.Fprintln(r.out, line)
	}
}

func (r *REPL) unwatchAll() {
	for group, sub := range r.watched {
		if err := sub.Unsubscribe(); err != nil {
			r.log.Warn("Unsubscribe failed", "group", group, "error", err)
		}
	}
	r.watched = make(map[string]contract.Subscription)
}

func (r *REPL) loadHistory() {
	if r.historyPath == "" {
		return
	}
	if f, err := os.Open(r.historyPath); err == nil {
		if _, err := r.line.ReadHistory(f); err != nil {
			r.log.Debug("Cannot read history", "error", err)
		}
		_ = f.Close()
	}
}

func (r *REPL) saveHistory() {
	if r.historyPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.historyPath), 0o755); err != nil {
		return
	}
	if f, err := os.Create(r.historyPath); err == nil {
		if _, err := r.line.WriteHistory(f); err != nil {
			r.log.Debug("Cannot write history", "error", err)
		}
		_ = f.Close()
	}
}

// RenderStatus prints the group table the backend answered with.
func RenderStatus(out io.Writer, status domain.StatusReply) {
	fmt.Fprintf(out, "backend instance %s\n", shortID(status.InstanceID))
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Group", "Members", "Delivered"})
	for _, g := range status.Groups {
		table.Append([]string{g.Name, fmt.Sprintf("%d", g.Members), fmt.Sprintf("%d", g.Delivered)})
	}
	table.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
