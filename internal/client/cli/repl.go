package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	report(err error)

	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	Credits(ctx context.Context) error
	View(ctx context.Context, args []string) error
	Generate(ctx context.Context) error
	Refine(ctx context.Context, args []string) error
	Show(ctx context.Context) error
	Print(ctx context.Context) error
	Buy(ctx context.Context, args []string) error
}

const (
	helpSignedOut = "Available commands: login, help, exit"
	helpSignedIn  = "Available commands: view [resume|cover_letter], generate, refine <instruction>, show, print, profile, credits, buy <basic|popular|pro>, logout, help, exit"
)

// runREPL reads commands line by line from in and dispatches them to a.
// The prompt shows statusFn's output. Errors returned by handlers are passed
// to a.report, which turns them into notices. The loop exits on EOF, on
// "exit"/"quit", or when ctx is cancelled.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader, out io.Writer) {
	for ctx.Err() == nil {
		fmt.Fprintf(out, "ck (%s)> ", statusFn())
		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(out)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				fmt.Fprintln(out, helpSignedIn)
			} else {
				fmt.Fprintln(out, helpSignedOut)
			}
		case "login":
			a.report(a.Login(ctx))
		case "logout":
			a.report(a.Logout(ctx))
		case "profile":
			a.report(a.Profile(ctx))
		case "credits":
			a.report(a.Credits(ctx))
		case "view":
			a.report(a.View(ctx, args))
		case "resume", "letter":
			// Shortcuts for "view resume" and "view cover_letter".
			a.report(a.View(ctx, []string{cmd}))
		case "generate", "gen":
			a.report(a.Generate(ctx))
		case "refine":
			a.report(a.Refine(ctx, args))
		case "show":
			a.report(a.Show(ctx))
		case "print":
			a.report(a.Print(ctx))
		case "buy":
			a.report(a.Buy(ctx, args))
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}
	}
}
