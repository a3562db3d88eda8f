package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls    []string
	args     [][]string
	reported []error
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return nil
}

func (f *fakeExec) isLoggedIn(context.Context) bool { return f.loggedIn }
func (f *fakeExec) report(err error) {
	if err != nil {
		f.reported = append(f.reported, err)
	}
}
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login", nil)
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout", nil)
}
func (f *fakeExec) Profile(context.Context) error { return f.record("profile", nil) }
func (f *fakeExec) Credits(context.Context) error { return f.record("credits", nil) }
func (f *fakeExec) View(_ context.Context, args []string) error {
	return f.record("view", args)
}
func (f *fakeExec) Generate(context.Context) error { return errors.New("generate failed") }
func (f *fakeExec) Refine(_ context.Context, args []string) error {
	return f.record("refine", args)
}
func (f *fakeExec) Show(context.Context) error  { return f.record("show", nil) }
func (f *fakeExec) Print(context.Context) error { return f.record("print", nil) }
func (f *fakeExec) Buy(_ context.Context, args []string) error {
	return f.record("buy", args)
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	input := strings.Join([]string{
		"help",
		"login",
		"help",
		"",
		"view cover_letter",
		"letter",
		"generate",
		"refine make it   shorter",
		"show",
		"print",
		"profile",
		"credits",
		"buy pro",
		"foobar",
		"logout",
		"exit",
		"show",
	}, "\n")

	exec := &fakeExec{}
	var out bytes.Buffer
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewReader(strings.NewReader(input)), &out)

	assert.Equal(t, []string{"login", "view", "view", "refine", "show", "print", "profile", "credits", "buy", "logout"}, exec.calls)
	assert.Equal(t, []string{"cover_letter"}, exec.args[1])
	assert.Equal(t, []string{"letter"}, exec.args[2])
	assert.Equal(t, []string{"make", "it", "shorter"}, exec.args[3])
	assert.Len(t, exec.reported, 1, "handler errors go to report")

	text := out.String()
	assert.Contains(t, text, helpSignedOut)
	assert.Contains(t, text, helpSignedIn)
	assert.Contains(t, text, "Unknown command: foobar")
	assert.Contains(t, text, "ck (status)> ")
	assert.True(t, strings.HasSuffix(text, "Bye!\n"))
}

func TestRunREPL_StopsOnEOFAndCancel(t *testing.T) {
	exec := &fakeExec{}
	var out bytes.Buffer
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("show")), &out)
	assert.Equal(t, []string{"show"}, exec.calls, "last line without newline still runs")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec = &fakeExec{}
	runREPL(ctx, exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("show\n")), &out)
	assert.Empty(t, exec.calls)
}
