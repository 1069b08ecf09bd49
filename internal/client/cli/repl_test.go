package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeExec struct {
	loggedIn bool
	err      error

	calls []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error {
	f.calls = append(f.calls, "register")
	return f.err
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return f.err
}
func (f *fakeExec) Refresh(ctx context.Context) error {
	f.calls = append(f.calls, "refresh")
	return f.err
}
func (f *fakeExec) WhoAmI(ctx context.Context) error {
	f.calls = append(f.calls, "whoami")
	return f.err
}
func (f *fakeExec) Logout(ctx context.Context, all bool) error {
	f.calls = append(f.calls, fmt.Sprintf("logout all=%v", all))
	f.loggedIn = false
	return f.err
}

func capturePrint(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprint(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	capturePrint(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"register",
		"login",
		"help",
		"whoami",
		"refresh",
		"",
		"foobar",
		"logout all",
		"exit",
		"login",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewReader(input))

	want := []string{"register", "login", "whoami", "refresh", "logout all=true"}
	if strings.Join(exec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", exec.calls, want)
	}
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	capturePrint(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("logout")))

	if len(exec.calls) != 1 || exec.calls[0] != "logout all=false" {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}

func TestRunREPL_PrintsErrors(t *testing.T) {
	lines := capturePrint(t)

	exec := &fakeExec{err: status.Error(codes.Unauthenticated, "invalid credentials")}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("login\nquit\n")))

	found := false
	for _, l := range *lines {
		if strings.Contains(l, "Error:invalid credentials") {
			found = true
		}
	}
	if !found {
		t.Fatalf("error not printed, output: %v", *lines)
	}
}

func TestDescribe(t *testing.T) {
	if got := describe(status.Error(codes.NotFound, "user not found")); got != "user not found" {
		t.Fatalf("got %q", got)
	}
	if got := describe(errors.New("plain")); got != "plain" {
		t.Fatalf("got %q", got)
	}
}
