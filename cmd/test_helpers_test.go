package cmd

import (
	"bytes"
	"flag"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/sidekick64/sidekicknet/cmd/common"
	"github.com/urfave/cli"
)

// captureOutput returns what f writes to stdout.
func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	f()

	w.Close()
	os.Stdout = old
	out := <-done
	r.Close()
	return out
}

// assertContains checks if output contains the expected substring.
func assertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// newContext parses args against flags the way the command would.
func newContext(t *testing.T, flags []cli.Flag, args []string, name string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	for _, f := range flags {
		f.Apply(set)
	}
	if err := set.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	app := cli.NewApp()
	app.Name = "sidekicknet"
	app.HelpName = "sidekicknet"
	ctx := cli.NewContext(app, set, nil)
	ctx.Command = cli.Command{Name: name, Flags: flags}
	return ctx
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := t.TempDir() + "/" + name
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// stubCommandHelp silences command help and returns the restore func.
func stubCommandHelp() func() {
	prev := common.SetShowCommandHelp(func(*cli.Context, string) error { return nil })
	return func() { common.SetShowCommandHelp(prev) }
}
