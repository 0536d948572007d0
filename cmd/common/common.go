// Package common holds the pieces shared by the sidekicknet commands:
// the fetch progress bar, usage error handling and help display.
package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// VersionCmdStr is printed by the version command. Execute fills it in
// from the build arguments.
var VersionCmdStr string

var (
	showAppHelpAndExit = cli.ShowAppHelpAndExit
	showCommandHelp    = cli.ShowCommandHelp
)

// InitBar adds a transfer bar for name to p. A total below one leaves
// the bar open; the caller completes it with SetTotal(-1, true).
func InitBar(p *mpb.Progress, name string, total int64) *mpb.Bar {
	if total < 1 {
		total = 0
	}
	bar := p.New(total,
		mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding(" ").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(name, decor.WCSyncSpaceR),
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO, decor.WCSyncSpace), "done"),
		),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
		),
	)
	bar.EnableTriggerComplete()
	return bar
}

// Help prints the app help, or the help of the command given as argument.
func Help(ctx *cli.Context) error {
	switch name := ctx.Args().First(); name {
	case "", "help":
		fmt.Printf("%s %s\n", ctx.App.Name, ctx.App.Version)
		showAppHelpAndExit(ctx, 0)
		return nil
	default:
		return showCommandHelp(ctx, name)
	}
}

// GetVersion prints VersionCmdStr.
func GetVersion(*cli.Context) error {
	fmt.Println(VersionCmdStr)
	return nil
}

// PrintRuntimeErr reports a failed step of a command as
// "<app>: <command>[<step>]: <err>". ctx may be nil.
func PrintRuntimeErr(ctx *cli.Context, cmd, step string, err error) {
	if err == nil {
		return
	}
	app := os.Args[0]
	if ctx != nil {
		app = ctx.App.HelpName
	}
	fmt.Printf("%s: %s[%s]: %v\n", app, cmd, step, err)
}

// PrintErrWithCmdHelp prints err and the help of the running command.
func PrintErrWithCmdHelp(ctx *cli.Context, err error) error {
	return usageError(ctx, err, func() {
		if herr := showCommandHelp(ctx, ctx.Command.Name); herr != nil {
			fmt.Println(herr)
		}
	})
}

// PrintErrWithHelp prints err and the app help, then exits with status 1.
func PrintErrWithHelp(ctx *cli.Context, err error) error {
	return usageError(ctx, err, func() { showAppHelpAndExit(ctx, 1) })
}

// usageError turns the flag package's help and version requests back into
// the matching command and prints anything else followed by help.
func usageError(ctx *cli.Context, err error, help func()) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case msg == "flag: help requested":
		return Help(ctx)
	case strings.HasSuffix(msg, "-version"), strings.HasSuffix(msg, "-v"):
		return GetVersion(ctx)
	}
	fmt.Printf("%s: %v\n\n", ctx.App.HelpName, err)
	help()
	return nil
}

// UsageErrorCallback is the OnUsageError handler of the app and its
// commands.
func UsageErrorCallback(ctx *cli.Context, err error, _ bool) error {
	if ctx.Command.Name == "" {
		return PrintErrWithHelp(ctx, err)
	}
	return PrintErrWithCmdHelp(ctx, err)
}

// SetShowAppHelpAndExit replaces the app help printer and returns the
// previous one.
func SetShowAppHelpAndExit(fn func(*cli.Context, int)) func(*cli.Context, int) {
	prev := showAppHelpAndExit
	showAppHelpAndExit = fn
	return prev
}

// SetShowCommandHelp replaces the command help printer and returns the
// previous one.
func SetShowCommandHelp(fn func(*cli.Context, string) error) func(*cli.Context, string) error {
	prev := showCommandHelp
	showCommandHelp = fn
	return prev
}
