package cmd

import (
	"fmt"
	"runtime"

	"github.com/sidekick64/sidekicknet/cmd/common"
	"github.com/urfave/cli"
)

// BuildArgs carries the values stamped in at build time.
type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

func Execute(args []string, bArgs BuildArgs) error {
	app := cli.App{
		Name:                  "sidekicknet",
		HelpName:              "sidekicknet",
		Usage:                 "Sidekick64 network core.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "sidekicknet <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Commands: []cli.Command{
			{
				Name:               "run",
				Aliases:            []string{"r"},
				Usage:              "connect and browse the SKTP screen",
				Description:        RunDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             run,
				Flags:              runFlags,
			},
			{
				Name:                   "decode",
				Aliases:                []string{"d"},
				Usage:                  "decode a captured SKTP response",
				Description:            DecodeDescription,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				OnUsageError:           common.UsageErrorCallback,
				Action:                 decode,
				Flags:                  decodeFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:                   "fetch",
				Aliases:                []string{"f"},
				Usage:                  "download a c64 file and prepare it for launch",
				Description:            FetchDescription,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				OnUsageError:           common.UsageErrorCallback,
				Action:                 fetch,
				Flags:                  fetchFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:               "help",
				Aliases:            []string{"h"},
				Usage:              "prints the help message",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of sidekicknet",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:                 run,
		Flags:                  runFlags,
		UseShortOptionHandling: true,
		HideHelp:               true,
		HideVersion:            true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
