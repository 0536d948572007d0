package cmd

import "time"

const (
	DEF_TICK            = 20 * time.Millisecond
	DEF_LAUNCH_DIR      = "launch"
	DEF_DRIVE_ROOT      = "."
	DEF_REFRESH_TIMEOUT = 50
	DEF_LOG_LEVEL       = 2
)

const DESCRIPTION = `
sidekicknet is the network core of the Sidekick64 cartridge running
on a regular host. It connects to an SKTP screen server, streams the
remote text screen to your terminal, forwards your keys and fetches
the programs the server points at.
`

const (
	RunDescription = `The run command brings the network up and starts the
SKTP screen. Type keys and press enter to send them; an
empty line sends RETURN and tokens like <f1> or <del> send
special keys. Launchable downloads are written to the launch
directory, saved files go below the drive root.

Example:
        sidekicknet --sktp-host sktp.example.org
					OR
        sidekicknet run -c sidekick.toml

`
	DecodeDescription = `The decode command reads a captured SKTP response from
a file and prints what it asks the screen to do: the chunks
of a screen update or the download it announces.

Example:
        sidekicknet decode response.bin

`
	FetchDescription = `The fetch command downloads a c64 file through the same
download lifecycle the screen uses and writes the launch
image to the current directory. With --save the raw file
is also stored on the drive.

Example:
        sidekicknet fetch https://csdb.dk/getinternalfile.php/1234/game.prg

`
)

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}[arguments...]{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`
