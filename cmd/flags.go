package cmd

import (
	"time"

	"github.com/sidekick64/sidekicknet/common"
	"github.com/urfave/cli"
)

var (
	configPath    string
	sktpHost      string
	sktpPort      uint
	variantName   string
	driveRoot     string
	proxyURL      string
	logLevel      int
	ifaceName     string
	wlan          bool
	connectOnBoot bool
	webEnabled    bool
	webPort       uint
	tick          time.Duration
	launchDir     string
	bootBank      string
	noPreview     bool
	saveFetched   bool

	configFlag = cli.StringFlag{
		Name:        "config, c",
		Usage:       "read settings from this TOML file",
		EnvVar:      common.ConfigPathEnv,
		Destination: &configPath,
	}
	logLevelFlag = cli.IntFlag{
		Name:        "log-level",
		Usage:       "0 errors, 1 warnings, 2 info, 3 debug",
		Value:       DEF_LOG_LEVEL,
		EnvVar:      common.LogLevelEnv,
		Destination: &logLevel,
	}
	variantFlag = cli.StringFlag{
		Name:        "variant",
		Usage:       "hardware variant, c64 or 264",
		EnvVar:      common.VariantEnv,
		Destination: &variantName,
	}
	proxyFlag = cli.StringFlag{
		Name:        "proxy",
		Usage:       "http, https or socks5 proxy url",
		EnvVar:      common.ProxyEnv,
		Destination: &proxyURL,
	}
	driveRootFlag = cli.StringFlag{
		Name:        "drive-root",
		Usage:       "host directory backing the SD: drive",
		Value:       DEF_DRIVE_ROOT,
		EnvVar:      common.DriveRootEnv,
		Destination: &driveRoot,
	}

	runFlags = []cli.Flag{
		configFlag,
		cli.StringFlag{
			Name:        "sktp-host",
			Usage:       "SKTP screen server host name",
			EnvVar:      common.SktpHostEnv,
			Destination: &sktpHost,
		},
		cli.UintFlag{
			Name:        "sktp-port",
			Usage:       "SKTP screen server port",
			EnvVar:      common.SktpPortEnv,
			Destination: &sktpPort,
		},
		variantFlag,
		driveRootFlag,
		proxyFlag,
		logLevelFlag,
		cli.StringFlag{
			Name:        "interface, i",
			Usage:       "network interface to wait for (first usable one if empty)",
			Destination: &ifaceName,
		},
		cli.BoolFlag{
			Name:        "wlan",
			Usage:       "treat the link as wireless",
			Destination: &wlan,
		},
		cli.BoolFlag{
			Name:        "connect-on-boot",
			Usage:       "connect before the first tick",
			Destination: &connectOnBoot,
		},
		cli.BoolFlag{
			Name:        "webserver",
			Usage:       "accept uploads over http",
			Destination: &webEnabled,
		},
		cli.UintFlag{
			Name:        "web-port",
			Usage:       "port of the upload webserver",
			Destination: &webPort,
		},
		cli.DurationFlag{
			Name:        "tick",
			Usage:       "interval between two ticks of the network core",
			Value:       DEF_TICK,
			Destination: &tick,
		},
		cli.StringFlag{
			Name:        "launch-dir",
			Usage:       "directory receiving launchable images",
			Value:       DEF_LAUNCH_DIR,
			Destination: &launchDir,
		},
		cli.StringFlag{
			Name:        "boot-bank",
			Usage:       "EasyFlash boot bank used when wrapping d64 images",
			Destination: &bootBank,
		},
		cli.BoolFlag{
			Name:        "no-preview",
			Usage:       "do not draw the remote screen",
			Destination: &noPreview,
		},
	}

	fetchFlags = []cli.Flag{
		configFlag,
		variantFlag,
		driveRootFlag,
		proxyFlag,
		logLevelFlag,
		cli.BoolFlag{
			Name:        "save, s",
			Usage:       "also store the file on the drive",
			Destination: &saveFetched,
		},
	}
)
