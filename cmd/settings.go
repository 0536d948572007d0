package cmd

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sidekick64/sidekicknet/internal/netman"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
	"github.com/urfave/cli"
)

var ErrInvalidPort = errors.New("port out of range")

// settings is everything a command needs to build the network core.
type settings struct {
	Net       netman.Config
	DriveRoot string
	Proxy     string
	LaunchDir string
	Interface string
	BootBank  string
	LogLevel  int
}

// config file key mapping to settings.
type fileConfig struct {
	Variant            string        `toml:"variant"`
	WLAN               bool          `toml:"wlan"`
	ConnectOnBoot      bool          `toml:"connect_on_boot"`
	Hostname           string        `toml:"hostname"`
	Webserver          bool          `toml:"webserver"`
	WebserverPort      int           `toml:"webserver_port"`
	SKTPHost           string        `toml:"sktp_host"`
	SKTPPort           int           `toml:"sktp_port"`
	DownloadHost       string        `toml:"download_host"`
	DownloadPort       int           `toml:"download_port"`
	NTPHost            string        `toml:"ntp_host"`
	Drive              string        `toml:"drive"`
	PollLimit          int           `toml:"poll_limit"`
	KeepAlive          time.Duration `toml:"keepalive"`
	WebKeepAlive       time.Duration `toml:"web_keepalive"`
	KeepAlivePath      string        `toml:"keepalive_path"`
	TimeSyncCron       string        `toml:"timesync_cron"`
	TimeZone           int           `toml:"timezone"`
	SaveDelay          int           `toml:"save_delay"`
	CartridgeSaveDelay int           `toml:"cartridge_save_delay"`
	RebootWait         time.Duration `toml:"reboot_wait"`
	FramePath          string        `toml:"frame_path"`
	FrameCount         int           `toml:"frame_count"`

	DriveRoot string `toml:"drive_root"`
	Proxy     string `toml:"proxy"`
	LaunchDir string `toml:"launch_dir"`
	Interface string `toml:"interface"`
	BootBank  string `toml:"boot_bank"`
	LogLevel  int    `toml:"log_level"`
}

func port(v int) (uint16, error) {
	if v < 0 || v > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPort, v)
	}
	return uint16(v), nil
}

// loadConfigFile overlays the keys defined in the TOML file at path.
func loadConfigFile(path string, s *settings) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		return fmt.Errorf("load config: unknown key %q", keys[0].String())
	}
	c := &s.Net

	if meta.IsDefined("variant") {
		if c.Variant, err = sktp.ParseVariant(raw.Variant); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if meta.IsDefined("wlan") {
		c.WLAN = raw.WLAN
	}
	if meta.IsDefined("connect_on_boot") {
		c.ConnectOnBoot = raw.ConnectOnBoot
	}
	if meta.IsDefined("hostname") {
		c.Hostname = strings.TrimSpace(raw.Hostname)
	}
	if meta.IsDefined("webserver") {
		c.WebserverEnabled = raw.Webserver
	}
	if meta.IsDefined("webserver_port") {
		if c.WebserverPort, err = port(raw.WebserverPort); err != nil {
			return fmt.Errorf("load config: webserver_port: %w", err)
		}
	}
	if meta.IsDefined("sktp_host") {
		c.SKTPHost = strings.TrimSpace(raw.SKTPHost)
	}
	if meta.IsDefined("sktp_port") {
		if c.SKTPPort, err = port(raw.SKTPPort); err != nil {
			return fmt.Errorf("load config: sktp_port: %w", err)
		}
	}
	if meta.IsDefined("download_host") {
		c.DownloadHost = strings.TrimSpace(raw.DownloadHost)
	}
	if meta.IsDefined("download_port") {
		if c.DownloadPort, err = port(raw.DownloadPort); err != nil {
			return fmt.Errorf("load config: download_port: %w", err)
		}
	}
	if meta.IsDefined("ntp_host") {
		c.NTPHost = strings.TrimSpace(raw.NTPHost)
	}
	if meta.IsDefined("drive") {
		c.Drive = strings.TrimSpace(raw.Drive)
	}
	if meta.IsDefined("poll_limit") {
		c.PollLimit = raw.PollLimit
	}
	if meta.IsDefined("keepalive") {
		c.KeepAlive = raw.KeepAlive
	}
	if meta.IsDefined("web_keepalive") {
		c.WebKeepAlive = raw.WebKeepAlive
	}
	if meta.IsDefined("keepalive_path") {
		c.KeepAlivePath = raw.KeepAlivePath
	}
	if meta.IsDefined("timesync_cron") {
		c.TimeSyncCron = strings.TrimSpace(raw.TimeSyncCron)
	}
	if meta.IsDefined("timezone") {
		c.TimeZone = raw.TimeZone
	}
	if meta.IsDefined("save_delay") {
		c.SaveDelay = raw.SaveDelay
	}
	if meta.IsDefined("cartridge_save_delay") {
		c.CartridgeSaveDelay = raw.CartridgeSaveDelay
	}
	if meta.IsDefined("reboot_wait") {
		c.RebootWait = raw.RebootWait
	}
	if meta.IsDefined("frame_path") {
		c.FramePath = raw.FramePath
	}
	if meta.IsDefined("frame_count") {
		c.FrameCount = raw.FrameCount
	}

	if meta.IsDefined("drive_root") {
		s.DriveRoot = raw.DriveRoot
	}
	if meta.IsDefined("proxy") {
		s.Proxy = strings.TrimSpace(raw.Proxy)
	}
	if meta.IsDefined("launch_dir") {
		s.LaunchDir = raw.LaunchDir
	}
	if meta.IsDefined("interface") {
		s.Interface = strings.TrimSpace(raw.Interface)
	}
	if meta.IsDefined("boot_bank") {
		s.BootBank = raw.BootBank
	}
	if meta.IsDefined("log_level") {
		s.LogLevel = raw.LogLevel
	}
	return nil
}

// applyFlags overrides settings with the flags given on the command line
// or through their environment variables.
func applyFlags(ctx *cli.Context, s *settings) (err error) {
	c := &s.Net
	if ctx.IsSet("sktp-host") {
		c.SKTPHost = strings.TrimSpace(sktpHost)
	}
	if ctx.IsSet("sktp-port") {
		if c.SKTPPort, err = port(int(sktpPort)); err != nil {
			return fmt.Errorf("--sktp-port: %w", err)
		}
	}
	if ctx.IsSet("variant") {
		if c.Variant, err = sktp.ParseVariant(variantName); err != nil {
			return err
		}
	}
	if ctx.IsSet("wlan") {
		c.WLAN = wlan
	}
	if ctx.IsSet("connect-on-boot") {
		c.ConnectOnBoot = connectOnBoot
	}
	if ctx.IsSet("webserver") {
		c.WebserverEnabled = webEnabled
	}
	if ctx.IsSet("web-port") {
		if c.WebserverPort, err = port(int(webPort)); err != nil {
			return fmt.Errorf("--web-port: %w", err)
		}
	}
	if ctx.IsSet("drive-root") {
		s.DriveRoot = driveRoot
	}
	if ctx.IsSet("proxy") {
		s.Proxy = strings.TrimSpace(proxyURL)
	}
	if ctx.IsSet("launch-dir") {
		s.LaunchDir = launchDir
	}
	if ctx.IsSet("interface") {
		s.Interface = strings.TrimSpace(ifaceName)
	}
	if ctx.IsSet("boot-bank") {
		s.BootBank = bootBank
	}
	if ctx.IsSet("log-level") {
		s.LogLevel = logLevel
	}
	return nil
}

// loadSettings layers defaults, the config file and the flags.
func loadSettings(ctx *cli.Context) (settings, error) {
	s := settings{
		Net:       netman.DefaultConfig(),
		DriveRoot: DEF_DRIVE_ROOT,
		LaunchDir: DEF_LAUNCH_DIR,
		LogLevel:  DEF_LOG_LEVEL,
	}
	if configPath != "" {
		if err := loadConfigFile(configPath, &s); err != nil {
			return s, err
		}
	}
	if err := applyFlags(ctx, &s); err != nil {
		return s, err
	}
	return s, s.Net.Validate()
}
