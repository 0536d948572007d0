package cmd

import (
	"errors"
	"testing"
	"time"

	"github.com/sidekick64/sidekicknet/internal/netman"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
)

func TestLoadSettingsDefaults(t *testing.T) {
	ctx := newContext(t, runFlags, nil, "run")
	s, err := loadSettings(ctx)
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	def := netman.DefaultConfig()
	if s.Net.SKTPHost != "" || s.Net.DownloadHost != def.DownloadHost || s.Net.KeepAlive != def.KeepAlive {
		t.Errorf("expected the default config, got %+v", s.Net)
	}
	if s.DriveRoot != DEF_DRIVE_ROOT || s.LaunchDir != DEF_LAUNCH_DIR || s.LogLevel != DEF_LOG_LEVEL {
		t.Errorf("unexpected host settings %+v", s)
	}
	if tick != DEF_TICK {
		t.Errorf("expected tick %v, got %v", DEF_TICK, tick)
	}
}

const sampleConfig = `
variant = "264"
wlan = true
sktp_host = "sktp.example.org"
sktp_port = 8080
keepalive = "30s"
timesync_cron = "0 */6 * * *"
save_delay = 7
reboot_wait = "3s"
drive_root = "/srv/sd"
log_level = 3
`

func TestLoadConfigFile(t *testing.T) {
	p := writeFile(t, "sidekick.toml", sampleConfig)
	ctx := newContext(t, runFlags, []string{"--config", p}, "run")
	s, err := loadSettings(ctx)
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	c := s.Net
	if c.Variant != sktp.Variant264 || !c.WLAN {
		t.Errorf("variant/wlan not applied: %+v", c)
	}
	if c.SKTPHost != "sktp.example.org" || c.SKTPPort != 8080 {
		t.Errorf("server not applied: %s:%d", c.SKTPHost, c.SKTPPort)
	}
	if c.KeepAlive != 30*time.Second || c.RebootWait != 3*time.Second {
		t.Errorf("durations not applied: %v %v", c.KeepAlive, c.RebootWait)
	}
	if c.TimeSyncCron != "0 */6 * * *" || c.SaveDelay != 7 {
		t.Errorf("cron/delay not applied: %q %d", c.TimeSyncCron, c.SaveDelay)
	}
	if c.CartridgeSaveDelay != netman.DefaultConfig().CartridgeSaveDelay {
		t.Errorf("undefined keys must keep their defaults, got %d", c.CartridgeSaveDelay)
	}
	if s.DriveRoot != "/srv/sd" || s.LogLevel != 3 {
		t.Errorf("host settings not applied: %+v", s)
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	p := writeFile(t, "sidekick.toml", sampleConfig)
	ctx := newContext(t, runFlags, []string{
		"--config", p,
		"--sktp-host", "other.example.org",
		"--variant", "c64",
		"--drive-root", "/mnt/sd",
		"--webserver",
		"--web-port", "8081",
	}, "run")
	s, err := loadSettings(ctx)
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if s.Net.SKTPHost != "other.example.org" {
		t.Errorf("flag should win, got %q", s.Net.SKTPHost)
	}
	if s.Net.SKTPPort != 8080 {
		t.Errorf("file value should stay, got %d", s.Net.SKTPPort)
	}
	if s.Net.Variant != sktp.VariantC64 || s.DriveRoot != "/mnt/sd" {
		t.Errorf("flags not applied: %+v", s)
	}
	if !s.Net.WebserverEnabled || s.Net.WebserverPort != 8081 {
		t.Errorf("webserver flags not applied: %v %d", s.Net.WebserverEnabled, s.Net.WebserverPort)
	}
}

func TestLoadSettingsErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
		args   []string
		want   error
	}{
		{name: "port out of range", config: "sktp_port = 70000", want: ErrInvalidPort},
		{name: "unknown variant", config: `variant = "vic20"`, want: sktp.ErrUnknownVariant},
		{name: "poll limit", config: "poll_limit = 0", want: netman.ErrInvalidPollLimit},
		{name: "flag port", args: []string{"--sktp-port", "65536"}, want: ErrInvalidPort},
		{name: "flag variant", args: []string{"--variant", "pet"}, want: sktp.ErrUnknownVariant},
		{name: "unknown key", config: "sktp_hots = \"x\""},
		{name: "broken file", config: "sktp_host = "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if tt.config != "" {
				args = append([]string{"--config", writeFile(t, "bad.toml", tt.config)}, args...)
			}
			_, err := loadSettings(newContext(t, runFlags, args, "run"))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFetchFlagsIgnoreRunSettings(t *testing.T) {
	ctx := newContext(t, fetchFlags, []string{"--save", "--proxy", "socks5://127.0.0.1:1080"}, "fetch")
	s, err := loadSettings(ctx)
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if !saveFetched {
		t.Error("expected --save to be set")
	}
	if s.Proxy != "socks5://127.0.0.1:1080" {
		t.Errorf("unexpected proxy %q", s.Proxy)
	}
	if s.Net.SKTPHost != "" {
		t.Errorf("fetch must not pick up a screen server, got %q", s.Net.SKTPHost)
	}
}
