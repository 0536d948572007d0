package netman

import (
	"errors"
	"fmt"
	"time"

	"github.com/sidekick64/sidekicknet/common"
	"github.com/sidekick64/sidekicknet/internal/timesync"
	"github.com/sidekick64/sidekicknet/pkg/remote"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
)

// Default configuration values.
const (
	DefaultDownloadHost   = "csdb.dk"
	DefaultDownloadPort   = remote.HTTPSPort
	DefaultWebserverPort  = 80
	DefaultPollQuantum    = 100 * time.Millisecond
	DefaultPollLimit      = 100
	DefaultWLANPollFactor = 10
	DefaultKeepAlive      = 10 * time.Second
	DefaultWebKeepAlive   = time.Second
	DefaultKeepAlivePath  = "/givemea404response.html"
	DefaultRebootWait     = 5 * time.Second
	DefaultFramePath      = "/c64frames/big_buck_bunny_%05d.bin"
	DefaultFrameCount     = 1500
	DefaultTimeZone       = 60
	DefaultTimeSyncTries  = 3
	NetRAMPath            = "/getNetRam.php"
)

var (
	ErrInvalidPollLimit = errors.New("netman: poll limit must be positive")
	ErrInvalidFrames    = errors.New("netman: frame count must be positive")
)

// Config holds every tunable of the network core.
type Config struct {
	Variant       sktp.Variant
	WLAN          bool
	ConnectOnBoot bool
	Hostname      string

	WebserverEnabled bool
	WebserverPort    uint16

	// SKTPHost is the screen server. Empty disables the SKTP screen.
	SKTPHost string
	// SKTPPort defaults to 80. Zero with a host set also means 80.
	SKTPPort uint16

	DownloadHost string
	DownloadPort uint16
	NTPHost      string
	Drive        string

	PollQuantum    time.Duration
	PollLimit      int
	WLANPollFactor int

	// KeepAlive is the keep-alive interval, WebKeepAlive the interval
	// while the webserver runs.
	KeepAlive     time.Duration
	WebKeepAlive  time.Duration
	KeepAlivePath string

	// TimeSyncCron re-syncs the clock on a cron schedule. Empty disables it.
	TimeSyncCron  string
	TimeSyncTries int
	// TimeZone is the offset from UTC in minutes.
	TimeZone int

	SaveDelay          int
	CartridgeSaveDelay int
	RebootWait         time.Duration

	FramePath  string
	FrameCount int
}

// DefaultConfig returns the stock device configuration.
func DefaultConfig() Config {
	return Config{
		Variant:            sktp.VariantC64,
		Hostname:           common.DefaultHostname,
		WebserverPort:      DefaultWebserverPort,
		SKTPPort:           remote.HTTPPort,
		DownloadHost:       DefaultDownloadHost,
		DownloadPort:       DefaultDownloadPort,
		NTPHost:            timesync.DefaultHost,
		Drive:              sktp.DefaultDrive,
		PollQuantum:        DefaultPollQuantum,
		PollLimit:          DefaultPollLimit,
		WLANPollFactor:     DefaultWLANPollFactor,
		KeepAlive:          DefaultKeepAlive,
		WebKeepAlive:       DefaultWebKeepAlive,
		KeepAlivePath:      DefaultKeepAlivePath,
		TimeSyncTries:      DefaultTimeSyncTries,
		TimeZone:           DefaultTimeZone,
		SaveDelay:          5,
		CartridgeSaveDelay: 15,
		RebootWait:         DefaultRebootWait,
		FramePath:          DefaultFramePath,
		FrameCount:         DefaultFrameCount,
	}
}

// Validate checks the values that cannot be defaulted.
func (c Config) Validate() error {
	if c.PollLimit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPollLimit, c.PollLimit)
	}
	if c.FrameCount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFrames, c.FrameCount)
	}
	return nil
}

// pollCeiling is the number of link polls before bring-up gives up.
func (c Config) pollCeiling() int {
	if c.WLAN && c.WLANPollFactor > 0 {
		return c.PollLimit * c.WLANPollFactor
	}
	return c.PollLimit
}

func (c Config) keepAliveInterval() time.Duration {
	if c.WebserverEnabled {
		return c.WebKeepAlive
	}
	return c.KeepAlive
}

func (c Config) sktpPort() uint16 {
	if c.SKTPPort == 0 {
		return remote.HTTPPort
	}
	return c.SKTPPort
}
