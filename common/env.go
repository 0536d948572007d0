// Package common provides shared types, constants and error kinds used across
// the sidekicknet core, its webserver and the command line front end.
package common

// Environment variable names for configuration.
const (
	// ConfigPathEnv points at the TOML configuration file.
	ConfigPathEnv = "SIDEKICK_CONFIG"

	// SktpHostEnv overrides the SKTP server host name.
	SktpHostEnv = "SIDEKICK_SKTP_HOST"

	// SktpPortEnv overrides the SKTP server port.
	SktpPortEnv = "SIDEKICK_SKTP_PORT"

	// DriveRootEnv is the host directory backing the "SD:" drive.
	DriveRootEnv = "SIDEKICK_DRIVE_ROOT"

	// ProxyEnv sets an http(s) or socks5 proxy for all requests.
	ProxyEnv = "SIDEKICK_PROXY"

	// LogLevelEnv sets the numeric log level (0-3).
	LogLevelEnv = "SIDEKICK_LOG_LEVEL"

	// VariantEnv selects the hardware variant ("c64" or "264").
	VariantEnv = "SIDEKICK_VARIANT"
)
