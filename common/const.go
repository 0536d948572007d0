package common

// UpdateType tags a StatusEvent pushed to webserver subscribers.
type UpdateType string

const (
	UPDATE_STATUS     UpdateType = "status"
	UPDATE_ERROR      UpdateType = "error"
	UPDATE_CONNECTED  UpdateType = "connected"
	UPDATE_DOWNLOAD   UpdateType = "download"
	UPDATE_UPLOAD     UpdateType = "upload"
	UPDATE_SCREEN     UpdateType = "screen"
	UPDATE_REBOOTING  UpdateType = "rebooting"
	UPDATE_LAUNCHABLE UpdateType = "launchable"
)

// TextColumns is the width of the device's text display. Every status
// message is padded to exactly this many characters.
const TextColumns = 40

// DefaultHostname is used when no device host name is configured.
const DefaultHostname = "sidekick64"
