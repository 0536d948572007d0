package netman

import "github.com/sidekick64/sidekicknet/common"

// Fixed-width lines for the device's status row.
const (
	MsgConnecting     = "    Trying to connect. Please wait.     "
	MsgNoWLAN         = " No WLAN support in this kernel. Sorry. "
	MsgWLANFailed     = "   Wireless network connection failed!  "
	MsgCableCheck     = "  Cable plugged in? Check and reconnect "
	MsgHTTPSFailed    = "          HTTPS request failed          "
	MsgHTTPFailed     = "           HTTP request failed          "
	MsgRebootingFmt   = "  Please wait, rebooting Sidekick in %d  "
	MsgDeviceFailed   = "   Network device could not be set up   "
	MsgResolveFailed  = "     Could not resolve server names     "
	MsgSaveFailed     = "     Saving file to SD card failed      "
	MsgUploadRejected = "      Upload could not be launched      "
)

// Screen notices replace the remote screen.
const (
	NoticeNoConnection = "Sorry, no network connection!"
	NoticeNotFound     = "Message not found. :("
)

// setError sets the status row message and asks for a menu redraw.
func (m *Manager) setError(msg string, sticky bool) {
	m.errMsg = common.StatusLine(msg)
	m.errSticky = sticky
	m.menuUpdate = true
	m.publish(common.StatusEvent{Type: common.UPDATE_ERROR, Message: m.errMsg, Sticky: sticky})
}

// ErrorMessage returns the status row message and whether it stays until
// cleared. It is empty when nothing is to be shown.
func (m *Manager) ErrorMessage() (msg string, sticky bool) {
	return m.errMsg, m.errSticky
}

// ClearErrorMessage drops the status row message.
func (m *Manager) ClearErrorMessage() {
	m.errMsg = ""
	m.errSticky = false
}

// StatusMessage is the message of the last queued network action.
func (m *Manager) StatusMessage() string { return m.statusMsg }

// MenuUpdateNeeded reports and clears the redraw signal.
func (m *Manager) MenuUpdateNeeded() bool {
	u := m.menuUpdate
	m.menuUpdate = false
	return u
}

func (m *Manager) setStatus(msg string) {
	m.statusMsg = common.StatusLine(msg)
	m.publish(common.StatusEvent{Type: common.UPDATE_STATUS, Message: m.statusMsg})
}

func (m *Manager) publish(ev common.StatusEvent) {
	if m.events != nil {
		m.events(ev)
	}
}
