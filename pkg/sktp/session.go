package sktp

import (
	"fmt"
	"strings"
)

// SessionState tracks the SKTP session handshake.
type SessionState int

const (
	SessionInactive SessionState = iota
	SessionActive
	// SessionPendingRedraw makes the next key request ask for a full redraw.
	SessionPendingRedraw
)

func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionPendingRedraw:
		return "pending-redraw"
	default:
		return "inactive"
	}
}

const (
	// NewSessionPath requests a fresh session id.
	NewSessionPath = "/sktp.php?session=new"
	// KeyRefresh is the key code sent to poll for screen updates.
	KeyRefresh byte = 92

	MinSessionIDLength = 26
	MaxSessionIDLength = 33
)

// Session holds the id handed out by the server.
type Session struct {
	id    string
	state SessionState
}

// State returns the handshake state.
func (s *Session) State() SessionState { return s.state }

// ID returns the session id, empty when inactive.
func (s *Session) ID() string { return s.id }

// Active reports whether a session id is held.
func (s *Session) Active() bool { return s.state != SessionInactive }

// ParseSessionID validates the body of a NewSessionPath response.
func ParseSessionID(body []byte) (string, error) {
	id := strings.TrimRight(string(body), "\x00\r\n ")
	if len(id) < MinSessionIDLength || len(id) > MaxSessionIDLength {
		return "", fmt.Errorf("%w: length %d", ErrSessionID, len(id))
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return "", fmt.Errorf("%w: byte 0x%02x at %d", ErrSessionID, id[i], i)
		}
	}
	return id, nil
}

// Start stores the id parsed from body and activates the session.
func (s *Session) Start(body []byte) error {
	id, err := ParseSessionID(body)
	if err != nil {
		return err
	}
	s.id = id
	s.state = SessionActive
	return nil
}

// Reset forgets the session.
func (s *Session) Reset() {
	s.id = ""
	s.state = SessionInactive
}

// RequestRedraw marks an active session for a full redraw.
func (s *Session) RequestRedraw() {
	if s.state == SessionActive {
		s.state = SessionPendingRedraw
	}
}

// KeyPath builds the request path for a key press. A pending redraw is
// sent once and the session returns to active.
func (s *Session) KeyPath(key byte) string {
	path := fmt.Sprintf("/sktp.php?&key=%02X&sessionid=%s", key, s.id)
	if s.state == SessionPendingRedraw {
		path += "&redraw=1"
		s.state = SessionActive
	}
	return path
}

// RefreshPath is the key path for KeyRefresh.
func (s *Session) RefreshPath() string {
	return s.KeyPath(KeyRefresh)
}
