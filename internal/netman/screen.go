package netman

import (
	"context"
	"fmt"

	"github.com/sidekick64/sidekicknet/common"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
)

// EnterScreen marks the SKTP screen as shown. Keypresses are only sent
// while it is.
func (m *Manager) EnterScreen() { m.screenActive = true }

// LeaveScreen marks the SKTP screen as hidden.
func (m *Manager) LeaveScreen() { m.screenActive = false }

func (m *Manager) ScreenActive() bool { return m.screenActive }

// SessionActive reports whether an SKTP session id is held.
func (m *Manager) SessionActive() bool { return m.session.Active() }

// ResetSession forgets the SKTP session. The next keypress opens a new one.
func (m *Manager) ResetSession() { m.session.Reset() }

// RedrawScreen asks the server for a full redraw with the next keypress.
func (m *Manager) RedrawScreen() { m.session.RequestRedraw() }

// Screen returns the last decoded screen response. It references the
// screen buffer and is valid until the next keypress is dispatched.
func (m *Manager) Screen() sktp.Response { return m.screen }

// ScreenCleared reports whether the renderer must clear the screen.
func (m *Manager) ScreenCleared() bool { return m.screen.Kind == sktp.KindCleared }

// ScreenUnchanged reports whether the last response left the screen as it is.
func (m *Manager) ScreenUnchanged() bool {
	return m.screen.Kind == sktp.KindUnchanged || m.screen.Kind == sktp.KindPointer
}

// NextChunk walks the current screen response. At the end it reports
// false and rewinds, so the screen can be drawn again.
func (m *Manager) NextChunk() (sktp.Chunk, bool, error) {
	return m.cursor.Next()
}

// ResetChunks rewinds the screen cursor.
func (m *Manager) ResetChunks() { m.cursor.Reset() }

// Notice is the text shown instead of the remote screen, empty when the
// remote screen is valid.
func (m *Manager) Notice() string { return m.notice }

func (m *Manager) setNotice(n string) {
	m.notice = n
	m.screen = sktp.Response{Kind: sktp.KindScreen}
	m.cursor = sktp.NewCursor(nil, 0)
}

func (m *Manager) startSession(ctx context.Context) error {
	buf := m.arena.Acquire(BufSession)
	n, err := m.transport.Get(ctx, m.server, sktp.NewSessionPath, buf)
	if err != nil {
		m.log.Error("sktp session request failed: %v", err)
		return err
	}
	if err := m.session.Start(buf[:n]); err != nil {
		m.log.Error("sktp session rejected: %v", err)
		return err
	}
	m.log.Info("sktp session %s started", m.session.ID())
	return nil
}

// updateScreen sends key and decodes the answer. A download pointer is
// staged and its fetch queued ahead of everything else.
func (m *Manager) updateScreen(ctx context.Context, key byte) {
	if !m.active || !m.screenActive || m.server.IsZero() {
		m.setNotice(NoticeNoConnection)
		return
	}
	if !m.session.Active() {
		if err := m.startSession(ctx); err != nil {
			return
		}
	}

	buf := m.arena.Acquire(BufScreen)
	n, err := m.transport.Get(ctx, m.server, m.session.KeyPath(key), buf)
	if err != nil {
		m.log.Warning("sktp key 0x%02x: %v", key, err)
		m.setNotice(NoticeNotFound)
		return
	}
	resp, err := m.decoder.Decode(buf, n)
	if err != nil {
		m.log.Warning("malformed sktp response: %v", err)
		m.setNotice(NoticeNotFound)
		return
	}

	m.notice = ""
	m.screen = resp
	m.cursor = resp.Cursor()
	if resp.Kind != sktp.KindPointer {
		if resp.Kind != sktp.KindUnchanged {
			m.publish(common.StatusEvent{Type: common.UPDATE_SCREEN, Size: n})
		}
		return
	}

	p := resp.Pointer
	if err := m.dl.Stage(p); err != nil {
		m.log.Warning("ignoring download %s: %v", p.Filename, err)
		return
	}
	m.log.Info("download pointer %s from %s", p.Filename, p.Source.Label)
	m.queue.Push(Action{Kind: ActionDownload})
	m.queue.SetDelay(0)
}

func (m *Manager) updateFrame(ctx context.Context) {
	if !m.active || m.server.IsZero() {
		return
	}
	if m.frameCounter < 1 {
		m.frameCounter = 1
	}
	path := fmt.Sprintf(m.cfg.FramePath, m.frameCounter)
	n, err := m.transport.Get(ctx, m.server, path, m.arena.Acquire(BufFrame))
	if err != nil {
		m.log.Debug("frame %d: %v", m.frameCounter, err)
		n = 0
	}
	m.frameLen = n
	m.frameCounter++
	if m.frameCounter > m.cfg.FrameCount {
		m.frameCounter = 1
	}
}

// Frame returns the last fetched video frame.
func (m *Manager) Frame() []byte { return m.arena.Peek(BufFrame)[:m.frameLen] }
