package netman

import (
	"context"
	"errors"

	"github.com/sidekick64/sidekicknet/common"
	"github.com/sidekick64/sidekicknet/internal/download"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
)

// KernelLauncher is the kernel that launches uploads from the menu.
const KernelLauncher = "l"

// Upload is a payload received by the webserver.
type Upload struct {
	ID        string
	Extension sktp.Extension
	Data      []byte
}

func (m *Manager) fetchDownload(ctx context.Context) {
	p := m.dl.Pointer()
	err := m.dl.Fetch(ctx, m.transport)
	if errors.Is(err, download.ErrNothingStaged) {
		m.log.Warning("download dispatched with nothing staged")
		return
	}
	if err != nil {
		secure := p.Source.Secure()
		var ne *common.NetError
		if errors.As(err, &ne) && ne.Kind == common.KindTransport {
			secure = ne.Secure
		}
		if secure {
			m.setError(MsgHTTPSFailed, false)
		} else {
			m.setError(MsgHTTPFailed, false)
		}
		return
	}
	m.publish(common.StatusEvent{Type: common.UPDATE_DOWNLOAD, File: p.Filename, Size: len(m.dl.Payload())})
}

// Download returns the download lifecycle.
func (m *Manager) Download() *download.Lifecycle { return m.dl }

// CheckFinishedDownload moves a fetched payload on. A payload to be saved
// queues the save with a delay long enough to read the status line.
// It reports whether a fetch had finished.
func (m *Manager) CheckFinishedDownload() bool {
	c, ok := m.dl.Finish()
	if !ok {
		return false
	}
	if c.SaveQueued {
		m.queue.Push(Action{Kind: ActionSave})
		m.queue.SetDelay(c.Delay)
		m.setError(c.Message, true)
		return true
	}
	m.publishLaunchable()
	return true
}

// SaveQueuedDownload writes a payload waiting for its save. It is polled
// apart from the tick and ignores the delay, so a caller can drain the
// save before it goes on. It reports whether a save was pending.
func (m *Manager) SaveQueuedDownload() bool {
	if !m.queue.Take(ActionSave) {
		return false
	}
	if m.drive == nil {
		m.log.Error("%v", ErrNoDrive)
		m.setError(MsgSaveFailed, false)
		return true
	}
	if err := m.dl.Save(m.drive, m.cache); err != nil {
		m.setError(MsgSaveFailed, false)
		return true
	}
	m.queue.Take(ActionKeypress)
	m.publishLaunchable()
	return true
}

// RetrySave queues another save of a payload whose write failed.
func (m *Manager) RetrySave() bool {
	if m.dl.State() != download.Saving {
		return false
	}
	m.queue.Push(Action{Kind: ActionSave})
	return true
}

// LaunchReady reports whether an image waits for launch.
func (m *Manager) LaunchReady() bool { return m.dl.Ready() }

// Launch hands the ready image to the caller and returns the lifecycle
// to idle.
func (m *Manager) Launch() (download.Image, error) {
	return m.dl.Launch()
}

// CleanupDownload drops every trace of the last download and asks for a
// screen redraw.
func (m *Manager) CleanupDownload() {
	m.ClearErrorMessage()
	m.session.RequestRedraw()
	m.dl.Cleanup()
	// The dropped buffers leave the cache the same way a save does.
	m.cache.Enter()
	m.cache.Leave()
}

// PrepareLaunchOfUpload makes data ready for launch. On the launcher
// kernel a return to the menu is requested to pick it up.
func (m *Manager) PrepareLaunchOfUpload(ext sktp.Extension, data []byte) error {
	if err := m.dl.PrepareUpload(ext, data); err != nil {
		m.log.Error("upload not accepted: %v", err)
		m.setError(MsgUploadRejected, false)
		return err
	}
	if m.kernel == KernelLauncher {
		m.returnToMenu = true
	}
	m.publish(common.StatusEvent{Type: common.UPDATE_UPLOAD, File: download.UploadFilename, Size: len(data)})
	m.publishLaunchable()
	return nil
}

// Submit hands an upload to the manager. It is safe to call from any
// goroutine and fails when an upload is already waiting.
func (m *Manager) Submit(u Upload) error {
	select {
	case m.uploads <- u:
		return nil
	default:
		return ErrMailboxFull
	}
}

func (m *Manager) drainUploads() {
	select {
	case u := <-m.uploads:
		m.log.Info("upload %s received (%s)", u.ID, u.Extension)
		_ = m.PrepareLaunchOfUpload(u.Extension, u.Data)
	default:
	}
}

func (m *Manager) publishLaunchable() {
	img, ok := m.dl.Image()
	if !ok {
		return
	}
	m.publish(common.StatusEvent{Type: common.UPDATE_LAUNCHABLE, File: img.Name, Size: len(img.Data)})
}
