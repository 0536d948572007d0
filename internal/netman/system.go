package netman

import (
	"context"
	"fmt"
	"time"

	"github.com/sidekick64/sidekicknet/common"
)

// SetCurrentKernel records the kernel the host is running.
func (m *Manager) SetCurrentKernel(k string) { m.kernel = k }

// RequestReboot starts the reboot countdown.
func (m *Manager) RequestReboot() {
	m.rebootStart = m.now()
	m.rebootRequested = true
	m.rebootLeft = -1
	m.publish(common.StatusEvent{Type: common.UPDATE_REBOOTING})
}

// RebootDue reports whether the reboot countdown has run out. While it
// runs, the status line counts down once per second.
func (m *Manager) RebootDue() bool {
	if !m.rebootRequested {
		return false
	}
	elapsed := int(m.now().Sub(m.rebootStart) / time.Second)
	left := int(m.cfg.RebootWait/time.Second) - elapsed
	if left < 0 {
		left = 0
	}
	if left == 0 {
		return true
	}
	if left != m.rebootLeft {
		m.rebootLeft = left
		m.setError(fmt.Sprintf(MsgRebootingFmt, max(left-2, 0)), true)
	}
	return false
}

// RequestReturnToMenu asks the host to go back to the menu.
func (m *Manager) RequestReturnToMenu() { m.returnToMenu = true }

// ReturnToMenuRequired reports whether the host must leave the running
// kernel, for a reboot or a return to the menu. The return request is
// consumed.
func (m *Manager) ReturnToMenuRequired() bool {
	r := m.rebootRequested || m.returnToMenu
	m.returnToMenu = false
	return r
}

// UpdateSystemMonitor records host health figures.
func (m *Manager) UpdateSystemMonitor(heapFree uint64, cpuTemp uint) {
	m.heapFree = heapFree
	m.cpuTemp = cpuTemp
}

// Uptime returns the time since the manager was created.
func (m *Manager) Uptime() time.Duration { return m.now().Sub(m.started) }

// SysMonInfo formats the system monitor line.
func (m *Manager) SysMonInfo(details bool) string {
	s := fmt.Sprintf("CPU %02d'C, Uptime: %s", m.cpuTemp, formatUptime(m.Uptime()))
	if details {
		s += fmt.Sprintf(", %02d kb free", m.heapFree/1024)
	}
	return s
}

func formatUptime(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%02dh %02dm %02ds", secs/3600, secs/60%60, secs%60)
}

func (m *Manager) syncTime(ctx context.Context) bool {
	if m.clock == nil {
		m.log.Debug("%v", ErrNoClock)
		return false
	}
	res, err := m.clock.Sync(ctx)
	if err != nil {
		m.log.Warning("time sync failed: %v", err)
		return false
	}
	m.clockOffset = res.Offset
	m.synced = true
	m.log.Info("clock synced, offset %s", res.Offset)
	return true
}

func (m *Manager) syncTimeWithRetry(ctx context.Context) bool {
	for try := 0; try < m.cfg.TimeSyncTries; try++ {
		if m.syncTime(ctx) {
			return true
		}
	}
	return false
}

// TimeSynced reports whether the clock has been synced once.
func (m *Manager) TimeSynced() bool { return m.synced }

// Time returns the synced local time in the configured time zone.
func (m *Manager) Time() time.Time {
	zone := time.FixedZone("local", m.cfg.TimeZone*60)
	return m.now().Add(m.clockOffset).In(zone)
}

// TimeString formats Time for the status line.
func (m *Manager) TimeString() string {
	return m.Time().Format("Jan _2 15:04:05")
}

// FetchNetRAM reads the remote RAM image into buf.
func (m *Manager) FetchNetRAM(ctx context.Context, buf []byte) (int, error) {
	if !m.active {
		return 0, common.NewNetError(common.KindConnectivity, "netram", ErrNotConnected)
	}
	if m.server.IsZero() {
		return 0, common.NewNetError(common.KindConnectivity, "netram", ErrNoServer)
	}
	n, err := m.transport.Get(ctx, m.server, NetRAMPath, buf)
	if err != nil {
		m.log.Error("getting %s failed: %v", NetRAMPath, err)
		return 0, err
	}
	return n, nil
}
