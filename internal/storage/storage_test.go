package storage

import (
	"errors"
	"testing"

	"github.com/sidekick64/sidekicknet/common"
	"github.com/spf13/afero"
)

func TestDriveWriteFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := NewDrive(fs, "", nil)

	if err := d.WriteFile("SD:PRG/file.prg", []byte{1, 8, 0x60}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := afero.ReadFile(fs, "/PRG/file.prg")
	if err != nil {
		t.Fatalf("file not written: %v", err)
	}
	if len(data) != 3 {
		t.Errorf("expected 3 bytes, got %d", len(data))
	}
	if d.Mounted() {
		t.Error("drive should be unmounted after a write")
	}
	back, err := d.ReadFile("SD:PRG/file.prg")
	if err != nil || len(back) != 3 {
		t.Errorf("ReadFile: %v", err)
	}
}

func TestDriveRejectsForeignPaths(t *testing.T) {
	d := NewDrive(afero.NewMemMapFs(), "SD:", nil)
	for _, p := range []string{"USB:PRG/x.prg", "SD:", "SD:/"} {
		err := d.WriteFile(p, []byte{0})
		if !common.IsKind(err, common.KindPersistence) {
			t.Errorf("%q: expected persistence error, got %v", p, err)
		}
	}
	if err := d.WriteFile("USB:x", nil); !errors.Is(err, ErrWrongDrive) {
		t.Errorf("expected ErrWrongDrive, got %v", err)
	}
}

func TestDrivePathsStayInside(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := NewDrive(fs, "SD:", nil)
	if err := d.WriteFile("SD:../../etc/x.prg", []byte{0}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if ok, _ := afero.Exists(fs, "/etc/x.prg"); !ok {
		t.Error("dot-dot should be cleaned against the drive root")
	}
}

func TestDriveWriteFailure(t *testing.T) {
	d := NewDrive(afero.NewReadOnlyFs(afero.NewMemMapFs()), "SD:", nil)
	err := d.WriteFile("SD:D64/disk.d64", []byte{0})
	if !common.IsKind(err, common.KindPersistence) {
		t.Errorf("expected persistence error, got %v", err)
	}
	if d.Mounted() {
		t.Error("drive should be unmounted after a failed write")
	}
}

func TestBracketAlwaysLeaves(t *testing.T) {
	c := NewCacheTracker(nil)
	boom := errors.New("boom")

	if err := Bracket(c, func() error {
		if c.Depth() != 1 {
			t.Errorf("expected depth 1 inside bracket, got %d", c.Depth())
		}
		return boom
	}); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	_ = Bracket(c, func() error { return nil })

	entered, left := c.Counts()
	if entered != 2 || left != 2 || c.Depth() != 0 {
		t.Errorf("unbalanced scope: entered %d left %d depth %d", entered, left, c.Depth())
	}
}

func TestCacheTrackerExtraLeave(t *testing.T) {
	c := NewCacheTracker(nil)
	c.Leave()
	if c.Depth() != 0 {
		t.Errorf("depth went negative: %d", c.Depth())
	}
}
