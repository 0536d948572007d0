package cmd

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/sidekick64/sidekicknet/internal/download"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
	"github.com/spf13/afero"
)

func TestLaunchName(t *testing.T) {
	tests := []struct {
		name string
		img  download.Image
		want string
	}{
		{"program", download.Image{Kind: download.LaunchProgram, Name: "game.prg", Extension: sktp.ExtPRG}, "game.prg"},
		{"upload", download.Image{Kind: download.LaunchCartridge, Name: download.UploadFilename, Extension: sktp.ExtCRT}, "http_upload.crt"},
		{"tune", download.Image{Kind: download.LaunchTune, Name: "commando.sid", Extension: sktp.ExtSID}, "commando.prg"},
		{"wrapped disk", download.Image{Kind: download.LaunchCartridge, Name: "disk.crt", Extension: sktp.ExtD64}, "disk.crt"},
		{"no directories", download.Image{Kind: download.LaunchProgram, Name: "../../x.prg", Extension: sktp.ExtPRG}, "x.prg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := launchName(tt.img); got != tt.want {
				t.Errorf("launchName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteLaunchImage(t *testing.T) {
	fs := afero.NewMemMapFs()
	img := download.Image{Kind: download.LaunchProgram, Name: "game.prg", Extension: sktp.ExtPRG, Data: []byte{1, 8, 0x60}}
	p, err := writeLaunchImage(fs, "launch", img)
	if err != nil {
		t.Fatalf("writeLaunchImage: %v", err)
	}
	if p != filepath.Join("launch", "game.prg") {
		t.Errorf("unexpected path %q", p)
	}
	data, err := afero.ReadFile(fs, p)
	if err != nil || len(data) != 3 {
		t.Errorf("unexpected file %v %v", data, err)
	}

	img.Kind = download.LaunchNone
	if _, err := writeLaunchImage(fs, "launch", img); !errors.Is(err, ErrNotLaunchable) {
		t.Errorf("expected ErrNotLaunchable, got %v", err)
	}
}
