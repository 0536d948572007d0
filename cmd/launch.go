package cmd

import (
	"errors"
	"path"
	"path/filepath"
	"strings"

	"github.com/sidekick64/sidekicknet/internal/download"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
	"github.com/spf13/afero"
)

var ErrNotLaunchable = errors.New("image cannot be launched")

// launchName is the file name a launch image is written under. Converted
// tunes are programs.
func launchName(img download.Image) string {
	name := path.Base(img.Name)
	ext := path.Ext(name)
	if ext == "" {
		ext = "." + string(img.Extension)
		name += ext
	}
	if img.Kind == download.LaunchTune {
		name = strings.TrimSuffix(name, ext) + "." + string(sktp.ExtPRG)
	}
	return name
}

// writeLaunchImage stores img in dir and returns its path.
func writeLaunchImage(fs afero.Fs, dir string, img download.Image) (string, error) {
	if img.Kind == download.LaunchNone {
		return "", ErrNotLaunchable
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(dir, launchName(img))
	if err := afero.WriteFile(fs, p, img.Data, 0o644); err != nil {
		return "", err
	}
	return p, nil
}
