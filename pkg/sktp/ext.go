package sktp

import (
	"fmt"
	"strings"
)

// Extension is a normalized (lower case) download file extension.
type Extension string

const (
	ExtPRG Extension = "prg"
	ExtD64 Extension = "d64"
	ExtSID Extension = "sid"
	ExtCRT Extension = "crt"
)

// ParseExtension lower-cases s and checks it is a supported kind.
func ParseExtension(s string) (Extension, error) {
	ext := Extension(strings.ToLower(strings.TrimPrefix(s, ".")))
	switch ext {
	case ExtPRG, ExtD64, ExtSID, ExtCRT:
		return ext, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedExtension, s)
}

// Variant selects the hardware the firmware targets. Save directories and
// launch rules differ between the two.
type Variant int

const (
	// VariantC64 is the C64 cartridge.
	VariantC64 Variant = iota
	// Variant264 is the C16/Plus4 cartridge.
	Variant264
)

// ParseVariant accepts "c64" and "264" (plus the short names "a" and "b").
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "c64", "a":
		return VariantC64, nil
	case "264", "c264", "plus4", "b":
		return Variant264, nil
	}
	return VariantC64, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

func (v Variant) String() string {
	if v == Variant264 {
		return "264"
	}
	return "c64"
}

var saveDirs = map[Variant]map[Extension]string{
	VariantC64: {
		ExtPRG: "PRG/",
		ExtCRT: "CART264/",
		ExtD64: "D64/",
		ExtSID: "SID/",
	},
	Variant264: {
		ExtPRG: "PRG264/",
		ExtCRT: "CRT/",
		ExtD64: "D264/",
		ExtSID: "SID/",
	},
}

// SaveDir returns the drive directory for ext, with a trailing slash.
func (v Variant) SaveDir(ext Extension) string {
	return saveDirs[v][ext]
}

// SavePath builds e.g. "SD:PRG/file.prg".
func SavePath(drive string, v Variant, ext Extension, filename string) string {
	return drive + v.SaveDir(ext) + filename
}
