// Package c64fmt converts downloaded Commodore payloads into images the
// cartridge can launch directly: disk images are wrapped into an EasyFlash
// cartridge and PSID/RSID tunes become a self-starting program.
package c64fmt
