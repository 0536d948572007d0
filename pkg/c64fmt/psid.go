package c64fmt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	sidMinHeader = 0x76
	basicStart   = 0x0801
	driverStart  = 0x080d

	// PAL CIA timer latch for a 50Hz interrupt.
	timer50HzLow  = 0xf9
	timer50HzHigh = 0x4c
	kernalIRQExit = 0xea31
	memoryTop     = 0x10000
)

// BASIC line "10 SYS2061" followed by the end-of-program marker.
var basicStub = []byte{0x0b, 0x08, 0x0a, 0x00, 0x9e, '2', '0', '6', '1', 0x00, 0x00, 0x00}

// SIDHeader is the decoded header of a PSID or RSID file.
type SIDHeader struct {
	Magic      string
	Version    uint16
	DataOffset uint16
	Load       uint16
	Init       uint16
	Play       uint16
	Songs      uint16
	StartSong  uint16
	Name       string
	Author     string
	Released   string
}

// ParseSIDHeader decodes the big-endian header at the start of b.
func ParseSIDHeader(b []byte) (SIDHeader, error) {
	var h SIDHeader
	if len(b) < sidMinHeader {
		return h, fmt.Errorf("%w: %d bytes", ErrSIDHeader, len(b))
	}
	h.Magic = string(b[:4])
	if h.Magic != "PSID" && h.Magic != "RSID" {
		return h, fmt.Errorf("%w: magic %q", ErrSIDHeader, h.Magic)
	}
	be := binary.BigEndian
	h.Version = be.Uint16(b[4:])
	h.DataOffset = be.Uint16(b[6:])
	h.Load = be.Uint16(b[8:])
	h.Init = be.Uint16(b[0x0a:])
	h.Play = be.Uint16(b[0x0c:])
	h.Songs = be.Uint16(b[0x0e:])
	h.StartSong = be.Uint16(b[0x10:])
	h.Name = sidString(b[0x16:0x36])
	h.Author = sidString(b[0x36:0x56])
	h.Released = sidString(b[0x56:0x76])
	if int(h.DataOffset) < sidMinHeader || int(h.DataOffset) > len(b) {
		return h, fmt.Errorf("%w: data offset %d", ErrSIDHeader, h.DataOffset)
	}
	return h, nil
}

func sidString(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}

// ConvertSID turns a PSID/RSID file into a PRG that starts the default
// song: a BASIC SYS line jumps to a small driver that calls init and, when
// the tune has a play routine, installs it on a 50Hz CIA timer
// interrupt. The tune must load above the driver; it is not relocated.
func ConvertSID(file []byte) ([]byte, error) {
	h, err := ParseSIDHeader(file)
	if err != nil {
		return nil, err
	}
	data := file[h.DataOffset:]
	load := h.Load
	if load == 0 {
		if len(data) < 2 {
			return nil, fmt.Errorf("%w: missing load address", ErrSIDHeader)
		}
		load = binary.LittleEndian.Uint16(data)
		data = data[2:]
	}
	init := h.Init
	if init == 0 {
		init = load
	}
	song := h.StartSong
	if song == 0 {
		song = 1
	}

	driver := sidDriver(byte(song-1), init, h.Play)
	driverEnd := driverStart + len(driver)
	if int(load) < driverEnd {
		return nil, fmt.Errorf("%w: $%04x < $%04x", ErrSIDLoadAddress, load, driverEnd)
	}
	if int(load)+len(data) > memoryTop {
		return nil, fmt.Errorf("%w: $%04x + %d", ErrSIDTooLarge, load, len(data))
	}

	var out bytes.Buffer
	out.Grow(2 + int(load) - basicStart + len(data))
	out.Write([]byte{basicStart & 0xff, basicStart >> 8})
	out.Write(basicStub)
	out.Write(driver)
	out.Write(make([]byte, int(load)-driverEnd))
	out.Write(data)
	return out.Bytes(), nil
}

// sidDriver assembles the player at driverStart.
func sidDriver(song byte, init, play uint16) []byte {
	lo := func(v uint16) byte { return byte(v) }
	hi := func(v uint16) byte { return byte(v >> 8) }

	code := []byte{
		0x78,                     // sei
		0xa9, song,               // lda #song
		0x20, lo(init), hi(init), // jsr init
	}
	if play != 0 {
		// The handler follows the 20 setup bytes, cli and jmp.
		irq := uint16(driverStart + len(code) + 20 + 1 + 3)
		code = append(code,
			0xa9, timer50HzLow, 0x8d, 0x04, 0xdc, // sta $dc04
			0xa9, timer50HzHigh, 0x8d, 0x05, 0xdc, // sta $dc05
			0xa9, lo(irq), 0x8d, 0x14, 0x03, // sta $0314
			0xa9, hi(irq), 0x8d, 0x15, 0x03, // sta $0315
		)
	}
	loop := uint16(driverStart + len(code) + 1)
	code = append(code,
		0x58,                     // cli
		0x4c, lo(loop), hi(loop), // jmp *
	)
	if play != 0 {
		code = append(code,
			0x20, lo(play), hi(play), // jsr play
			0x4c, lo(kernalIRQExit), hi(kernalIRQExit),
		)
	}
	return code
}
