package c64fmt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	crtSignature    = "C64 CARTRIDGE   "
	crtHeaderLength = 0x40
	crtVersion      = 0x0100
	crtNameLength   = 32
	chipSignature   = "CHIP"
	chipHeader      = 0x10
	chipTypeFlash   = 2

	// HardwareEasyFlash is the CRT hardware type of an EasyFlash cartridge.
	HardwareEasyFlash = 32

	BankSize      = 0x2000
	MaxBanks      = 64
	romlAddress   = 0x8000
	romhAddress   = 0xa000
	emptyFlash    = 0xff
	firstDiskBank = 1
)

// Valid D64 sizes: 35 or 40 tracks, each with or without error bytes.
var diskImageSizes = map[int]string{
	174848: "35 tracks",
	175531: "35 tracks with errors",
	196608: "40 tracks",
	197376: "40 tracks with errors",
}

// IsDiskImage reports whether n is the size of a D64 image.
func IsDiskImage(n int) bool {
	_, ok := diskImageSizes[n]
	return ok
}

// CartridgeOptions controls WrapDiskImage.
type CartridgeOptions struct {
	// Name is stored in the CRT header, cut to 32 bytes.
	Name string
	// Boot is placed in bank 0 ROML. It is the loader started by the
	// cartridge; nil leaves bank 0 empty.
	Boot []byte
}

// WrapDiskImage packs a D64 image into an EasyFlash CRT. Bank 0 holds the
// boot code, the image follows from bank 1 on, ROML then ROMH per bank.
func WrapDiskImage(image []byte, opts CartridgeOptions) ([]byte, error) {
	if !IsDiskImage(len(image)) {
		return nil, fmt.Errorf("%w: %d bytes", ErrDiskImageSize, len(image))
	}
	if len(opts.Boot) > BankSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrBootTooLarge, len(opts.Boot))
	}
	chips := (len(image) + BankSize - 1) / BankSize
	if firstDiskBank+(chips+1)/2 > MaxBanks {
		return nil, fmt.Errorf("%w: %d chips", ErrCartridgeTooBig, chips)
	}

	var out bytes.Buffer
	out.Grow(crtHeaderLength + (chips+1)*(chipHeader+BankSize))
	writeCartridgeHeader(&out, opts.Name)
	if opts.Boot != nil {
		writeChip(&out, 0, romlAddress, opts.Boot)
	}
	for i := 0; i < chips; i++ {
		end := min((i+1)*BankSize, len(image))
		addr := uint16(romlAddress)
		if i%2 == 1 {
			addr = romhAddress
		}
		writeChip(&out, uint16(firstDiskBank+i/2), addr, image[i*BankSize:end])
	}
	return out.Bytes(), nil
}

func writeCartridgeHeader(w *bytes.Buffer, name string) {
	var hdr [crtHeaderLength]byte
	copy(hdr[:], crtSignature)
	binary.BigEndian.PutUint32(hdr[0x10:], crtHeaderLength)
	binary.BigEndian.PutUint16(hdr[0x14:], crtVersion)
	binary.BigEndian.PutUint16(hdr[0x16:], HardwareEasyFlash)
	hdr[0x18] = 1 // EXROM
	hdr[0x19] = 0 // GAME
	copy(hdr[0x20:0x20+crtNameLength], strings.ToUpper(name))
	w.Write(hdr[:])
}

// writeChip writes one 8k CHIP packet, padding short data with erased flash.
func writeChip(w *bytes.Buffer, bank, addr uint16, data []byte) {
	var hdr [chipHeader]byte
	copy(hdr[:], chipSignature)
	binary.BigEndian.PutUint32(hdr[4:], chipHeader+BankSize)
	binary.BigEndian.PutUint16(hdr[8:], chipTypeFlash)
	binary.BigEndian.PutUint16(hdr[10:], bank)
	binary.BigEndian.PutUint16(hdr[12:], addr)
	binary.BigEndian.PutUint16(hdr[14:], BankSize)
	w.Write(hdr[:])
	w.Write(data)
	for i := len(data); i < BankSize; i++ {
		w.WriteByte(emptyFlash)
	}
}

// CartridgeInfo summarizes a CRT image.
type CartridgeInfo struct {
	Name     string
	Hardware uint16
	Chips    int
	Banks    int
}

// InspectCartridge validates a CRT image and walks its CHIP packets.
func InspectCartridge(b []byte) (CartridgeInfo, error) {
	var info CartridgeInfo
	if len(b) < crtHeaderLength || string(b[:len(crtSignature)]) != crtSignature {
		return info, ErrCartridgeHeader
	}
	hdrLen := int(binary.BigEndian.Uint32(b[0x10:]))
	if hdrLen < crtHeaderLength || hdrLen > len(b) {
		return info, fmt.Errorf("%w: header length %d", ErrCartridgeHeader, hdrLen)
	}
	info.Hardware = binary.BigEndian.Uint16(b[0x16:])
	info.Name = strings.TrimRight(string(b[0x20:0x20+crtNameLength]), "\x00")

	banks := map[uint16]bool{}
	for off := hdrLen; off < len(b); {
		if off+chipHeader > len(b) || string(b[off:off+4]) != chipSignature {
			return info, fmt.Errorf("%w: bad chip packet at %d", ErrCartridgeHeader, off)
		}
		n := int(binary.BigEndian.Uint32(b[off+4:]))
		if n < chipHeader || off+n > len(b) {
			return info, fmt.Errorf("%w: chip packet at %d runs past the end", ErrCartridgeHeader, off)
		}
		banks[binary.BigEndian.Uint16(b[off+10:])] = true
		info.Chips++
		off += n
	}
	info.Banks = len(banks)
	return info, nil
}
