package cmd

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/sidekick64/sidekicknet/pkg/sktp"
)

// PETSCII codes of the keys that have no printable form.
const (
	keyStop   byte = 3
	keyReturn byte = 13
	keyDown   byte = 17
	keyHome   byte = 19
	keyDelete byte = 20
	keyRight  byte = 29
	keyF1     byte = 133
	keyF3     byte = 134
	keyF5     byte = 135
	keyF7     byte = 136
	keyF2     byte = 137
	keyF4     byte = 138
	keyF6     byte = 139
	keyF8     byte = 140
	keyUp     byte = 145
	keyLeft   byte = 157
)

var namedKeys = map[string]byte{
	"stop":    keyStop,
	"ret":     keyReturn,
	"return":  keyReturn,
	"down":    keyDown,
	"home":    keyHome,
	"del":     keyDelete,
	"right":   keyRight,
	"up":      keyUp,
	"left":    keyLeft,
	"f1":      keyF1,
	"f2":      keyF2,
	"f3":      keyF3,
	"f4":      keyF4,
	"f5":      keyF5,
	"f6":      keyF6,
	"f7":      keyF7,
	"f8":      keyF8,
	"refresh": sktp.KeyRefresh,
}

// petscii maps a typed character to the key code the server expects.
// Lower case letters are unshifted, upper case letters shifted.
func petscii(c byte) (byte, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return c - 'a' + 'A', true
	case c >= 'A' && c <= 'Z':
		return c - 'A' + 0xc1, true
	case c >= ' ' && c <= '@', c == '[', c == ']':
		return c, true
	}
	return 0, false
}

// parseKeys turns one input line into key codes. An empty line is RETURN,
// <name> sends a named key.
func parseKeys(line string) []byte {
	if line == "" {
		return []byte{keyReturn}
	}
	var keys []byte
	for i := 0; i < len(line); i++ {
		if line[i] == '<' {
			if end := strings.IndexByte(line[i:], '>'); end > 1 {
				if k, ok := namedKeys[strings.ToLower(line[i+1:i+end])]; ok {
					keys = append(keys, k)
					i += end
					continue
				}
			}
		}
		if k, ok := petscii(line[i]); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// readKeys forwards the keys typed on r until ctx ends. The end of r
// stops reading but not the caller.
func readKeys(ctx context.Context, r io.Reader, keys chan<- byte) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			for _, k := range parseKeys(line) {
				select {
				case keys <- k:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}
