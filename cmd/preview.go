package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sidekick64/sidekicknet/common"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
)

const (
	screenCols = common.TextColumns
	screenRows = 25
)

// c64 colour palette, indexed by the chunk colour.
var palette = [16]lipgloss.Color{
	"#000000", "#FFFFFF", "#68372B", "#70A4B2",
	"#6F3D86", "#588D43", "#352879", "#B8C76F",
	"#6F4F25", "#433900", "#9A6759", "#444444",
	"#6C6C6C", "#9AD284", "#6C5EB5", "#959595",
}

const (
	colorLightBlue = 14
	colorRed       = 2
)

type cell struct {
	code    byte
	color   uint8
	inverse bool
}

// screen mirrors the remote 40x25 text screen.
type screen struct {
	cells  [screenRows * screenCols]cell
	styles [16][2]lipgloss.Style
}

func newScreen() *screen {
	s := &screen{}
	for i, c := range palette {
		base := lipgloss.NewStyle().Foreground(c).Background(palette[0])
		s.styles[i][0] = base
		s.styles[i][1] = base.Reverse(true)
	}
	s.clear()
	return s
}

func (s *screen) clear() {
	for i := range s.cells {
		s.cells[i] = cell{code: ' ', color: colorLightBlue}
	}
}

// apply writes a chunk. Cells past the end of the screen are dropped.
func (s *screen) apply(c sktp.Chunk) {
	for i := 0; i < c.Length && i < len(c.Text); i++ {
		pos := c.Start + i
		if pos < 0 || pos >= len(s.cells) {
			return
		}
		s.cells[pos] = cell{code: c.Text[i], color: c.Color & 0x0f, inverse: c.Inverse}
	}
}

// notice shows text centred on an otherwise empty screen.
func (s *screen) notice(text string) {
	s.clear()
	line := common.Beaut(text, screenCols)
	row := screenRows / 2
	for i := 0; i < len(line) && i < screenCols; i++ {
		s.cells[row*screenCols+i] = cell{code: asciiToScreenCode(line[i]), color: colorRed}
	}
}

// screenCodeToRune maps a c64 screen code (upper case set) to a
// printable rune.
func screenCodeToRune(b byte) rune {
	b &= 0x7f
	switch {
	case b == 0:
		return '@'
	case b <= 26:
		return rune('A' + b - 1)
	case b == 27:
		return '['
	case b == 28:
		return '£'
	case b == 29:
		return ']'
	case b == 30:
		return '↑'
	case b == 31:
		return '←'
	case b < 64:
		return rune(b)
	case b == 64:
		return '─'
	case b == 93:
		return '│'
	case b == 96:
		return ' '
	default:
		return '▒'
	}
}

func asciiToScreenCode(b byte) byte {
	switch {
	case b >= 'a' && b <= 'z':
		return b - 'a' + 1
	case b >= 'A' && b <= 'Z':
		return b - 'A' + 1
	case b == '@':
		return 0
	case b >= 32 && b < 64:
		return b
	}
	return ' '
}

// Text returns the screen without styling, one line per row.
func (s *screen) Text() string {
	var b strings.Builder
	for r := 0; r < screenRows; r++ {
		for c := 0; c < screenCols; c++ {
			b.WriteRune(screenCodeToRune(s.cells[r*screenCols+c].code))
		}
		if r < screenRows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Render draws the screen with colours, framed, with the status line below.
func (s *screen) Render(status string) string {
	rows := make([]string, screenRows)
	var line strings.Builder
	for r := 0; r < screenRows; r++ {
		line.Reset()
		for c := 0; c < screenCols; c++ {
			ce := s.cells[r*screenCols+c]
			inv := 0
			if ce.inverse {
				inv = 1
			}
			line.WriteString(s.styles[ce.color][inv].Render(string(screenCodeToRune(ce.code))))
		}
		rows[r] = line.String()
	}
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(palette[colorLightBlue]).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	if status == "" {
		return frame
	}
	bar := lipgloss.NewStyle().
		Foreground(palette[1]).
		Background(palette[6]).
		Width(screenCols + 2).
		Render(status)
	return lipgloss.JoinVertical(lipgloss.Left, frame, bar)
}
