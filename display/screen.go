// Package display renders controller labels. Screen draws the front panel template on a pixel
// display: the label centered between an up and a down indicator. Text writes labels to a stream
// for host-side runs.
package display

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinydraw"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.RGBA{A: 255}
)

const (
	// indicatorHeight and indicatorHalfWidth size the up/down triangles
	indicatorHeight    = 10
	indicatorHalfWidth = 5
)

// clearer is implemented by displays with a buffer that can be wiped in one call, like ssd1306
type clearer interface {
	ClearBuffer()
}

// Screen renders the label template on a drivers.Displayer. It only redraws when the label changes.
type Screen struct {
	display drivers.Displayer
	font    tinyfont.Fonter

	last  string
	drawn bool
}

// NewScreen creates a Screen using a 9pt bold monospace font, readable on a 128x64 panel
func NewScreen(d drivers.Displayer) *Screen {
	return &Screen{
		display: d,
		font:    &freemono.Bold9pt7b,
	}
}

// Render draws label centered between the indicators and pushes the buffer to the display
func (s *Screen) Render(label string) error {
	if s.drawn && label == s.last {
		return nil
	}

	s.clear()

	w, h := s.display.Size()
	quarterH := h / 4
	halfW := w / 2
	halfH := h / 2

	// up indicator, pointing up, above the label
	tinydraw.FilledTriangle(s.display,
		halfW, quarterH-indicatorHeight,
		halfW-indicatorHalfWidth, quarterH,
		halfW+indicatorHalfWidth, quarterH,
		white,
	)

	s.drawCentered(label, halfW, halfH)

	// down indicator, pointing down, below the label
	tinydraw.FilledTriangle(s.display,
		halfW, quarterH*3+indicatorHeight,
		halfW-indicatorHalfWidth, quarterH*3,
		halfW+indicatorHalfWidth, quarterH*3,
		white,
	)

	err := s.display.Display()
	if err != nil {
		return err
	}

	s.last = label
	s.drawn = true
	return nil
}

// Invalidate forces the next Render to redraw
func (s *Screen) Invalidate() {
	s.drawn = false
}

// drawCentered writes str so its bounding box is centered on (x, y)
func (s *Screen) drawCentered(str string, x, y int16) {
	_, width := tinyfont.LineWidth(s.font, str)

	// WriteLine takes the baseline; capitals fill about two thirds of the line advance
	baseline := y + int16(s.font.GetYAdvance())/3

	tinyfont.WriteLine(s.display, s.font, x-int16(width)/2, baseline, str, white)
}

func (s *Screen) clear() {
	if c, ok := s.display.(clearer); ok {
		c.ClearBuffer()
		return
	}

	w, h := s.display.Size()
	for x := int16(0); x < w; x++ {
		for y := int16(0); y < h; y++ {
			s.display.SetPixel(x, y, black)
		}
	}
}
