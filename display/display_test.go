package display

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct{ x, y int16 }

type fakeDisplay struct {
	w, h     int16
	pixels   map[point]bool
	displays int
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{w: 128, h: 64, pixels: map[point]bool{}}
}

func (d *fakeDisplay) Size() (int16, int16) {
	return d.w, d.h
}

func (d *fakeDisplay) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= d.w || y >= d.h {
		return
	}
	d.pixels[point{x, y}] = c.R > 0
}

func (d *fakeDisplay) Display() error {
	d.displays++
	return nil
}

// lit counts pixels that are on in rows [y0, y1]
func (d *fakeDisplay) lit(y0, y1 int16) int {
	n := 0
	for p, on := range d.pixels {
		if on && p.y >= y0 && p.y <= y1 {
			n++
		}
	}
	return n
}

func TestScreenTemplate(t *testing.T) {
	d := newFakeDisplay()
	s := NewScreen(d)

	require.NoError(t, s.Render("Speed"))
	assert.Equal(t, 1, d.displays)

	// indicators sit in the top and bottom quarters, the label in between
	assert.Positive(t, d.lit(6, 16), "up indicator")
	assert.Positive(t, d.lit(48, 58), "down indicator")
	assert.Positive(t, d.lit(20, 44), "label")

	// nothing outside the template
	assert.Zero(t, d.lit(0, 5))
	assert.Zero(t, d.lit(59, 63))
}

func TestScreenSkipsUnchangedLabel(t *testing.T) {
	d := newFakeDisplay()
	s := NewScreen(d)

	require.NoError(t, s.Render("Speed"))
	require.NoError(t, s.Render("Speed"))
	assert.Equal(t, 1, d.displays)

	require.NoError(t, s.Render("-1"))
	assert.Equal(t, 2, d.displays)

	s.Invalidate()
	require.NoError(t, s.Render("-1"))
	assert.Equal(t, 3, d.displays)
}

func TestScreenClearsPreviousLabel(t *testing.T) {
	d := newFakeDisplay()
	s := NewScreen(d)

	require.NoError(t, s.Render("DISABLED"))
	wide := d.lit(20, 44)

	require.NoError(t, s.Render("0"))
	narrow := d.lit(20, 44)

	assert.Less(t, narrow, wide)
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	txt := NewText(&buf)

	require.NoError(t, txt.Render("Speed"))
	require.NoError(t, txt.Render("Speed"))
	require.NoError(t, txt.Render("1"))

	assert.Equal(t, "[▲ Speed ▼]\n[▲ 1 ▼]\n", buf.String())
}
