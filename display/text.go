package display

import (
	"fmt"
	"io"
)

// Text writes each new label on its own line, framed like the panel template
type Text struct {
	w    io.Writer
	last string
}

// NewText creates a Text display writing to w
func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

// Render writes label if it differs from the previous one
func (t *Text) Render(label string) error {
	if label == t.last {
		return nil
	}
	t.last = label

	_, err := fmt.Fprintf(t.w, "[▲ %s ▼]\n", label)
	return err
}
