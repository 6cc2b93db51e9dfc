package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

// elapsedLabel is a canvas text showing the time since it was last reset, like "up 02:05"
type elapsedLabel struct {
	prefix  string
	precise bool

	mu    sync.Mutex
	since time.Time

	text *canvas.Text
}

func newElapsedLabel(prefix string, precise bool) *elapsedLabel {
	e := &elapsedLabel{
		prefix:  prefix,
		precise: precise,
		since:   time.Now(),
	}
	e.text = canvas.NewText(e.String(), nil)
	return e
}

// Reset restarts the count from now
func (e *elapsedLabel) Reset() {
	e.mu.Lock()
	e.since = time.Now()
	e.mu.Unlock()
}

func (e *elapsedLabel) String() string {
	e.mu.Lock()
	elapsed := time.Since(e.since)
	e.mu.Unlock()

	return e.prefix + " " + formatElapsed(elapsed, e.precise)
}

// Run refreshes the text until ctx is done
func (e *elapsedLabel) Run(ctx context.Context) {
	every := time.Second
	if e.precise {
		every = 64 * time.Millisecond
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		text := e.String()
		fyne.Do(func() {
			e.text.Text = text
			e.text.Refresh()
		})
	}
}

// formatElapsed renders MM:SS, or MM:SS.mmm when precise. Minutes keep counting past an hour.
func formatElapsed(elapsed time.Duration, precise bool) string {
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60
	if !precise {
		return fmt.Sprintf("%02d:%02d", minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, elapsed.Milliseconds()%1000)
}
