package typewriter

import "time"

const (
	Caret = "|"

	// BlinkPeriod is one full on/off caret cycle; the caret is shown for the
	// first half (step-start).
	BlinkPeriod = time.Second
)

// CaretVisible reports whether the caret is lit after elapsed time.
func CaretVisible(elapsed time.Duration) bool {
	if elapsed < 0 {
		elapsed = -elapsed
	}
	return elapsed%BlinkPeriod < BlinkPeriod/2
}

// Render appends the caret to text. A hidden caret keeps its cell so the
// line does not shift while blinking.
func Render(text string, caretVisible bool) string {
	if caretVisible {
		return text + " " + Caret
	}
	return text + "  "
}
