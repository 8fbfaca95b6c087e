package content

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Navigator is the window's UI state: which section is open, whether the
// directory panel is expanded and whether the window is shown at all.
type Navigator struct {
	count         int
	active        int
	directoryOpen bool
	windowVisible bool
}

// NewNavigator starts on the first of count sections with the directory
// expanded and the window visible.
func NewNavigator(count int) *Navigator {
	return &Navigator{
		count:         count,
		directoryOpen: true,
		windowVisible: true,
	}
}

func (n *Navigator) Active() int         { return n.active }
func (n *Navigator) DirectoryOpen() bool { return n.directoryOpen }
func (n *Navigator) WindowVisible() bool { return n.windowVisible }

// Navigate selects section i. Out-of-range indexes are ignored and reported
// as false.
func (n *Navigator) Navigate(i int) bool {
	if i < 0 || i >= n.count {
		return false
	}
	n.active = i
	return true
}

// Next moves down the directory, stopping at the last entry.
func (n *Navigator) Next() bool { return n.Navigate(n.active + 1) }

// Prev moves up the directory, stopping at the first entry.
func (n *Navigator) Prev() bool { return n.Navigate(n.active - 1) }

func (n *Navigator) ToggleDirectory() { n.directoryOpen = !n.directoryOpen }

func (n *Navigator) CloseWindow() { n.windowVisible = false }

func (n *Navigator) OpenWindow() { n.windowVisible = true }

// Encode packs the state into a short cookie-safe token "active.dir.win".
func (n *Navigator) Encode() string {
	return strconv.Itoa(n.active) + "." + flag(n.directoryOpen) + "." + flag(n.windowVisible)
}

// DecodeNavigator restores a state produced by Encode. The active index is
// clamped to count.
func DecodeNavigator(token string, count int) (*Navigator, error) {
	n := NewNavigator(count)
	if token == "" {
		return n, nil
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return n, errors.Newf("malformed navigation token %q", token)
	}
	active, err := strconv.Atoi(parts[0])
	if err != nil {
		return n, errors.Wrap(err, "malformed active section")
	}
	n.Navigate(active)
	n.directoryOpen = parts[1] != "0"
	n.windowVisible = parts[2] != "0"
	return n, nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
