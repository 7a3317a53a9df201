package main

import (
	"fmt"
	"io"
	"sync"

	"portfolio-backend/internal/widget"
)

// terminalRenderer prints widget render events as lines of text.
type terminalRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

func newTerminalRenderer(out io.Writer, verbose bool) *terminalRenderer {
	return &terminalRenderer{out: out, verbose: verbose}
}

func (t *terminalRenderer) AppendMessage(text, class string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch class {
	case widget.BubbleUser:
		if t.verbose {
			fmt.Fprintf(t.out, "you> %s\n", text)
		}
	case widget.BubbleError:
		fmt.Fprintf(t.out, "bot! %s\n", text)
	default:
		fmt.Fprintf(t.out, "bot> %s\n", text)
	}
}

func (t *terminalRenderer) SetTyping(visible bool) {
	if !t.verbose || !visible {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, "...")
}

func (t *terminalRenderer) SetOpen(open bool, state widget.State) {
	if !t.verbose {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "[%s]\n", state)
}

func (t *terminalRenderer) FocusInput() {}
