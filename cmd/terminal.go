package cmd

import (
	"context"
	"io"
	"os"
	"runtime"
	"strconv"
	"time"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"
)

const (
	fallbackWidth  = 120
	resizeInterval = 250 * time.Millisecond
)

// Indirections replaced in tests.
var (
	stdinIsPiped = func() bool {
		stat, err := os.Stdin.Stat()
		return err == nil && stat.Mode()&os.ModeCharDevice == 0
	}
	openTTY     = openControllingTerminal
	termGetSize = term.GetSize
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// detectTerminalSize asks stdout, stderr and stdin in turn and falls back to
// $COLUMNS, then to a fixed width. A zero height means unknown.
func detectTerminalSize() (width, height int) {
	for _, f := range []*os.File{os.Stdout, os.Stderr, os.Stdin} {
		w, h, err := termGetSize(int(f.Fd()))
		if err == nil && (w > 0 || h > 0) {
			return w, h
		}
	}
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n, 0
	}
	return fallbackWidth, 0
}

// tty is the controlling terminal, opened separately from stdin/stdout.
type tty struct {
	in, out *os.File
}

func (t *tty) Close() {
	_ = t.in.Close()
	if t.out != nil && t.out != t.in {
		_ = t.out.Close()
	}
}

func terminalDeviceNames(goos string) (input, output string) {
	if goos == "windows" {
		return "CONIN$", "CONOUT$"
	}
	return "/dev/tty", "/dev/tty"
}

func openControllingTerminal() (*tty, error) {
	inName, outName := terminalDeviceNames(runtime.GOOS)
	in, err := os.OpenFile(inName, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	t := &tty{in: in, out: in}
	if outName != inName {
		if t.out, err = os.OpenFile(outName, os.O_RDWR, 0); err != nil {
			t.out = nil
		}
	}
	return t, nil
}

// getProgramOptions returns extra program options when stdin carries the
// records: keys and resizes then come from the controlling terminal. The
// returned function releases it.
func getProgramOptions(ctx context.Context) ([]tea.ProgramOption, func()) {
	if !stdinIsPiped() {
		return nil, func() {}
	}
	t, err := openTTY()
	if err != nil {
		// no controlling terminal
		return nil, func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	opts := []tea.ProgramOption{tea.WithInput(t.in)}
	if t.out != nil {
		opts = append(opts, tea.WithOutput(t.out), watchResize(ctx, t.out, resizeInterval))
	}
	return opts, func() {
		cancel()
		t.Close()
	}
}

// watchResize polls f for size changes, which do not reach a reopened
// terminal as signals, and forwards them to the program.
func watchResize(ctx context.Context, f *os.File, every time.Duration) tea.ProgramOption {
	return func(p *tea.Program) {
		go func() {
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			var last tea.WindowSizeMsg
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
				w, h, err := termGetSize(int(f.Fd()))
				if err != nil {
					continue
				}
				if msg := (tea.WindowSizeMsg{Width: w, Height: h}); msg != last {
					last = msg
					p.Send(msg)
				}
			}
		}()
	}
}
