package ui

import (
	"context"
	"os"
	"sync"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/oakwood-commons/rtable/internal/table"
)

// Bridge forwards data change notifications from a table into a running
// program. Notifications that arrive while no program is attached run
// Detached, or are held and delivered once a program is attached when
// Detached is nil.
type Bridge struct {
	Detached func()

	mu      sync.Mutex
	prog    *tea.Program
	pending bool
}

// Notify is meant for table.Options.OnDataChange.
func (b *Bridge) Notify() {
	b.mu.Lock()
	p, detached := b.prog, b.Detached
	if p == nil && detached == nil {
		b.pending = true
	}
	b.mu.Unlock()
	switch {
	case p != nil:
		go p.Send(DataChangedMsg{})
	case detached != nil:
		detached()
	}
}

func (b *Bridge) attach(p *tea.Program) {
	b.mu.Lock()
	b.prog = p
	pending := b.pending
	b.pending = false
	b.mu.Unlock()
	if pending {
		go p.Send(DataChangedMsg{})
	}
}

func (b *Bridge) detach() {
	b.mu.Lock()
	b.prog = nil
	b.mu.Unlock()
}

// Run starts the interactive table and blocks until the user quits or ctx
// is canceled. bridge may be nil when the data never changes.
func Run(ctx context.Context, t *table.Table, bridge *Bridge, opts Options, progOpts ...tea.ProgramOption) error {
	m := New(ctx, t, opts)
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		m.width, m.height = w, h
	}

	progOpts = append([]tea.ProgramOption{tea.WithContext(ctx)}, progOpts...)
	prog := tea.NewProgram(m, progOpts...)
	if bridge != nil {
		bridge.attach(prog)
		defer bridge.detach()
	}
	_, err := prog.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
