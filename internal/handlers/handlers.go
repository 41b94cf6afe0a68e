// Package handlers maps user interactions to View State updates.
//
// Handlers never return errors: invalid input is logged and discarded so the
// table keeps its previous state.
package handlers

import (
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/rtable/internal/field"
	"github.com/oakwood-commons/rtable/internal/viewstate"
)

// Handlers binds interaction events to one table's state.
type Handlers struct {
	State  *viewstate.State
	Fields []field.Field
	Logger logr.Logger
}

// New returns Handlers for st and fields.
func New(st *viewstate.State, fields []field.Field, log logr.Logger) *Handlers {
	return &Handlers{State: st, Fields: fields, Logger: log}
}

func (h *Handlers) log() logr.Logger {
	if h.Logger.GetSink() == nil {
		return logr.Discard()
	}
	return h.Logger.WithValues("table", h.State.ID())
}

// ClickHeader activates sorting on the column with key. Unknown and
// formatted (unsortable) columns are ignored.
func (h *Handlers) ClickHeader(key string) {
	f, ok := field.Find(h.Fields, key)
	if !ok {
		h.log().V(1).Info("ignoring header click on unknown column", "column", key)
		return
	}
	if !f.Sortable() {
		h.log().V(1).Info("ignoring header click on unsortable column", "column", key)
		return
	}
	h.State.ActivateSort(key)
}

// FilterChanged stores committed filter text.
func (h *Handlers) FilterChanged(text string) {
	h.State.SetFilter(text)
}

// RowsPerPageChanged parses raw as the page size.
func (h *Handlers) RowsPerPageChanged(raw string) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		h.log().V(1).Info("ignoring rows per page input", "input", raw, "error", err.Error())
		return
	}
	if err := h.State.SetRowsPerPage(n); err != nil {
		h.log().V(1).Info("ignoring rows per page input", "input", raw, "error", err.Error())
	}
}

// PageNumberChanged parses raw as a 1-based page number.
func (h *Handlers) PageNumberChanged(raw string) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		h.log().V(1).Info("ignoring page number input", "input", raw, "error", err.Error())
		return
	}
	h.State.SetCurrentPage(n - 1)
}

// Previous moves one page back.
func (h *Handlers) Previous() { h.State.Previous() }

// Next moves one page forward.
func (h *Handlers) Next() { h.State.Next() }
