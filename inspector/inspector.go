// Package inspector provides a read-only terminal interface over an
// assembled program: the object listing, the declaration table, and
// the accumulated diagnostics, each in its own pane.
package inspector

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matanmeltz/asm15/object"
	"github.com/matanmeltz/asm15/parser"
)

// Inspector represents the text user interface
type Inspector struct {
	App    *tview.Application
	Layout *tview.Flex

	// View panels
	ListingView     *tview.TextView
	SymbolsView     *tview.TextView
	DiagnosticsView *tview.TextView

	// Focus order for Tab cycling
	focus []*tview.TextView
}

// New creates an inspector over the given program. The object may be
// nil when assembly failed; the diagnostics pane still renders.
func New(prog *parser.Program, obj *object.Object, errs *parser.ErrorList) *Inspector {
	ins := &Inspector{App: tview.NewApplication()}

	ins.initializeViews()
	ins.buildLayout()
	ins.setupKeyBindings()

	ins.ListingView.SetText(formatListing(obj))
	ins.SymbolsView.SetText(formatSymbols(prog))
	ins.DiagnosticsView.SetText(formatDiagnostics(errs))

	return ins
}

// Run starts the interface and blocks until the user quits
func (i *Inspector) Run() error {
	return i.App.SetRoot(i.Layout, true).SetFocus(i.ListingView).Run()
}

// initializeViews creates all the view panels
func (i *Inspector) initializeViews() {
	i.ListingView = tview.NewTextView().
		SetScrollable(true).
		SetWrap(false)
	i.ListingView.SetBorder(true).SetTitle(" Object ")

	i.SymbolsView = tview.NewTextView().
		SetScrollable(true).
		SetWrap(false)
	i.SymbolsView.SetBorder(true).SetTitle(" Symbols ")

	i.DiagnosticsView = tview.NewTextView().
		SetScrollable(true).
		SetWrap(true)
	i.DiagnosticsView.SetBorder(true).SetTitle(" Diagnostics ")

	i.focus = []*tview.TextView{i.ListingView, i.SymbolsView, i.DiagnosticsView}
}

// buildLayout constructs the pane layout
func (i *Inspector) buildLayout() {
	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(i.SymbolsView, 0, 2, false).
		AddItem(i.DiagnosticsView, 0, 1, false)

	i.Layout = tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(i.ListingView, 0, 1, true).
		AddItem(right, 0, 1, false)
}

// setupKeyBindings installs Tab focus cycling and quit keys
func (i *Inspector) setupKeyBindings() {
	i.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyTab:
			i.cycleFocus()
			return nil
		case event.Key() == tcell.KeyEscape,
			event.Rune() == 'q':
			i.App.Stop()
			return nil
		}
		return event
	})
}

// cycleFocus moves focus to the next pane
func (i *Inspector) cycleFocus() {
	for n, view := range i.focus {
		if view.HasFocus() {
			i.App.SetFocus(i.focus[(n+1)%len(i.focus)])
			return
		}
	}
	i.App.SetFocus(i.focus[0])
}

// formatListing renders the object artifact text for the listing pane
func formatListing(obj *object.Object) string {
	if obj == nil {
		return "no object was produced"
	}
	return obj.ObjectListing()
}

// formatSymbols renders the declaration table, one line per
// declaration in emission order
func formatSymbols(prog *parser.Program) string {
	if prog == nil || len(prog.Decls.All()) == 0 {
		return "no symbols"
	}

	longest := 0
	for _, d := range prog.Decls.All() {
		if len(d.Name) > longest {
			longest = len(d.Name)
		}
	}

	var sb strings.Builder
	for _, d := range prog.Decls.All() {
		pad := strings.Repeat(" ", longest-len(d.Name)+1)
		fmt.Fprintf(&sb, "%s%s%-7s %04d\n", d.Name, pad, d.Kind, d.Value)
	}
	return sb.String()
}

// formatDiagnostics renders errors then warnings for the diagnostics
// pane
func formatDiagnostics(errs *parser.ErrorList) string {
	if errs == nil || (len(errs.Errors) == 0 && len(errs.Warnings) == 0) {
		return "no diagnostics"
	}

	var sb strings.Builder
	for _, d := range errs.Errors {
		sb.WriteString(d.Error())
		sb.WriteString("\n")
	}
	for _, w := range errs.Warnings {
		sb.WriteString(w.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
