// Package view routes the shared document actions to the selected workflow.
package view

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"sync"

	"github.com/dmitrijs2005/careerkit/internal/client/workflow"
)

// ErrNothingToPrint is returned by Print when the active document is empty.
var ErrNothingToPrint = errors.New("document is not ready yet")

// Selector holds one workflow per document kind and tracks which of them is
// active. It never changes workflow state by itself.
type Selector struct {
	workflows map[workflow.Kind]*workflow.Workflow

	mu     sync.RWMutex
	active workflow.Kind
}

// NewSelector activates the first workflow given.
func NewSelector(ws ...*workflow.Workflow) (*Selector, error) {
	if len(ws) == 0 {
		return nil, errors.New("view: no workflows")
	}
	s := &Selector{workflows: make(map[workflow.Kind]*workflow.Workflow, len(ws))}
	for _, w := range ws {
		if _, dup := s.workflows[w.Kind()]; dup {
			return nil, fmt.Errorf("view: duplicate workflow for %s", w.Kind())
		}
		s.workflows[w.Kind()] = w
	}
	s.active = ws[0].Kind()
	return s, nil
}

// Select makes kind the target of subsequent actions.
func (s *Selector) Select(kind workflow.Kind) error {
	if _, ok := s.workflows[kind]; !ok {
		return fmt.Errorf("view: no workflow for %s", kind)
	}
	s.mu.Lock()
	s.active = kind
	s.mu.Unlock()
	return nil
}

func (s *Selector) Active() workflow.Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Workflow returns the workflow for kind, or nil.
func (s *Selector) Workflow(kind workflow.Kind) *workflow.Workflow {
	return s.workflows[kind]
}

func (s *Selector) activeWorkflow() *workflow.Workflow {
	return s.workflows[s.Active()]
}

// Current is the state of the active document.
func (s *Selector) Current() workflow.State {
	return s.activeWorkflow().State()
}

func (s *Selector) Generate(ctx context.Context, in workflow.Inputs) error {
	return s.activeWorkflow().Generate(ctx, in)
}

func (s *Selector) Refine(ctx context.Context, instruction string) error {
	return s.activeWorkflow().Refine(ctx, instruction)
}

// ResetAll returns every workflow to Idle.
func (s *Selector) ResetAll() {
	for _, w := range s.workflows {
		w.Reset()
	}
}

var printPage = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8">
    <title>Print {{.Title}}</title>
    <style>
      @page { size: A4; }
      body { padding: 0; -webkit-print-color-adjust: exact; print-color-adjust: exact; font-family: sans-serif; }
      .paper-a4 { width: 100%; max-width: 210mm; margin: 0 auto; box-shadow: none; }
    </style>
  </head>
  <body>
    {{.Body}}
  </body>
</html>
`))

// Print writes the active document as a standalone printable HTML page.
func (s *Selector) Print(w io.Writer) error {
	st := s.Current()
	if !st.HasContent() {
		return fmt.Errorf("%w: generate your %s first", ErrNothingToPrint, st.Kind.Title())
	}
	return printPage.Execute(w, struct {
		Title string
		// The backend produces the document markup; it is embedded as is.
		Body template.HTML
	}{
		Title: st.Kind.Title(),
		Body:  template.HTML(st.Content),
	})
}
