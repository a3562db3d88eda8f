package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/careerkit/internal/client/api"
	"github.com/dmitrijs2005/careerkit/internal/client/notice"
	"github.com/dmitrijs2005/careerkit/internal/client/session"
	"github.com/dmitrijs2005/careerkit/internal/client/workflow"
	"github.com/dmitrijs2005/careerkit/internal/filex"
)

// View prints or switches the active document. Switching never touches
// either document.
func (a *App) View(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, describeState(a.selector.Current()))
		return nil
	}

	kind, err := workflow.ParseKind(strings.Join(args, " "))
	if err != nil {
		fmt.Fprintln(a.out, "Usage: view <resume|cover_letter>")
		return nil
	}
	if err := a.selector.Select(kind); err != nil {
		return err
	}
	if a.isLoggedIn(ctx) {
		if err := a.sessions.SavePreferences(ctx, session.Preferences{ActiveView: string(kind)}); err != nil {
			a.log.Warn(ctx, "save preferences", "err", err)
		}
	}
	fmt.Fprintln(a.out, describeState(a.selector.Current()))
	return nil
}

// Generate collects the inputs of the active document and generates it.
func (a *App) Generate(ctx context.Context) error {
	w := a.selector.Workflow(a.selector.Active())
	st := w.State()
	if st.Phase.Busy() {
		return workflow.ErrBusy
	}
	if !a.isLoggedIn(ctx) {
		return workflow.ErrNoSession
	}
	if !a.ledger.CanAfford(w.Costs().Generate) {
		return workflow.ErrInsufficientCredits
	}

	in, err := a.collectInputs(ctx, w.Kind())
	if err != nil {
		return fail("Could not read input", err)
	}

	a.notify(notice.Info, fmt.Sprintf("Generating your %s...", w.Kind().Title()))
	if err := a.selector.Generate(ctx, in); err != nil {
		if isWorkflowFailure(err) {
			return fail(fmt.Sprintf("Failed to generate your %s", w.Kind().Title()), err)
		}
		return err
	}

	a.notify(notice.Success, fmt.Sprintf("Your %s is ready.", w.Kind().Title()))
	return a.Show(ctx)
}

// Refine applies an instruction to the active document. An empty
// instruction does nothing.
func (a *App) Refine(ctx context.Context, args []string) error {
	st := a.selector.Current()
	switch {
	case st.Phase.Busy():
		return workflow.ErrBusy
	case st.Phase != workflow.PhaseReady:
		return workflow.ErrNotReady
	}

	instruction := strings.TrimSpace(strings.Join(args, " "))
	if instruction == "" {
		var err error
		if instruction, err = GetSimpleText(a.in, "What should change?", a.out); err != nil {
			return fail("Could not read input", err)
		}
		if instruction == "" {
			return nil
		}
	}

	if err := a.selector.Refine(ctx, instruction); err != nil {
		if isWorkflowFailure(err) {
			return fail(fmt.Sprintf("Could not update your %s. Please try again", st.Kind.Title()), err)
		}
		return err
	}

	a.notify(notice.Success, fmt.Sprintf("Your %s was updated.", st.Kind.Title()))
	return a.Show(ctx)
}

// Show prints the active document as plain text.
func (a *App) Show(ctx context.Context) error {
	st := a.selector.Current()
	fmt.Fprintln(a.out, describeState(st))
	if st.HasContent() {
		fmt.Fprintln(a.out, strings.Repeat("-", 60))
		fmt.Fprintln(a.out, plainText(st.Content))
		fmt.Fprintln(a.out, strings.Repeat("-", 60))
	}
	return nil
}

// Print writes the active document as a printable HTML page into the export
// directory.
func (a *App) Print(ctx context.Context) error {
	st := a.selector.Current()
	if !st.HasContent() {
		return a.selector.Print(io.Discard)
	}

	dir, err := filex.EnsureSubdDir(a.config.ExportDir)
	if err != nil {
		return fail("Could not create the export directory", err)
	}
	path, err := filex.WriteNew(dir, filex.ExportName(st.Kind.Title(), a.now(), ".html"), a.selector.Print)
	if err != nil {
		return fail("Could not write the printable page", err)
	}
	a.notify(notice.Success, fmt.Sprintf("Saved a printable %s to %s. Open it in a browser and print.", st.Kind.Title(), path))
	return nil
}

// collectInputs prompts for the fields of kind, offering saved drafts, and
// stores the answers as drafts for the next run.
func (a *App) collectInputs(ctx context.Context, kind workflow.Kind) (workflow.Inputs, error) {
	var in workflow.Inputs
	var err error

	if in.ResumeText, err = a.draftedMultiline(ctx, session.DraftResumeText, "resume text", "Paste your current resume text"); err != nil {
		return in, err
	}
	if in.JobDescription, err = a.draftedMultiline(ctx, session.DraftJobDescription, "job description", "Paste the job description"); err != nil {
		return in, err
	}

	switch kind {
	case workflow.KindResume:
		if in.Style, err = a.draftedLine(ctx, session.DraftStyle, "Resume style", workflow.DefaultStyle); err != nil {
			return in, err
		}
	case workflow.KindCoverLetter:
		if in.HiringManager, err = a.draftedLine(ctx, session.DraftHiringManager, "Hiring manager", workflow.DefaultHiringManager); err != nil {
			return in, err
		}
		if in.Motivation, err = a.draftedLine(ctx, session.DraftMotivation, "Why this company? (optional)", ""); err != nil {
			return in, err
		}
		if in.Highlight, err = a.draftedLine(ctx, session.DraftHighlight, "Achievement to highlight (optional)", ""); err != nil {
			return in, err
		}
	}

	var p api.Profile
	if ok, err := a.sessions.ProfileSnapshot(ctx, &p); err != nil {
		a.log.Warn(ctx, "read cached profile", "err", err)
	} else if ok {
		in.Applicant = workflow.Applicant{
			FullName:  p.FullName,
			Email:     p.Email,
			Phone:     p.Phone,
			Location:  p.Location,
			LinkedIn:  p.LinkedIn,
			Portfolio: p.Portfolio,
		}
	}
	return in, nil
}

func (a *App) draftedMultiline(ctx context.Context, field, label, prompt string) (string, error) {
	draft, err := a.sessions.Draft(ctx, field)
	if err != nil {
		a.log.Warn(ctx, "read draft", "field", field, "err", err)
	}
	if draft != "" {
		keep, err := Confirm(a.in, fmt.Sprintf("Use your saved %s (%d characters)?", label, len(draft)), true, a.out)
		if err != nil {
			return "", err
		}
		if keep {
			return draft, nil
		}
	}

	text, err := GetMultiline(a.in, prompt, a.out)
	if err != nil {
		return "", err
	}
	a.saveDraft(ctx, field, text)
	return text, nil
}

func (a *App) draftedLine(ctx context.Context, field, prompt, def string) (string, error) {
	draft, err := a.sessions.Draft(ctx, field)
	if err != nil {
		a.log.Warn(ctx, "read draft", "field", field, "err", err)
	}
	if draft != "" {
		def = draft
	}
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]", prompt, def)
	}

	text, err := GetSimpleText(a.in, prompt, a.out)
	if err != nil {
		return "", err
	}
	if text == "" {
		text = def
	}
	a.saveDraft(ctx, field, text)
	return text, nil
}

func (a *App) saveDraft(ctx context.Context, field, text string) {
	if !a.isLoggedIn(ctx) {
		return
	}
	if err := a.sessions.SaveDraft(ctx, field, text); err != nil {
		a.log.Warn(ctx, "save draft", "field", field, "err", err)
	}
}
