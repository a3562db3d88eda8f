package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/careerkit/internal/client/api"
	"github.com/dmitrijs2005/careerkit/internal/client/gateway"
	"github.com/dmitrijs2005/careerkit/internal/client/notice"
	"github.com/dmitrijs2005/careerkit/internal/client/view"
	"github.com/dmitrijs2005/careerkit/internal/client/workflow"
)

// failure carries the message shown to the user for err.
type failure struct {
	msg string
	err error
}

func (f *failure) Error() string {
	if f.err == nil {
		return f.msg
	}
	return f.msg + ": " + f.err.Error()
}

func (f *failure) Unwrap() error { return f.err }

func fail(msg string, err error) error {
	return &failure{msg: msg, err: err}
}

// report turns a command error into a notice. Errors the gateway already
// announced, and responses dropped after a sign-out, stay silent.
func (a *App) report(err error) {
	if err == nil {
		return
	}
	a.log.Debug(context.Background(), "command failed", "err", err)

	level, msg := describe(err)
	if msg != "" {
		a.notify(level, msg)
	}
}

func describe(err error) (notice.Level, string) {
	switch {
	case errors.Is(err, gateway.ErrSessionRejected),
		errors.Is(err, gateway.ErrUnavailable),
		errors.Is(err, workflow.ErrSuperseded):
		return notice.Error, ""
	case errors.Is(err, workflow.ErrNoSession):
		return notice.Error, "Please sign in first (type 'login')."
	case errors.Is(err, workflow.ErrMissingInputs):
		return notice.Error, "Please provide both resume text and job description."
	case errors.Is(err, workflow.ErrInsufficientCredits), paymentRequired(err):
		return notice.Error, fmt.Sprintf("Out of credits. Type 'buy <plan>' to top up (plans: %s).", strings.Join(api.Plans, ", "))
	case errors.Is(err, workflow.ErrBusy):
		return notice.Info, "Still working on the previous request, please wait."
	case errors.Is(err, workflow.ErrNotReady):
		return notice.Error, "Nothing to refine yet. Type 'generate' first."
	case errors.Is(err, view.ErrNothingToPrint):
		return notice.Error, capitalize(strings.TrimPrefix(err.Error(), view.ErrNothingToPrint.Error()+": ")) + "."
	case errors.Is(err, api.ErrUnknownPlan):
		return notice.Error, capitalize(err.Error()) + "."
	}

	var f *failure
	if errors.As(err, &f) {
		msg := f.msg
		if apiErr, ok := api.AsError(err); ok && apiErr.Detail != "" {
			msg += ". " + apiErr.Detail
		}
		if !strings.HasSuffix(msg, ".") {
			msg += "."
		}
		return notice.Error, msg
	}
	return notice.Error, "Something went wrong: " + err.Error()
}

// paymentRequired reports a 402 from the backend: the mirrored balance said
// the call was affordable but the server disagreed.
func paymentRequired(err error) bool {
	apiErr, ok := api.AsError(err)
	return ok && apiErr.IsPaymentRequired()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// isWorkflowFailure reports whether err is a backend failure that still
// needs a message, as opposed to a precondition or an already announced
// session problem.
func isWorkflowFailure(err error) bool {
	for _, known := range []error{
		gateway.ErrSessionRejected,
		gateway.ErrUnavailable,
		workflow.ErrSuperseded,
		workflow.ErrNoSession,
		workflow.ErrMissingInputs,
		workflow.ErrInsufficientCredits,
		workflow.ErrBusy,
		workflow.ErrNotReady,
	} {
		if errors.Is(err, known) {
			return false
		}
	}
	return true
}
