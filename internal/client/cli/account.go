package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/careerkit/internal/client/api"
	"github.com/dmitrijs2005/careerkit/internal/client/credits"
	"github.com/dmitrijs2005/careerkit/internal/client/notice"
	"github.com/dmitrijs2005/careerkit/internal/client/workflow"
)

// refreshProfile fetches the profile, records the authoritative balance and
// caches the profile for generation requests. A user without a profile gets
// a nil profile and a hint.
func (a *App) refreshProfile(ctx context.Context) (*api.Profile, error) {
	p, err := a.api.Profile(ctx)
	if errors.Is(err, api.ErrProfileNotFound) {
		a.notify(notice.Info, "Complete your profile on the website so documents include your contact details.")
		return nil, nil
	}
	if err != nil {
		return nil, fail("Could not load your profile", err)
	}

	a.ledger.Observe(p.Credits)
	if err := a.sessions.SaveProfileSnapshot(ctx, p); err != nil {
		a.log.Warn(ctx, "cache profile", "err", err)
	}
	return p, nil
}

// Profile shows the stored profile with balance and payment history.
func (a *App) Profile(ctx context.Context) error {
	if !a.isLoggedIn(ctx) {
		return workflow.ErrNoSession
	}
	p, err := a.refreshProfile(ctx)
	if err != nil || p == nil {
		return err
	}
	renderProfile(a.out, p)
	return nil
}

// Credits refreshes and prints the balance.
func (a *App) Credits(ctx context.Context) error {
	if !a.isLoggedIn(ctx) {
		return workflow.ErrNoSession
	}
	if _, err := a.refreshProfile(ctx); err != nil {
		return err
	}
	balance, known := a.ledger.Balance()
	if !known {
		fmt.Fprintln(a.out, "Credits: unknown")
		return nil
	}
	costs := a.selector.Workflow(workflow.KindResume).Costs()
	fmt.Fprintf(a.out, "Credits: %s (generate costs %s, refine costs %s)\n",
		credits.Format(balance), credits.Format(costs.Generate), credits.Format(costs.Refine))
	return nil
}

// Buy starts a checkout for plan and prints the payment link.
func (a *App) Buy(ctx context.Context, args []string) error {
	if !a.isLoggedIn(ctx) {
		return workflow.ErrNoSession
	}
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: buy <basic|popular|pro>")
		return nil
	}
	url, err := a.api.CreateCheckout(ctx, args[0])
	if err != nil {
		if errors.Is(err, api.ErrUnknownPlan) {
			return err
		}
		return fail("Could not start checkout", err)
	}
	a.notify(notice.Success, "Checkout created. Open this link to complete the payment:")
	fmt.Fprintln(a.out, url)
	fmt.Fprintln(a.out, "Type 'credits' once the payment has gone through.")
	return nil
}
