package api

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Plans the backend sells, in ascending size.
var Plans = []string{"basic", "popular", "pro"}

type checkoutRequest struct {
	Plan string `json:"plan"`
}

type checkoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// CreateCheckout starts a payment for plan and returns the URL the user has
// to open to complete it.
func (c *Client) CreateCheckout(ctx context.Context, plan string) (string, error) {
	plan = strings.ToLower(strings.TrimSpace(plan))
	if !slices.Contains(Plans, plan) {
		return "", fmt.Errorf("%w %q (choose one of %s)", ErrUnknownPlan, plan, strings.Join(Plans, ", "))
	}

	var resp checkoutResponse
	if _, err := c.post(ctx, pathCreateCheckout, checkoutRequest{Plan: plan}, &resp); err != nil {
		return "", err
	}
	if resp.CheckoutURL == "" {
		return "", fmt.Errorf("checkout for %s: server returned no url", plan)
	}
	return resp.CheckoutURL, nil
}
