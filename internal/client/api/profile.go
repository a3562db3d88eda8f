package api

import (
	"bytes"
	"context"

	"github.com/tidwall/gjson"
)

// Payment is one entry of the user's purchase history.
type Payment struct {
	Date    string  `json:"date"`
	Plan    string  `json:"plan"`
	Amount  string  `json:"amount"`
	Credits float64 `json:"credits"`
}

// Profile is the signed-in user's stored profile.
type Profile struct {
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Location  string    `json:"location"`
	LinkedIn  string    `json:"linkedin"`
	Portfolio string    `json:"portfolio"`
	Credits   float64   `json:"credits"`
	History   []Payment `json:"history"`
}

// Profile fetches the stored profile. A backend without a profile for the
// user answers null or an error status; both map to ErrProfileNotFound.
// Session rejection and connectivity errors are returned unchanged.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	body, err := c.get(ctx, pathProfile, nil)
	if err != nil {
		if _, ok := AsError(err); ok {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return nil, ErrProfileNotFound
	}
	res := gjson.ParseBytes(body)
	if !res.IsObject() {
		return nil, ErrProfileNotFound
	}
	return parseProfile(res), nil
}

// parseProfile is lenient about numeric fields, which the backend sometimes
// sends as strings.
func parseProfile(res gjson.Result) *Profile {
	p := &Profile{
		Email:     res.Get("email").String(),
		FullName:  res.Get("full_name").String(),
		Phone:     res.Get("phone").String(),
		Location:  res.Get("location").String(),
		LinkedIn:  res.Get("linkedin").String(),
		Portfolio: res.Get("portfolio").String(),
		Credits:   res.Get("credits").Float(),
	}
	for _, item := range res.Get("history").Array() {
		p.History = append(p.History, Payment{
			Date:    item.Get("date").String(),
			Plan:    item.Get("plan").String(),
			Amount:  item.Get("amount").String(),
			Credits: item.Get("credits").Float(),
		})
	}
	return p
}
