package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrProfileNotFound means the backend has no profile for the signed-in
	// user yet.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrUnknownPlan is returned for a checkout plan the backend does not sell.
	ErrUnknownPlan = errors.New("unknown plan")
)

// Error is a non-2xx response from the backend.
type Error struct {
	StatusCode int
	// Detail is the server supplied explanation, if any.
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsPaymentRequired reports whether the server refused for lack of credits.
func (e *Error) IsPaymentRequired() bool {
	return e.StatusCode == http.StatusPaymentRequired
}

// AsError unwraps err into an *Error.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// parseError extracts a message from the error body. The backend answers with
// {"detail": "..."}, validation failures carry a list of {"msg": ...} objects,
// and some paths use {"error": "..."}.
func parseError(statusCode int, body []byte) *Error {
	e := &Error{StatusCode: statusCode}
	if !gjson.ValidBytes(body) {
		e.Detail = strings.TrimSpace(string(body))
		if len(e.Detail) > 200 {
			e.Detail = e.Detail[:200]
		}
		return e
	}

	res := gjson.ParseBytes(body)
	detail := res.Get("detail")
	switch {
	case detail.Type == gjson.String:
		e.Detail = detail.String()
	case detail.IsArray():
		var msgs []string
		for _, item := range detail.Array() {
			if msg := item.Get("msg").String(); msg != "" {
				msgs = append(msgs, msg)
			}
		}
		e.Detail = strings.Join(msgs, "; ")
	case res.Get("error").Type == gjson.String:
		e.Detail = res.Get("error").String()
	case res.Get("message").Type == gjson.String:
		e.Detail = res.Get("message").String()
	}
	return e
}
