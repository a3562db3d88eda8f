package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/careerkit/internal/client/gateway"
	"github.com/dmitrijs2005/careerkit/internal/client/notice"
	"github.com/dmitrijs2005/careerkit/internal/client/session"
	"github.com/dmitrijs2005/careerkit/internal/client/workflow"
)

type directTransport struct{}

func (directTransport) Send(req *http.Request) (*http.Response, error) {
	return http.DefaultClient.Do(req)
}

type recorded struct {
	method string
	path   string
	body   map[string]any
}

// newServer answers every request with status and body and records what it
// received.
func newServer(t *testing.T, status int, body string) (*Client, *[]recorded) {
	t.Helper()
	var got []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, &rec.body))
			assert.Equal(t, contentTypeJSON, r.Header.Get(headerContentType))
		}
		got = append(got, rec)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", directTransport{})
	require.NoError(t, err)
	return c, &got
}

func TestNew_ValidatesURL(t *testing.T) {
	_, err := New("ftp://example.com", directTransport{})
	assert.Error(t, err)
	_, err = New("://bad", directTransport{})
	assert.Error(t, err)
}

func TestProfile(t *testing.T) {
	c, got := newServer(t, http.StatusOK, `{
		"email": "ada@example.com", "full_name": "Ada Lovelace", "phone": "+44",
		"location": "London", "linkedin": "in/ada", "portfolio": "ada.dev",
		"credits": "12.5",
		"history": [{"date": "2025-01-02", "plan": "popular", "amount": 9.99, "credits": 250}]
	}`)

	p, err := c.Profile(context.Background())
	require.NoError(t, err)

	want := &Profile{
		Email: "ada@example.com", FullName: "Ada Lovelace", Phone: "+44",
		Location: "London", LinkedIn: "in/ada", Portfolio: "ada.dev", Credits: 12.5,
		History: []Payment{{Date: "2025-01-02", Plan: "popular", Amount: "9.99", Credits: 250}},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, http.MethodGet, (*got)[0].method)
	assert.Equal(t, pathProfile, (*got)[0].path)
}

func TestProfile_Absent(t *testing.T) {
	for _, tc := range []struct {
		status int
		body   string
	}{
		{http.StatusOK, "null"},
		{http.StatusOK, ""},
		{http.StatusNotFound, `{"detail":"not found"}`},
		{http.StatusInternalServerError, "oops"},
	} {
		c, _ := newServer(t, tc.status, tc.body)
		_, err := c.Profile(context.Background())
		assert.ErrorIs(t, err, ErrProfileNotFound, "status %d body %q", tc.status, tc.body)
	}
}

func TestGenerate_Resume(t *testing.T) {
	c, got := newServer(t, http.StatusOK, `{"resume_html":"<h1>Ada</h1>","ats_score":85,"credits_left":0}`)

	res, err := c.Generate(context.Background(), workflow.KindResume, workflow.Inputs{
		ResumeText: "cv", JobDescription: "jd", Style: "harvard",
		Applicant: workflow.Applicant{FullName: "Ada", Email: "ada@example.com", LinkedIn: "in/ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Ada</h1>", res.Content)
	require.NotNil(t, res.Score)
	assert.Equal(t, 85.0, *res.Score)
	require.NotNil(t, res.CreditsLeft)
	assert.Equal(t, 0.0, *res.CreditsLeft)

	req := (*got)[0]
	assert.Equal(t, pathGenerateResume, req.path)
	assert.Equal(t, "harvard", req.body["style"])
	assert.Equal(t, "Ada", req.body["full_name"])
	assert.Equal(t, "in/ada", req.body["linkedin"])
	assert.Equal(t, "", req.body["phone"])
}

func TestGenerate_CoverLetter(t *testing.T) {
	c, got := newServer(t, http.StatusOK, `{"cover_letter_html":"<p>Dear</p>","credits_left":4}`)

	res, err := c.Generate(context.Background(), workflow.KindCoverLetter, workflow.Inputs{
		ResumeText: "cv", JobDescription: "jd", Style: workflow.CoverLetterStyle,
		HiringManager: "Grace", Motivation: "compilers", Highlight: "shipped v1",
		Applicant: workflow.Applicant{Email: "ada@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>Dear</p>", res.Content)
	assert.Nil(t, res.Score)

	body := (*got)[0].body
	assert.Equal(t, pathGenerateLetter, (*got)[0].path)
	assert.Equal(t, "Grace", body["hiring_manager"])
	assert.Equal(t, workflow.CoverLetterStyle, body["style"])
	assert.Equal(t, "ada@example.com", body["email"])
}

func TestGenerate_MissingPayloadIsEmptyResult(t *testing.T) {
	c, _ := newServer(t, http.StatusOK, `{"credits_left":3}`)
	res, err := c.Generate(context.Background(), workflow.KindResume, workflow.Inputs{})
	require.NoError(t, err)
	assert.Empty(t, res.Content)
}

func TestGenerate_ErrorDetail(t *testing.T) {
	c, _ := newServer(t, http.StatusPaymentRequired, `{"detail":"Insufficient credits"}`)
	_, err := c.Generate(context.Background(), workflow.KindResume, workflow.Inputs{})

	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsPaymentRequired())
	assert.Equal(t, "Insufficient credits", apiErr.Detail)
}

func TestRefine(t *testing.T) {
	for _, kind := range workflow.Kinds {
		c, got := newServer(t, http.StatusOK, `{"updated_html":"<p>v2</p>","credits_left":0.5}`)
		res, err := c.Refine(context.Background(), workflow.RefineRequest{
			Kind: kind, Content: "<p>v1</p>", Instruction: "shorter", Email: "ada@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "<p>v2</p>", res.Content)
		assert.Equal(t, 0.5, *res.CreditsLeft)

		body := (*got)[0].body
		assert.Equal(t, pathRefine, (*got)[0].path)
		assert.Equal(t, "<p>v1</p>", body["html"])
		if kind == workflow.KindCoverLetter {
			assert.Equal(t, "cover_letter", body["type"])
		} else {
			assert.NotContains(t, body, "type")
		}
	}
}

func TestCreateCheckout(t *testing.T) {
	c, got := newServer(t, http.StatusOK, `{"checkout_url":"https://pay.example/s/1"}`)

	u, err := c.CreateCheckout(context.Background(), " Popular ")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/s/1", u)
	assert.Equal(t, "popular", (*got)[0].body["plan"])

	_, err = c.CreateCheckout(context.Background(), "enterprise")
	assert.ErrorIs(t, err, ErrUnknownPlan)
	assert.Len(t, *got, 1, "unknown plans never reach the server")
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail string", `{"detail":"Invalid plan"}`, "Invalid plan"},
		{"validation list", `{"detail":[{"loc":["body","plan"],"msg":"field required"},{"msg":"too long"}]}`, "field required; too long"},
		{"error field", `{"error":"Failed to update"}`, "Failed to update"},
		{"plain text", "Bad Gateway", "Bad Gateway"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := parseError(http.StatusBadRequest, []byte(tt.body))
			assert.Equal(t, tt.want, e.Detail)
			assert.Equal(t, http.StatusBadRequest, e.StatusCode)
		})
	}
}

type staticSessions struct{ signedOut chan session.Reason }

func (s staticSessions) Current(context.Context) (*session.Session, bool) {
	return &session.Session{Email: "ada@example.com", Credential: "tok"}, true
}

func (s staticSessions) SignOut(_ context.Context, r session.Reason) error {
	s.signedOut <- r
	return nil
}

func TestClient_ThroughGatewayRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	sessions := staticSessions{signedOut: make(chan session.Reason, 1)}
	gw := gateway.New(sessions, &notice.Recorder{}, gateway.WithSignOutDelay(10*time.Millisecond))
	c, err := New(srv.URL, gw)
	require.NoError(t, err)

	_, err = c.Profile(context.Background())
	require.ErrorIs(t, err, gateway.ErrSessionRejected)
	assert.NotErrorIs(t, err, ErrProfileNotFound)

	select {
	case r := <-sessions.signedOut:
		assert.Equal(t, session.ReasonRejected, r)
	case <-time.After(time.Second):
		t.Fatal("session was not signed out")
	}
}
