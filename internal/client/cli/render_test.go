package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/careerkit/internal/client/api"
	"github.com/dmitrijs2005/careerkit/internal/client/workflow"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "blocks and inline",
			markup: "<h1>Ada</h1><p>Line <b>bold</b> end</p><ul><li>One</li><li>Two</li></ul>",
			want:   "Ada\nLine bold end\n- One\n- Two",
		},
		{
			name:   "styles dropped",
			markup: "<html><head><style>p{color:red}</style></head><body><p>Hello</p></body></html>",
			want:   "Hello",
		},
		{
			name:   "whitespace collapsed",
			markup: "<p>  Dear\n\n   Grace,  </p>\n\n<p>Thanks</p>",
			want:   "Dear Grace,\nThanks",
		},
		{
			name:   "plain text",
			markup: "just text",
			want:   "just text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, plainText(tt.markup))
		})
	}
}

func TestDescribeState(t *testing.T) {
	score := 72.5
	assert.Equal(t, "Resume: idle", describeState(workflow.State{Kind: workflow.KindResume, Phase: workflow.PhaseIdle}))
	assert.Equal(t, "Resume: ready (ATS score 72.5, medium)",
		describeState(workflow.State{Kind: workflow.KindResume, Phase: workflow.PhaseReady, Content: "<p>x</p>", Score: &score}))
	assert.Equal(t, "Cover Letter: generating",
		describeState(workflow.State{Kind: workflow.KindCoverLetter, Phase: workflow.PhaseGenerating}))
}

func TestRenderProfile(t *testing.T) {
	var buf bytes.Buffer
	renderProfile(&buf, &api.Profile{Email: "ada@example.com", FullName: "Ada Lovelace", Credits: 3.5})
	out := buf.String()
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "3.5")
	assert.Contains(t, out, "No payments yet.")

	buf.Reset()
	renderProfile(&buf, &api.Profile{
		Email:   "ada@example.com",
		History: []api.Payment{{Date: "2026-10-01", Plan: "popular", Amount: "$19", Credits: 25}},
	})
	out = buf.String()
	assert.Contains(t, out, "Payment history:")
	assert.Contains(t, out, "popular")
	assert.Contains(t, out, "+25")
	assert.NotContains(t, out, "No payments yet.")
}
