package workflow

import (
	"fmt"
	"strings"
)

// Kind identifies a document type.
type Kind string

const (
	KindResume      Kind = "resume"
	KindCoverLetter Kind = "cover_letter"
)

// Kinds lists every supported document kind in display order.
var Kinds = []Kind{KindResume, KindCoverLetter}

// Title is the human readable name of the kind.
func (k Kind) Title() string {
	switch k {
	case KindResume:
		return "Resume"
	case KindCoverLetter:
		return "Cover Letter"
	default:
		return string(k)
	}
}

// ParseKind accepts the canonical names plus a few common spellings.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resume", "cv":
		return KindResume, nil
	case "cover_letter", "cover-letter", "coverletter", "cl", "letter":
		return KindCoverLetter, nil
	}
	return "", fmt.Errorf("unknown document kind %q", s)
}

// Phase is the position of a document in its generate/refine cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseGenerating
	PhaseReady
	PhaseRefining
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseGenerating:
		return "generating"
	case PhaseReady:
		return "ready"
	case PhaseRefining:
		return "refining"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Busy reports whether a network call is outstanding.
func (p Phase) Busy() bool {
	return p == PhaseGenerating || p == PhaseRefining
}

// Tier is the coarse quality band of a resume score.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// TierFor classifies a score: 80 and above is high, 60 and above is medium.
func TierFor(score float64) Tier {
	switch {
	case score >= 80:
		return TierHigh
	case score >= 60:
		return TierMedium
	default:
		return TierLow
	}
}

// State is a snapshot of one document.
type State struct {
	Kind    Kind
	Phase   Phase
	Content string
	// Score is set for resumes only.
	Score *float64
}

// Tier returns the score tier when a score is present.
func (s State) Tier() (Tier, bool) {
	if s.Score == nil {
		return "", false
	}
	return TierFor(*s.Score), true
}

// HasContent reports whether there is a document to refine or print.
func (s State) HasContent() bool {
	return strings.TrimSpace(s.Content) != ""
}
