package workflow

import (
	"context"
	"strings"
)

const (
	// DefaultStyle is used for resumes when no style is chosen.
	DefaultStyle = "harvard"
	// CoverLetterStyle is always sent for cover letters.
	CoverLetterStyle = "professional, concise, one-page format"
	// DefaultHiringManager addresses a cover letter when no name is known.
	DefaultHiringManager = "Hiring Manager"
)

// Applicant carries the profile fields sent along with a generation request.
type Applicant struct {
	FullName  string
	Email     string
	Phone     string
	Location  string
	LinkedIn  string
	Portfolio string
}

// Inputs are the user supplied fields of a generation request. The cover
// letter fields are ignored for resumes.
type Inputs struct {
	ResumeText     string
	JobDescription string
	Style          string

	HiringManager string
	Motivation    string
	Highlight     string

	Applicant Applicant
}

func (in Inputs) missing() []string {
	var fields []string
	if strings.TrimSpace(in.ResumeText) == "" {
		fields = append(fields, "resume text")
	}
	if strings.TrimSpace(in.JobDescription) == "" {
		fields = append(fields, "job description")
	}
	return fields
}

// normalized fills defaults for kind.
func (in Inputs) normalized(kind Kind) Inputs {
	in.ResumeText = strings.TrimSpace(in.ResumeText)
	in.JobDescription = strings.TrimSpace(in.JobDescription)
	switch kind {
	case KindCoverLetter:
		in.Style = CoverLetterStyle
		if strings.TrimSpace(in.HiringManager) == "" {
			in.HiringManager = DefaultHiringManager
		}
	default:
		if strings.TrimSpace(in.Style) == "" {
			in.Style = DefaultStyle
		}
	}
	return in
}

// RefineRequest asks the backend to rewrite existing content.
type RefineRequest struct {
	Kind        Kind
	Content     string
	Instruction string
	Email       string
}

// Result is a successful backend response. Missing fields stay nil or empty.
type Result struct {
	Content     string
	Score       *float64
	CreditsLeft *float64
}

// Backend performs the metered generation calls.
type Backend interface {
	Generate(ctx context.Context, kind Kind, in Inputs) (Result, error)
	Refine(ctx context.Context, req RefineRequest) (Result, error)
}
