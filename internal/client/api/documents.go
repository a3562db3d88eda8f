package api

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/careerkit/internal/client/workflow"
)

type generateResumeRequest struct {
	Style          string `json:"style"`
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Location       string `json:"location"`
	LinkedIn       string `json:"linkedin"`
	Portfolio      string `json:"portfolio"`
}

type generateResumeResponse struct {
	ResumeHTML  string   `json:"resume_html"`
	ATSScore    *float64 `json:"ats_score"`
	CreditsLeft *float64 `json:"credits_left"`
}

type generateCoverLetterRequest struct {
	Email          string `json:"email"`
	Style          string `json:"style"`
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
	HiringManager  string `json:"hiring_manager"`
	Motivation     string `json:"motivation"`
	Highlight      string `json:"highlight"`
}

type generateCoverLetterResponse struct {
	CoverLetterHTML string   `json:"cover_letter_html"`
	CreditsLeft     *float64 `json:"credits_left"`
}

type refineRequest struct {
	HTML        string `json:"html"`
	Instruction string `json:"instruction"`
	Email       string `json:"email"`
	Type        string `json:"type,omitempty"`
}

type refineResponse struct {
	UpdatedHTML string   `json:"updated_html"`
	CreditsLeft *float64 `json:"credits_left"`
}

// Generate implements workflow.Backend.
func (c *Client) Generate(ctx context.Context, kind workflow.Kind, in workflow.Inputs) (workflow.Result, error) {
	switch kind {
	case workflow.KindResume:
		var resp generateResumeResponse
		_, err := c.post(ctx, pathGenerateResume, generateResumeRequest{
			Style:          in.Style,
			ResumeText:     in.ResumeText,
			JobDescription: in.JobDescription,
			FullName:       in.Applicant.FullName,
			Email:          in.Applicant.Email,
			Phone:          in.Applicant.Phone,
			Location:       in.Applicant.Location,
			LinkedIn:       in.Applicant.LinkedIn,
			Portfolio:      in.Applicant.Portfolio,
		}, &resp)
		if err != nil {
			return workflow.Result{}, err
		}
		return workflow.Result{Content: resp.ResumeHTML, Score: resp.ATSScore, CreditsLeft: resp.CreditsLeft}, nil

	case workflow.KindCoverLetter:
		var resp generateCoverLetterResponse
		_, err := c.post(ctx, pathGenerateLetter, generateCoverLetterRequest{
			Email:          in.Applicant.Email,
			Style:          in.Style,
			ResumeText:     in.ResumeText,
			JobDescription: in.JobDescription,
			HiringManager:  in.HiringManager,
			Motivation:     in.Motivation,
			Highlight:      in.Highlight,
		}, &resp)
		if err != nil {
			return workflow.Result{}, err
		}
		return workflow.Result{Content: resp.CoverLetterHTML, CreditsLeft: resp.CreditsLeft}, nil
	}
	return workflow.Result{}, fmt.Errorf("unsupported document kind %q", kind)
}

// Refine implements workflow.Backend. Both kinds share one endpoint; cover
// letters are flagged with a type field.
func (c *Client) Refine(ctx context.Context, req workflow.RefineRequest) (workflow.Result, error) {
	body := refineRequest{
		HTML:        req.Content,
		Instruction: req.Instruction,
		Email:       req.Email,
	}
	if req.Kind == workflow.KindCoverLetter {
		body.Type = string(workflow.KindCoverLetter)
	}

	var resp refineResponse
	if _, err := c.post(ctx, pathRefine, body, &resp); err != nil {
		return workflow.Result{}, err
	}
	return workflow.Result{Content: resp.UpdatedHTML, CreditsLeft: resp.CreditsLeft}, nil
}

var _ workflow.Backend = (*Client)(nil)
