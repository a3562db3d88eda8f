package session

import (
	"context"
	"encoding/json"
	"fmt"
)

// Draft fields kept between runs while the user is signed in.
const (
	DraftResumeText     = "resume_text"
	DraftJobDescription = "job_description"
	DraftStyle          = "style"
	DraftHiringManager  = "hiring_manager"
	DraftMotivation     = "motivation"
	DraftHighlight      = "highlight"
)

var draftFields = []string{
	DraftResumeText,
	DraftJobDescription,
	DraftStyle,
	DraftHiringManager,
	DraftMotivation,
	DraftHighlight,
}

func draftKey(field string) string { return draftPrefix + field }

func dependentKeys() []string {
	keys := []string{KeySession, KeyProfile, KeyPreferences}
	for _, f := range draftFields {
		keys = append(keys, draftKey(f))
	}
	return keys
}

func knownDraft(field string) bool {
	for _, f := range draftFields {
		if f == field {
			return true
		}
	}
	return false
}

// SaveDraft stores in-progress input text. Empty text removes the draft.
func (s *Store) SaveDraft(ctx context.Context, field, text string) error {
	if !knownDraft(field) {
		return fmt.Errorf("unknown draft field %q", field)
	}
	if text == "" {
		return s.kv.Delete(ctx, draftKey(field))
	}
	return s.kv.Set(ctx, draftKey(field), []byte(text))
}

// Draft returns the stored draft or "" when there is none.
func (s *Store) Draft(ctx context.Context, field string) (string, error) {
	b, err := s.kv.Get(ctx, draftKey(field))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Preferences are UI choices persisted with the session.
type Preferences struct {
	ActiveView string `json:"active_view,omitempty"`
}

func (s *Store) SavePreferences(ctx context.Context, p Preferences) error {
	return s.putJSON(ctx, KeyPreferences, p)
}

func (s *Store) Preferences(ctx context.Context) (Preferences, error) {
	var p Preferences
	_, err := s.getJSON(ctx, KeyPreferences, &p)
	return p, err
}

// SaveProfileSnapshot caches the last profile fetched from the server.
func (s *Store) SaveProfileSnapshot(ctx context.Context, v any) error {
	return s.putJSON(ctx, KeyProfile, v)
}

// ProfileSnapshot decodes the cached profile into v and reports whether one
// was present.
func (s *Store) ProfileSnapshot(ctx context.Context, v any) (bool, error) {
	return s.getJSON(ctx, KeyProfile, v)
}

func (s *Store) putJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, key, b)
}

func (s *Store) getJSON(ctx context.Context, key string, v any) (bool, error) {
	b, err := s.kv.Get(ctx, key)
	if err != nil || b == nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
