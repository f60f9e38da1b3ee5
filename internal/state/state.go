// Package state keeps per-user UI state sections consistent across tabs and
// server instances.
package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/davidbz/cthai/internal/domain"
)

// Section names one independently stored slice of UI state.
type Section string

const (
	SectionChat   Section = "aiChat"
	SectionImage  Section = "aiImage"
	SectionVideo  Section = "aiVideo"
	SectionAudio  Section = "aiAudio"
	SectionGlobal Section = "global"
)

// Sections lists every section in a stable order.
var Sections = []Section{SectionChat, SectionImage, SectionVideo, SectionAudio, SectionGlobal}

// Snapshot is a section's state keyed by top-level field.
type Snapshot map[string]json.RawMessage

// Change is broadcast to subscribers after a section is written.
type Change struct {
	Section Section  `json:"section"`
	State   Snapshot `json:"state"`
}

// Store reads and writes state sections per user.
type Store interface {
	// Get returns the section, or its defaults when nothing was stored.
	Get(ctx context.Context, userID string, section Section) (Snapshot, error)

	// Update shallow-merges patch into the section and returns the result.
	Update(ctx context.Context, userID string, section Section, patch Snapshot) (Snapshot, error)

	// Reset restores the section's defaults.
	Reset(ctx context.Context, userID string, section Section) (Snapshot, error)

	// Subscribe streams the user's changes until ctx ends.
	Subscribe(ctx context.Context, userID string) (<-chan Change, error)
}

var defaults = map[Section]string{
	SectionChat: `{
		"messages": [],
		"selectedModel": "grok-4",
		"systemPrompt": "You are a helpful AI assistant.",
		"input": ""
	}`,
	SectionImage: `{
		"prompt": "",
		"selectedModel": "google/imagen-4-fast",
		"selectedResolution": "1:1",
		"systemPrompt": "You are an AI image generator. Create high-quality images based on user prompts.",
		"generatedImages": []
	}`,
	SectionVideo: `{
		"prompt": "",
		"selectedModel": "sora",
		"selectedResolution": "1920x1080",
		"selectedDuration": "5",
		"systemPrompt": "You are an AI video generator. Create high-quality videos based on user prompts.",
		"generatedVideos": []
	}`,
	SectionAudio: `{
		"prompt": "",
		"selectedModel": "elevenlabs",
		"selectedVoice": "sarah",
		"systemPrompt": "You are an AI audio generator. Create high-quality speech from text prompts.",
		"generatedAudios": []
	}`,
	SectionGlobal: `{
		"lastVisitedPage": "/",
		"theme": "system"
	}`,
}

// generatedFields are the per-section lists emptied by ClearGenerated.
var generatedFields = map[Section]string{
	SectionImage: "generatedImages",
	SectionVideo: "generatedVideos",
	SectionAudio: "generatedAudios",
}

// ParseSection validates a section name.
func ParseSection(name string) (Section, error) {
	section := Section(name)
	if _, ok := defaults[section]; !ok {
		return "", fmt.Errorf("%w: unknown state section %q", domain.ErrInvalidRequest, name)
	}
	return section, nil
}

// Defaults returns a fresh copy of the section's default state.
func Defaults(section Section) (Snapshot, error) {
	raw, ok := defaults[section]
	if !ok {
		return nil, fmt.Errorf("%w: unknown state section %q", domain.ErrInvalidRequest, section)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode defaults for %s: %w", section, err)
	}
	return snap, nil
}

// Merge applies patch over current. Only fields the section defines may be
// patched; the result is a new snapshot.
func Merge(section Section, current, patch Snapshot) (Snapshot, error) {
	known, err := Defaults(section)
	if err != nil {
		return nil, err
	}

	for key, value := range patch {
		if _, ok := known[key]; !ok {
			return nil, fmt.Errorf("%w: %s has no field %q", domain.ErrInvalidRequest, section, key)
		}
		if !json.Valid(value) {
			return nil, fmt.Errorf("%w: field %q is not valid JSON", domain.ErrInvalidRequest, key)
		}
	}

	merged := make(Snapshot, len(current)+len(patch))
	for key, value := range current {
		merged[key] = value
	}
	for key, value := range patch {
		merged[key] = value
	}
	return merged, nil
}

// ResetAll restores every section's defaults.
func ResetAll(ctx context.Context, store Store, userID string) error {
	for _, section := range Sections {
		if _, err := store.Reset(ctx, userID, section); err != nil {
			return fmt.Errorf("failed to reset %s: %w", section, err)
		}
	}
	return nil
}

// ClearGenerated empties the generated image, video and audio lists.
func ClearGenerated(ctx context.Context, store Store, userID string) error {
	for _, section := range Sections {
		field, ok := generatedFields[section]
		if !ok {
			continue
		}
		if _, err := store.Update(ctx, userID, section, Snapshot{field: json.RawMessage(`[]`)}); err != nil {
			return fmt.Errorf("failed to clear %s: %w", section, err)
		}
	}
	return nil
}
