// Package section defines the fixed, ordered target section configuration for
// the generated document. Sections come from service configuration, never from
// the request.
package section

import (
	"fmt"
	"strings"
)

// Spec describes one target section: its retrieval parameters and the prompt
// template used to generate it.
type Spec struct {
	key                 string
	title               string
	promptTemplate      string
	maxChunks           int
	similarityThreshold float64
}

// NewSpec validates and creates a section Spec.
func NewSpec(key, title, promptTemplate string, maxChunks int, similarityThreshold float64) (Spec, error) {
	if key == "" {
		return Spec{}, fmt.Errorf("section key is required")
	}
	if promptTemplate == "" {
		return Spec{}, fmt.Errorf("section %q: prompt template is required", key)
	}
	if maxChunks <= 0 {
		return Spec{}, fmt.Errorf("section %q: max chunks must be > 0, got %d", key, maxChunks)
	}
	if similarityThreshold < 0 || similarityThreshold > 1 {
		return Spec{}, fmt.Errorf("section %q: similarity threshold must be in [0,1], got %f", key, similarityThreshold)
	}
	if title == "" {
		title = key
	}
	return Spec{
		key:                 key,
		title:               title,
		promptTemplate:      promptTemplate,
		maxChunks:           maxChunks,
		similarityThreshold: similarityThreshold,
	}, nil
}

// Key returns the section key.
func (s *Spec) Key() string { return s.key }

// Title returns the human-readable section heading.
func (s *Spec) Title() string { return s.title }

// PromptTemplate returns the generation prompt template.
func (s *Spec) PromptTemplate() string { return s.promptTemplate }

// MaxChunks returns the maximum number of source chunks to retrieve.
func (s *Spec) MaxChunks() int { return s.maxChunks }

// SimilarityThreshold returns the minimum similarity a source chunk must meet
// to be considered relevant to this section.
func (s *Spec) SimilarityThreshold() float64 { return s.similarityThreshold }

// QueryText returns the text embedded as the section's retrieval query:
// the heading plus the prompt template.
func (s *Spec) QueryText() string {
	return strings.TrimSpace(s.title + "\n" + s.promptTemplate)
}
