package chunking

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kailas-cloud/glassbox/internal/domain"
	domdoc "github.com/kailas-cloud/glassbox/internal/domain/document"
)

// Service splits raw source text into ordered, addressable chunks.
type Service struct {
	strategy Strategy
	minChars int
	maxChars int
	newID    func() string
}

// New creates a chunking service.
func New(strategy Strategy, minChars, maxChars int) *Service {
	return &Service{
		strategy: strategy,
		minChars: minChars,
		maxChars: maxChars,
		newID:    uuid.NewString,
	}
}

// WithIDGenerator overrides chunk id minting (tests).
func (s *Service) WithIDGenerator(newID func() string) *Service {
	s.newID = newID
	return s
}

// Chunk splits raw text on structural boundaries, merges undersized units and
// splits oversized ones at sentence boundaries. Concatenating the returned
// chunk texts in position order and normalizing whitespace reproduces the
// input.
func (s *Service) Chunk(rawText string) ([]domdoc.Chunk, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("source content is empty: %w", domain.ErrValidation)
	}

	units := s.strategy.Split(rawText)
	if len(units) == 0 {
		return nil, fmt.Errorf("no structural units found: %w", domain.ErrValidation)
	}

	merged := s.mergeSmall(units)

	var chunks []domdoc.Chunk
	for _, unit := range merged {
		pieces := s.splitLarge(unit)
		for _, p := range pieces {
			chunk, err := domdoc.NewChunk(s.newID(), p.text, len(chunks))
			if err != nil {
				return nil, fmt.Errorf("build chunk: %w", err)
			}
			if p.hardSplit {
				chunk.MarkHardSplit()
			}
			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}

// mergeSmall greedily merges adjacent units until they reach minChars.
func (s *Service) mergeSmall(units []string) []string {
	var merged []string
	var current string

	for _, unit := range units {
		if current == "" {
			current = unit
		} else {
			current = current + "\n\n" + unit
		}
		if runeLen(current) >= s.minChars {
			merged = append(merged, current)
			current = ""
		}
	}
	if current != "" {
		// Trailing remainder below minChars joins the previous chunk when one
		// exists, so no chunk ends up degenerately small.
		if len(merged) > 0 {
			merged[len(merged)-1] = merged[len(merged)-1] + "\n\n" + current
		} else {
			merged = append(merged, current)
		}
	}

	return merged
}

type piece struct {
	text      string
	hardSplit bool
}

// splitLarge splits a unit exceeding maxChars at the nearest sentence
// boundary. A single sentence longer than maxChars is split at the character
// limit as a last resort and flagged.
func (s *Service) splitLarge(unit string) []piece {
	if runeLen(unit) <= s.maxChars {
		return []piece{{text: unit}}
	}

	var pieces []piece
	var current string

	flush := func(hard bool) {
		trimmed := strings.TrimSpace(current)
		if trimmed != "" {
			pieces = append(pieces, piece{text: trimmed, hardSplit: hard})
		}
		current = ""
	}

	for _, sentence := range splitSentences(unit) {
		if runeLen(sentence) > s.maxChars {
			flush(false)
			for _, part := range hardSplit(sentence, s.maxChars) {
				pieces = append(pieces, piece{text: strings.TrimSpace(part), hardSplit: true})
			}
			continue
		}
		if runeLen(current)+runeLen(sentence) > s.maxChars {
			flush(false)
		}
		current += sentence
	}
	flush(false)

	return pieces
}

var sentenceEndRegex = regexp.MustCompile(`[.!?]+[\s"')\]]*`)

// splitSentences splits text after sentence-ending punctuation, preserving
// every character so the reconstruction property holds.
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceEndRegex.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[last:loc[1]])
		last = loc[1]
	}
	if last < len(text) {
		sentences = append(sentences, text[last:])
	}
	return sentences
}

// runeLen measures text the way the chunk size limits are expressed: in
// characters, not bytes.
func runeLen(s string) int { return utf8.RuneCountInString(s) }

// hardSplit cuts text into maxChars-sized parts on rune boundaries.
func hardSplit(text string, maxChars int) []string {
	var parts []string
	runes := []rune(text)
	for start := 0; start < len(runes); start += maxChars {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeWhitespace collapses all whitespace runs to single spaces and
// trims. Chunking preserves text up to this normalization.
func NormalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}
