// Package index builds the per-transaction semantic index over source chunks
// and answers nearest-neighbor queries. The index lives in memory only, for
// the life of one transaction; it is never persisted or shared across
// requests.
package index

import (
	"math"
	"sort"
)

// Hit is one query result: a chunk id with its similarity score.
type Hit struct {
	ChunkID  string
	Score    float64
	Position int
}

type entry struct {
	id       string
	position int
	vector   []float32
}

// Index supports cosine nearest-neighbor lookup over chunk embeddings.
type Index struct {
	entries []entry
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int { return len(ix.entries) }

// Query returns chunks with cosine similarity >= threshold against the query
// vector, sorted by descending similarity, ties broken by ascending chunk
// position, at most k results.
func (ix *Index) Query(vector []float32, k int, threshold float64) []Hit {
	if k <= 0 || len(vector) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(ix.entries))
	for _, e := range ix.entries {
		score := cosineSimilarity(vector, e.vector)
		if score >= threshold {
			hits = append(hits, Hit{ChunkID: e.id, Score: score, Position: e.position})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched dimensions or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
