// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed provides the embedding capability: fixed-dimension vector
// representations of record and query text. Two implementations exist — a
// deterministic local feature-hash embedder and a hosted-API client. Both
// are deterministic for identical input, which the index build and the
// search determinism guarantees depend on.
package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/pdiddy/unimatch/pkg/types"
)

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	// Embed returns the vector for text. Implementations must be
	// deterministic for identical input and return EmbeddingProviderError
	// on quota or transport failure.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the width of vectors produced by Embed.
	Dimension() int
}

// DefaultDimension is the local embedder's vector width.
const DefaultDimension = 256

// Local is a deterministic feature-hashing embedder: tokens are hashed into
// a fixed number of buckets, term-frequency weighted, and L2-normalized.
// It needs no network and is the default for development and tests.
type Local struct {
	dimension int
}

// NewLocal returns a Local embedder with the given dimension (or
// DefaultDimension when dim <= 0).
func NewLocal(dim int) *Local {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Local{dimension: dim}
}

// Dimension returns the vector width.
func (l *Local) Dimension() int { return l.dimension }

// Embed hashes tokens and token bigrams into the vector. Bigrams give
// multi-word program names ("computer science") a signal distinct from
// their parts.
func (l *Local) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, l.dimension)
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return vec, nil
	}

	for i, tok := range tokens {
		vec[l.bucket(tok)]++
		if i+1 < len(tokens) {
			vec[l.bucket(tok+" "+tokens[i+1])] += 0.5
		}
	}

	normalize(vec)
	return vec, nil
}

func (l *Local) bucket(token string) int {
	h := fnv.New32a()
	h.Write([]byte(token))
	return int(h.Sum32() % uint32(l.dimension))
}

// Tokenize lowercases text and splits it on non-letter, non-digit runes.
// Shared with the keyword-overlap fallback scorer so both score the same
// token stream.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// normalize scales vec to unit length. A zero vector is left untouched.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}

// New constructs the embedder selected by cfg: "remote" builds a hosted-API
// client, anything else the local embedder.
func New(cfg types.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "remote":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("embedding provider %q requires an endpoint", cfg.Provider)
		}
		return NewRemote(cfg), nil
	case "", "local":
		return NewLocal(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
