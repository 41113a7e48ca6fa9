// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package idgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/danielhkuo/planning-poker/models"
)

// CodeSpace is the number of distinct session codes (000000-999999).
const CodeSpace = 1_000_000

// DefaultMaxAttempts bounds the number of draws per Generate call.
const DefaultMaxAttempts = 32

// Lookup reports whether a session code is already taken.
type Lookup interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// Generator draws random six-digit session codes and skips taken ones.
type Generator struct {
	lookup      Lookup
	maxAttempts int
	rand        io.Reader
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxAttempts sets how many collisions Generate tolerates.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithRand replaces crypto/rand as the randomness source.
func WithRand(r io.Reader) Option {
	return func(g *Generator) {
		g.rand = r
	}
}

func New(lookup Lookup, opts ...Option) *Generator {
	g := &Generator{
		lookup:      lookup,
		maxAttempts: DefaultMaxAttempts,
		rand:        rand.Reader,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a code that no existing session uses.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code, err := RandomCode(g.rand)
		if err != nil {
			return "", err
		}

		taken, err := g.lookup.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check session code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: %d attempts collided", models.ErrCapacityExhausted, g.maxAttempts)
}

// RandomCode draws one zero-padded six-digit code.
func RandomCode(r io.Reader) (string, error) {
	n, err := rand.Int(r, big.NewInt(CodeSpace))
	if err != nil {
		return "", fmt.Errorf("failed to generate session code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
