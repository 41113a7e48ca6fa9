// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package idgen

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"regexp"
	"testing"

	"github.com/danielhkuo/planning-poker/models"
)

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

type lookupFunc func(ctx context.Context, code string) (bool, error)

func (f lookupFunc) CodeExists(ctx context.Context, code string) (bool, error) {
	return f(ctx, code)
}

func TestRandomCodeFormat(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := RandomCode(rand.Reader)
		if err != nil {
			t.Fatalf("RandomCode failed: %v", err)
		}
		if !codePattern.MatchString(code) {
			t.Fatalf("expected 6 digits, got %q", code)
		}
	}
}

func TestRandomCodeZeroPadded(t *testing.T) {
	// An all-zero stream yields 0, which must render as six zeros.
	code, err := RandomCode(bytes.NewReader(make([]byte, 64)))
	if err != nil {
		t.Fatalf("RandomCode failed: %v", err)
	}
	if code != "000000" {
		t.Errorf("expected 000000, got %q", code)
	}
}

func TestGenerateSkipsTakenCodes(t *testing.T) {
	seen := map[string]bool{}
	calls := 0
	gen := New(lookupFunc(func(_ context.Context, code string) (bool, error) {
		calls++
		seen[code] = true
		// First two draws collide
		return calls <= 2, nil
	}))

	code, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 lookups, got %d", calls)
	}
	if !seen[code] {
		t.Errorf("returned code %q was never checked", code)
	}
}

func TestGenerateCapacityExhausted(t *testing.T) {
	calls := 0
	gen := New(lookupFunc(func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}), WithMaxAttempts(5))

	_, err := gen.Generate(context.Background())
	if !errors.Is(err, models.ErrCapacityExhausted) {
		t.Fatalf("expected ErrCapacityExhausted, got %v", err)
	}
	if calls != 5 {
		t.Errorf("expected 5 attempts, got %d", calls)
	}
}

func TestGeneratePropagatesStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	gen := New(lookupFunc(func(context.Context, string) (bool, error) {
		return false, storeErr
	}))

	_, err := gen.Generate(context.Background())
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if errors.Is(err, models.ErrCapacityExhausted) {
		t.Error("store failure must not be reported as exhaustion")
	}
}

func TestGenerateRandError(t *testing.T) {
	gen := New(lookupFunc(func(context.Context, string) (bool, error) {
		return false, nil
	}), WithRand(bytes.NewReader(nil)))

	if _, err := gen.Generate(context.Background()); err == nil {
		t.Fatal("expected error from empty randomness source")
	}
}
