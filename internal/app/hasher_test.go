package app

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	digest, err := h.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if digest == "correct horse battery" {
		t.Fatal("digest must not equal the input")
	}

	if !h.Verify("correct horse battery", digest) {
		t.Error("expected the original secret to verify")
	}
	if h.Verify("wrong secret", digest) {
		t.Error("expected a different secret to fail")
	}
}

func TestHasher_DistinctDigests(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	a, err := h.Hash("same secret")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b, err := h.Hash("same secret")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a == b {
		t.Error("expected per-hash salting to produce distinct digests")
	}
}

func TestNewHasher_ClampsCost(t *testing.T) {
	if h := NewHasher(0); h.cost != DefaultHashCost {
		t.Errorf("expected default cost %d, got %d", DefaultHashCost, h.cost)
	}
	if h := NewHasher(1); h.cost != bcrypt.MinCost {
		t.Errorf("expected min cost %d, got %d", bcrypt.MinCost, h.cost)
	}
	if h := NewHasher(99); h.cost != bcrypt.MaxCost {
		t.Errorf("expected max cost %d, got %d", bcrypt.MaxCost, h.cost)
	}
}
