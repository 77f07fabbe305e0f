package services

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// CanonicalJSON serializes v to a canonical byte form: object keys sorted
// lexicographically, no insignificant whitespace. Two requests with the same
// logical content always produce the same bytes.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request for hashing: %w", err)
	}

	// Round-trip through an untyped tree: encoding/json emits map keys in
	// sorted order, which normalizes struct field order and whitespace.
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("failed to normalize request for hashing: %w", err)
	}

	canonical, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize request: %w", err)
	}

	return canonical, nil
}

// ComputeRequestHash returns Base64(SHA-256(canonicalJSON(v))). The hash is
// pure and deterministic across processes and restarts; it fails only on
// serialization errors.
func ComputeRequestHash(v any) (string, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}
