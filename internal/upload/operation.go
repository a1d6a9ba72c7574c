// Package upload builds Customer Match "add" operations from raw identifiers.
package upload

import (
	"fmt"

	"github.com/ignite/customer-match/internal/identifier"
)

// Kind identifies which user identifier field a hashed value populates.
type Kind string

const (
	KindEmail Kind = "email"
	KindPhone Kind = "phone"
)

// ParseKind maps a configuration value to a Kind. Empty means email.
func ParseKind(s string) (Kind, error) {
	switch Kind(identifier.Normalize(s)) {
	case "", KindEmail:
		return KindEmail, nil
	case KindPhone:
		return KindPhone, nil
	default:
		return "", fmt.Errorf("unsupported identifier kind %q", s)
	}
}

// Operation adds one hashed identifier to an offline user data job.
// Operations are values and are never modified once built.
type Operation struct {
	Kind   Kind   `json:"kind"`
	Hashed string `json:"hashed"`
}

// NewOperation normalizes and hashes raw into an add operation.
func NewOperation(kind Kind, raw string) (Operation, error) {
	h, err := identifier.Hash(raw)
	if err != nil {
		return Operation{}, err
	}
	return Operation{Kind: kind, Hashed: h}, nil
}

// BuildOperations returns one operation per identifier, in input order.
// Duplicates are kept. An empty input yields an empty, non-nil slice.
func BuildOperations(kind Kind, ids []string) ([]Operation, error) {
	ops := make([]Operation, 0, len(ids))
	for i, raw := range ids {
		op, err := NewOperation(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("identifier %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}
