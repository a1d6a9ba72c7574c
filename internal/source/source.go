// Package source provides the identifier streams a Customer Match run
// reads from. Every source implements upload.Source: Next yields raw
// identifiers one by one and returns io.EOF when exhausted.
package source

import (
	"context"
	"fmt"
	"io"
)

// Slice serves identifiers from memory.
type Slice struct {
	ids []string
	pos int
}

// NewSlice returns a source over ids. The slice is not copied.
func NewSlice(ids []string) *Slice {
	return &Slice{ids: ids}
}

func (s *Slice) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.pos >= len(s.ids) {
		return "", io.EOF
	}
	v := s.ids[s.pos]
	s.pos++
	return v, nil
}

func (s *Slice) Close() error { return nil }

// Synthetic fabricates Count identifiers from a fmt template, e.g.
// "customer%d@example.com". It is meant for demos and load tests.
type Synthetic struct {
	template string
	count    int
	next     int
}

// NewSynthetic returns a generator of count identifiers.
func NewSynthetic(count int, template string) *Synthetic {
	return &Synthetic{template: template, count: count}
}

func (s *Synthetic) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.next >= s.count {
		return "", io.EOF
	}
	v := fmt.Sprintf(s.template, s.next)
	s.next++
	return v, nil
}

func (s *Synthetic) Close() error { return nil }
