package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultBatchSize bounds the operations sent in one addOperations request.
const DefaultBatchSize = 10000

// Source yields raw identifiers one at a time. Next returns io.EOF once the
// source is exhausted. Close releases whatever the source holds open.
type Source interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// Batcher reads a Source and emits operations in batches of at most Size,
// so only one batch is ever held in memory.
type Batcher struct {
	src  Source
	kind Kind
	size int

	read int
	done bool
}

// NewBatcher wraps src. A non-positive size falls back to DefaultBatchSize.
func NewBatcher(src Source, kind Kind, size int) *Batcher {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Batcher{src: src, kind: kind, size: size}
}

// Next returns the next batch. It returns io.EOF, with no operations, once
// the source has been drained.
func (b *Batcher) Next(ctx context.Context) ([]Operation, error) {
	if b.done {
		return nil, io.EOF
	}

	ops := make([]Operation, 0, b.size)
	for len(ops) < b.size {
		raw, err := b.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			b.done = true
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading identifier %d: %w", b.read, err)
		}

		op, err := NewOperation(b.kind, raw)
		if err != nil {
			return nil, fmt.Errorf("identifier %d: %w", b.read, err)
		}
		b.read++
		ops = append(ops, op)
	}

	if len(ops) == 0 {
		return nil, io.EOF
	}
	return ops, nil
}

// Read returns how many identifiers have been consumed so far.
func (b *Batcher) Read() int { return b.read }
