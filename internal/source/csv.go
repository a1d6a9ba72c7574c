package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CSV streams one column out of CSV data. Rows are read lazily, one at a
// time.
type CSV struct {
	rc     io.ReadCloser
	br     *bufio.Reader
	r      *csv.Reader
	column string
	header bool

	index int
	ready bool
	line  int
}

// NewCSV reads column from rc. When hasHeader is set, column is matched
// against the header row (case-insensitive) and falls back to a numeric
// index; otherwise column must be a zero-based index.
func NewCSV(rc io.ReadCloser, column string, hasHeader bool) *CSV {
	br := bufio.NewReader(rc)
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	r.TrimLeadingSpace = true
	return &CSV{rc: rc, br: br, r: r, column: column, header: hasHeader}
}

// OpenCSVFile opens path and returns a CSV source over it.
func OpenCSVFile(path, column string, hasHeader bool) (*CSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv %s: %w", path, err)
	}
	return NewCSV(f, column, hasHeader), nil
}

var utf8BOM = []byte("\ufeff")

func (c *CSV) resolveColumn() error {
	c.ready = true
	if b, err := c.br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = c.br.Discard(len(utf8BOM))
	}
	if !c.header {
		idx, err := strconv.Atoi(strings.TrimSpace(c.column))
		if err != nil || idx < 0 {
			return fmt.Errorf("csv column %q must be a zero-based index when the file has no header", c.column)
		}
		c.index = idx
		return nil
	}

	row, err := c.r.Read()
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	if err != nil {
		return fmt.Errorf("reading csv header: %w", err)
	}
	c.line++

	want := normalizeHeader(c.column)
	for i, h := range row {
		if normalizeHeader(h) == want {
			c.index = i
			return nil
		}
	}
	if idx, err := strconv.Atoi(strings.TrimSpace(c.column)); err == nil && idx >= 0 && idx < len(row) {
		c.index = idx
		return nil
	}
	return fmt.Errorf("csv column %q not found in header %v", c.column, row)
}

func (c *CSV) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !c.ready {
		if err := c.resolveColumn(); err != nil {
			return "", err
		}
	}

	row, err := c.r.Read()
	if errors.Is(err, io.EOF) {
		return "", io.EOF
	}
	if err != nil {
		return "", fmt.Errorf("reading csv line %d: %w", c.line+1, err)
	}
	c.line++

	if c.index >= len(row) {
		return "", fmt.Errorf("csv line %d has %d fields, column index %d missing", c.line, len(row), c.index)
	}
	return row[c.index], nil
}

func (c *CSV) Close() error { return c.rc.Close() }

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
