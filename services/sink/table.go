package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
)

// TableSink renders worksheets as text tables, used for previews and dry runs
type TableSink struct {
	mu            sync.Mutex
	out           io.Writer
	metaWorksheet string
}

// NewTableSink creates a sink that renders to out
func NewTableSink(out io.Writer, metaWorksheet string) *TableSink {
	return &TableSink{out: out, metaWorksheet: metaWorksheet}
}

// ReplaceAll renders the rows, the first one being the header
func (s *TableSink) ReplaceAll(_ context.Context, worksheet string, rows [][]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := table.NewWriter()
	t.SetOutputMirror(s.out)
	t.SetTitle(worksheet)
	t.SetStyle(table.StyleRounded)
	for i, row := range rows {
		if i == 0 {
			t.AppendHeader(table.Row(row))
			continue
		}
		t.AppendRow(table.Row(row))
	}
	t.Render()
	return nil
}

// WriteMeta prints the cell assignment
func (s *TableSink) WriteMeta(_ context.Context, cell string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := fmt.Fprintf(s.out, "%s!%s = %v\n", s.metaWorksheet, cell, value)
	return err
}

// Close is a no-op
func (s *TableSink) Close() error {
	return nil
}
