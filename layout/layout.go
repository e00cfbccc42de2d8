// ABOUTME: PanelLayoutCoordinator turns per-partition block lists into the column structure of a draggable layout.
// ABOUTME: Pure and order-preserving; the result is handed to the layout collaborator exactly once.
package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrDuplicateBlock = errors.New("block appears more than once in the layout")
	ErrAlreadyApplied = errors.New("layout already handed to the collaborator")
)

// Partition lists the block ids of one partition in registration order.
type Partition struct {
	ID     int
	Blocks []string
}

// Column is one layout column.
type Column struct {
	ID     string
	Blocks []string
}

// Options are passed through to the collaborator unchanged.
type Options struct {
	Portal        string `json:"portal"`
	EditorEnabled bool   `json:"editorEnabled"`
}

// DefaultOptions is what the dashboard has always used.
func DefaultOptions() Options {
	return Options{Portal: "columns", EditorEnabled: true}
}

// Settings is the full column-membership structure.
type Settings struct {
	Columns []Column
	Options Options
}

// ColumnID names the column of a partition.
func ColumnID(partition int) string {
	return fmt.Sprintf("column-%d", partition)
}

// Column returns the blocks of a column.
func (s Settings) Column(id string) ([]string, bool) {
	for _, c := range s.Columns {
		if c.ID == id {
			return c.Blocks, true
		}
	}
	return nil, false
}

// MarshalJSON writes {"columns": {...}, "options": {...}} with the columns
// in their layout order rather than sorted by key.
func (s Settings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"columns":{`)
	for i, c := range s.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.ID)
		if err != nil {
			return nil, err
		}
		blocks := c.Blocks
		if blocks == nil {
			blocks = []string{}
		}
		val, err := json.Marshal(blocks)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString(`},"options":`)
	opts, err := json.Marshal(s.Options)
	if err != nil {
		return nil, err
	}
	buf.Write(opts)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Collaborator is the draggable layout that receives the structure.
type Collaborator interface {
	Init(columns []Column, opts Options) error
}

// Coordinator builds the layout and applies it once.
type Coordinator struct {
	opts    Options
	logger  *slog.Logger
	applied bool
}

// NewCoordinator returns a coordinator using DefaultOptions.
func NewCoordinator(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{opts: DefaultOptions(), logger: logger}
}

// Build maps every partition to its column, keeping both the partition
// order and the block order of the input.
func (c *Coordinator) Build(parts []Partition) (Settings, error) {
	seen := make(map[string]string)
	s := Settings{Options: c.opts, Columns: make([]Column, 0, len(parts))}
	for _, p := range parts {
		col := Column{ID: ColumnID(p.ID), Blocks: make([]string, 0, len(p.Blocks))}
		for _, b := range p.Blocks {
			if prev, dup := seen[b]; dup {
				return Settings{}, fmt.Errorf("%w: %q in %s and %s", ErrDuplicateBlock, b, prev, col.ID)
			}
			seen[b] = col.ID
			col.Blocks = append(col.Blocks, b)
		}
		s.Columns = append(s.Columns, col)
	}
	return s, nil
}

// Apply hands s to the collaborator. It only succeeds once per coordinator.
func (c *Coordinator) Apply(collab Collaborator, s Settings) error {
	if c.applied {
		return ErrAlreadyApplied
	}
	if err := collab.Init(s.Columns, s.Options); err != nil {
		return fmt.Errorf("layout init: %w", err)
	}
	c.applied = true
	c.logger.Debug("layout applied", "columns", len(s.Columns))
	return nil
}
