// ABOUTME: Tests for layout building, ordering, JSON shape, and one-shot application.
package layout

import (
	"errors"
	"testing"
)

type fakeCollaborator struct {
	calls   int
	columns []Column
	opts    Options
	err     error
}

func (f *fakeCollaborator) Init(columns []Column, opts Options) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.columns, f.opts = columns, opts
	return nil
}

func TestBuildPreservesOrder(t *testing.T) {
	c := NewCoordinator(nil)
	s, err := c.Build([]Partition{
		{ID: 2, Blocks: []string{"graphBlock1AT2", "graphBlock0AT2", "distBlock2-0"}},
		{ID: 0, Blocks: []string{"graphBlock0AT0"}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(s.Columns) != 2 || s.Columns[0].ID != "column-2" || s.Columns[1].ID != "column-0" {
		t.Fatalf("expected input partition order, got %+v", s.Columns)
	}
	blocks, ok := s.Column("column-2")
	if !ok {
		t.Fatal("expected column-2")
	}
	want := []string{"graphBlock1AT2", "graphBlock0AT2", "distBlock2-0"}
	for i := range want {
		if blocks[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], blocks[i])
		}
	}
	if s.Options != (Options{Portal: "columns", EditorEnabled: true}) {
		t.Errorf("unexpected options %+v", s.Options)
	}
}

func TestBuildDeterministic(t *testing.T) {
	parts := []Partition{{ID: 1, Blocks: []string{"b", "a", "c"}}, {ID: 0, Blocks: []string{"z"}}}
	first, _ := NewCoordinator(nil).Build(parts)
	for i := 0; i < 10; i++ {
		again, _ := NewCoordinator(nil).Build(parts)
		a, _ := first.MarshalJSON()
		b, _ := again.MarshalJSON()
		if string(a) != string(b) {
			t.Fatalf("expected identical output, got %s and %s", a, b)
		}
	}
}

func TestBuildRejectsDuplicates(t *testing.T) {
	_, err := NewCoordinator(nil).Build([]Partition{
		{ID: 0, Blocks: []string{"x"}},
		{ID: 1, Blocks: []string{"x"}},
	})
	if !errors.Is(err, ErrDuplicateBlock) {
		t.Errorf("expected ErrDuplicateBlock, got %v", err)
	}
}

func TestSettingsJSON(t *testing.T) {
	s, _ := NewCoordinator(nil).Build([]Partition{
		{ID: 3, Blocks: []string{"graphBlock0AT3"}},
		{ID: 1},
	})
	got, err := s.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"columns":{"column-3":["graphBlock0AT3"],"column-1":[]},"options":{"portal":"columns","editorEnabled":true}}`
	if string(got) != want {
		t.Errorf("expected\n%s\ngot\n%s", want, got)
	}
}

func TestApplyOnce(t *testing.T) {
	c := NewCoordinator(nil)
	s, _ := c.Build([]Partition{{ID: 0, Blocks: []string{"a"}}})
	collab := &fakeCollaborator{}

	if err := c.Apply(collab, s); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := c.Apply(collab, s); !errors.Is(err, ErrAlreadyApplied) {
		t.Errorf("expected ErrAlreadyApplied, got %v", err)
	}
	if collab.calls != 1 || len(collab.columns) != 1 || !collab.opts.EditorEnabled {
		t.Errorf("unexpected collaborator state %+v", collab)
	}
}

func TestApplyFailureCanRetry(t *testing.T) {
	c := NewCoordinator(nil)
	s, _ := c.Build(nil)
	collab := &fakeCollaborator{err: errors.New("not mounted")}
	if err := c.Apply(collab, s); err == nil {
		t.Fatal("expected the collaborator error")
	}
	collab.err = nil
	if err := c.Apply(collab, s); err != nil {
		t.Errorf("expected a retry after failure to succeed, got %v", err)
	}
}
