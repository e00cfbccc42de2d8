// ABOUTME: Tests for the status bar: catalog, roll period, focus, range, and error display.
package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/2389-research/syncview/zoom"
)

func TestStatusBarView(t *testing.T) {
	m := NewStatusBarModel("0123456789abcdef", 3)
	m.SetWidth(200)

	view := m.View()
	for _, want := range []string{"Catalog: 01234567 ", "Roll: 3", "Panel: none", ": -"} {
		if !strings.Contains(view, want) {
			t.Errorf("view %q missing %q", view, want)
		}
	}

	r := zoom.ViewRange{From: 10, To: 20}
	m.SetFocus("s0a", 1)
	m.SetRange(&r)
	m.SetError(errors.New("boom"))
	view = m.View()
	for _, want := range []string{"Panel: s0a", "Column 1: [10, 20]", "boom"} {
		if !strings.Contains(view, want) {
			t.Errorf("view %q missing %q", view, want)
		}
	}

	m.SetError(nil)
	if strings.Contains(m.View(), "boom") {
		t.Error("cleared error still shown")
	}
}
