package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestStatusStyle_Groups(t *testing.T) {
	tests := []struct {
		status string
		want   lipgloss.TerminalColor
	}{
		{"ACTIVE", Green},
		{"in-use", Green},
		{"BUILD", Yellow},
		{"creating", Yellow},
		{"ERROR", Red},
		{"SHUTOFF", Gray},
	}
	for _, tt := range tests {
		if got := StatusStyle(tt.status).GetForeground(); got != tt.want {
			t.Errorf("StatusStyle(%q) foreground = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestKeyValues_AlignsLabels(t *testing.T) {
	out := KeyValues([][2]string{{"ID", "42"}, {"Endpoint", "db:3306"}})
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if strings.Index(lines[0], "42") != strings.Index(lines[1], "db:3306") {
		t.Errorf("values are not aligned:\n%s", out)
	}
}
