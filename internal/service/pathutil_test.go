package service

import (
	"errors"
	"strings"
	"testing"

	"docuvault/internal/domain"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "simple", in: "reports", want: "reports"},
		{name: "nested", in: "reports/2026/q2", want: "reports/2026/q2"},
		{name: "strips slashes", in: "/reports/2026/", want: "reports/2026"},
		{name: "strips whitespace", in: "  reports ", want: "reports"},
		{name: "empty is root", in: "", want: ""},
		{name: "bare slash is root", in: "/", want: ""},
		{name: "double slash", in: "reports//q2", wantErr: true},
		{name: "dot segment", in: "reports/./q2", wantErr: true},
		{name: "dotdot segment", in: "reports/../etc", wantErr: true},
		{name: "leading underscore", in: "_archive/q2", wantErr: true},
		{name: "control characters", in: "reports/q2\x00", wantErr: true},
		{name: "too deep", in: strings.Repeat("a/", 40) + "a", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePath(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizePath(%q) = %q, want error", tt.in, got)
				}
				if !errors.Is(err, domain.ErrValidation) {
					t.Errorf("error %v is not a validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePath(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitJoinPath(t *testing.T) {
	parent, name := SplitPath("reports/2026/q2.pdf")
	if parent != "reports/2026" || name != "q2.pdf" {
		t.Errorf("SplitPath = (%q, %q)", parent, name)
	}

	parent, name = SplitPath("top")
	if parent != "" || name != "top" {
		t.Errorf("SplitPath top-level = (%q, %q)", parent, name)
	}

	if got := JoinPath("", "top"); got != "top" {
		t.Errorf("JoinPath root = %q", got)
	}
	if got := JoinPath("reports", "q2.pdf"); got != "reports/q2.pdf" {
		t.Errorf("JoinPath = %q", got)
	}
}

func TestArchiveKey(t *testing.T) {
	tests := []struct {
		path    string
		version int
		want    string
	}{
		{"reports/q2.pdf", 3, "_archive/reports/q2_v3.pdf"},
		{"notes.txt", 1, "_archive/notes_v1.txt"},
		{"reports/readme", 2, "_archive/reports/readme_v2"},
	}
	for _, tt := range tests {
		if got := archiveKey(tt.path, tt.version); got != tt.want {
			t.Errorf("archiveKey(%q, %d) = %q, want %q", tt.path, tt.version, got, tt.want)
		}
	}
}
