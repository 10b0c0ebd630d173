package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestResult_Render(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
	}{
		{
			name:   "success",
			result: NewSuccessResult("Reboot sent", map[string]string{"Device": "192.168.1.132"}),
			want:   []string{"SUCCESS", "Reboot sent", "Device:", "192.168.1.132"},
		},
		{
			name:   "failure",
			result: NewFailureResult("Set channels failed", errors.New("boom"), []string{"Check the address"}),
			want:   []string{"FAILED", "Error: boom", "Troubleshooting:", "Check the address"},
		},
		{
			name:   "warning",
			result: NewWarningResult("Request failed", map[string]string{"Status": "400"}),
			want:   []string{"WARNING", "Status:", "400"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.result.SetWidth(80).Render()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("Render() missing %q in:\n%s", want, out)
				}
			}
		})
	}
}

func TestResult_DetailsSorted(t *testing.T) {
	r := NewSuccessResult("ok", nil).
		AddDetail("Zeta", "1").
		AddDetail("Alpha", "2").
		SetWidth(80)

	out := r.Render()
	if strings.Index(out, "Alpha") > strings.Index(out, "Zeta") {
		t.Error("details should render in key order")
	}
}

func TestRenderHeader(t *testing.T) {
	out := RenderHeader("reboot", "zeptrion reboot", map[string]string{"Device": "hallway"}, 80)
	for _, want := range []string{"REBOOT", "zeptrion reboot", "Device:", "hallway"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderHeader() missing %q", want)
		}
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSuccess("done", nil)
	p.PrintError("failed", errors.New("nope"), nil)
	p.Printf("%d channels\n", 2)

	out := buf.String()
	for _, want := range []string{"SUCCESS", "FAILED", "nope", "2 channels"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestConfirmDangerousOperation(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"I AGREE\n", true},
		{"  I AGREE  \n", true},
		{"I AGREE", true},
		{"yes\n", false},
		{"i agree\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got := ConfirmDangerousOperation(strings.NewReader(tt.input), &out, "FACTORY RESET", []string{"erases settings"})
		if got != tt.want {
			t.Errorf("ConfirmDangerousOperation(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "erases settings") {
			t.Error("warning box should list the warnings")
		}
	}
}

func TestResetConfirmation(t *testing.T) {
	var out bytes.Buffer
	if ResetConfirmation(strings.NewReader("no\n"), &out, "network", "192.168.1.132") {
		t.Error("ResetConfirmation() should refuse")
	}
	s := out.String()
	if !strings.Contains(s, "NETWORK RESET") || !strings.Contains(s, "WiFi") {
		t.Errorf("output = %s", s)
	}
	if !strings.Contains(s, "Operation cancelled.") {
		t.Error("refusal should print a cancellation note")
	}
}
