package extract

import "testing"

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Structure
	}{
		{"empty", "", Structure{}},
		{"markdown heading", "# Setup\nInstall the driver", Structure{HasHeadings: true, LineCount: 2, WordCount: 5}},
		{"all caps heading", "TROUBLESHOOTING\nrestart it", Structure{HasHeadings: true, LineCount: 2, WordCount: 3}},
		{"digits and code", "run `lpstat -t` on port 631", Structure{HasNumbers: true, HasCode: true, LineCount: 1, WordCount: 6}},
		{"fenced code", "```\nls\n```", Structure{HasCode: true, LineCount: 3, WordCount: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Analyze(tt.text); got != tt.want {
				t.Errorf("Analyze(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct{ in, want string }{
		{"The Printer is JAMMED!", "the printer is jammed!"},
		{"a b cd  ef\n\tgh", "cd ef gh"},
		{"error: code #42 (fatal) @home", "error code 42 (fatal) home"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
