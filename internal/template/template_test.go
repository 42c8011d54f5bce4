package template

import (
	"strings"
	"testing"
	"time"
)

func TestExpandBanner(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	data := NewBannerData("theme-juice", "1.0.0", "Jane Doe", "https://example.com", now)

	tests := []struct {
		name      string
		banner    string
		contains  []string
		wantError bool
	}{
		{
			name:     "full banner",
			banner:   "/* {{.Name}} v{{.Version}} | (c) {{.Year}} {{.Author}} | {{.Homepage}} | built {{.Date}} */",
			contains: []string{"theme-juice", "1.0.0", "2025", "Jane Doe", "https://example.com", "2025-03-14"},
		},
		{
			name:     "empty banner",
			banner:   "",
			contains: nil,
		},
		{
			name:      "unknown field",
			banner:    "/* {{.License}} */",
			wantError: true,
		},
		{
			name:      "malformed template",
			banner:    "/* {{.Name */",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandBanner(tt.banner, data)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected banner to contain '%s', got: %s", want, got)
				}
			}
			if strings.Contains(got, "{{") || strings.Contains(got, "}}") {
				t.Errorf("expanded banner contains unresolved placeholders: %s", got)
			}
		})
	}
}

func TestExpandBannerReflectsCurrentTime(t *testing.T) {
	banner := "built {{.Date}}"

	first, err := ExpandBanner(banner, NewBannerData("n", "v", "", "", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ExpandBanner(banner, NewBannerData("n", "v", "", "", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first == second {
		t.Error("expected expansion to follow the supplied time")
	}
}

func TestSubstituteCommand(t *testing.T) {
	tests := []struct {
		name      string
		command   string
		data      CommandData
		want      string
		wantError bool
	}{
		{
			name:    "src and dest",
			command: "sass {{.Src}} {{.Dest}}",
			data:    CommandData{Src: "styles/main.scss", Dest: "css/main.css"},
			want:    "sass styles/main.scss css/main.css",
		},
		{
			name:    "option lookup",
			command: "uglify {{.Src}} --level {{.Options.level}}",
			data: CommandData{
				Src:     "app.js",
				Options: map[string]interface{}{"level": 2},
			},
			want: "uglify app.js --level 2",
		},
		{
			name:    "banner",
			command: "minify --banner {{shellQuote .Banner}} {{.Src}}",
			data:    CommandData{Src: "a.css", Banner: "/* it's */"},
			want:    "minify --banner '/* it'\\''s */' a.css",
		},
		{
			name:    "iterate files",
			command: "optimize{{range .Files}} {{.}}{{end}}",
			data:    CommandData{Files: []string{"a.png", "b.png"}},
			want:    "optimize a.png b.png",
		},
		{
			name:      "missing option",
			command:   "tool {{.Options.nope}}",
			data:      CommandData{Options: map[string]interface{}{}},
			wantError: true,
		},
		{
			name:      "malformed template",
			command:   "tool {{.Src",
			data:      CommandData{},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SubstituteCommand(tt.command, tt.data)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}
