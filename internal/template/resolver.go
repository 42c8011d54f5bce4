// Package template expands the manifest's command and banner templates.
package template

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// shellQuote single-quotes a string for safe shell interpolation.
// Embedded single quotes are escaped using the '\'' technique.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// BannerData is the metadata a banner template is expanded against.
// Date and Year reflect the moment of expansion, not manifest load time.
type BannerData struct {
	Name     string
	Version  string
	Author   string
	Homepage string
	Date     string
	Year     int
}

// NewBannerData builds banner metadata stamped with the given time.
func NewBannerData(name, version, author, homepage string, now time.Time) BannerData {
	return BannerData{
		Name:     name,
		Version:  version,
		Author:   author,
		Homepage: homepage,
		Date:     now.Format("2006-01-02"),
		Year:     now.Year(),
	}
}

// ExpandBanner resolves placeholders in a banner template against project
// metadata. Uses standard delimiters {{ and }} and fails on unknown fields,
// so an expanded banner never carries unresolved placeholder tokens.
func ExpandBanner(banner string, data BannerData) (string, error) {
	tmpl, err := template.New("banner").
		Option("missingkey=error").
		Parse(banner)
	if err != nil {
		return "", fmt.Errorf("parse banner template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute banner template: %w", err)
	}

	return buf.String(), nil
}

// CommandData is the data a tool command template is expanded against.
// Src is the matched source files joined with spaces; Files holds them
// individually for templates that need to iterate.
type CommandData struct {
	Src     string
	Files   []string
	Dest    string
	Banner  string
	Options map[string]interface{}
}

// SubstituteCommand substitutes invocation data into a tool command template
// Uses standard delimiters {{ and }} for template actions
// Fails if referenced fields are missing (strict mode)
func SubstituteCommand(command string, data CommandData) (string, error) {
	// Create template with strict mode (fails on missing keys)
	tmpl, err := template.New("command").
		Funcs(template.FuncMap{"shellQuote": shellQuote}).
		Option("missingkey=error").
		Parse(command)
	if err != nil {
		return "", fmt.Errorf("parse command template: %w", err)
	}

	// Execute template with invocation data
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute command template: %w", err)
	}

	return buf.String(), nil
}
