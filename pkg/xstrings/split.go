package xstrings

import (
	"regexp"
	"strings"
)

// stepSeparators are the common ways a free-text description enumerates
// steps: new lines, semicolons, arrows and "then" chains.
var stepSeparators = regexp.MustCompile(`(?i)\r?\n|;|->|=>|\band then\b|\bthen\b`)

// listMarker matches bullet and enumeration prefixes ("- ", "* ", "1. ", "2) ").
// The marker must be followed by whitespace so "1.5 litres" keeps its number.
var listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)

// SplitSteps splits text into trimmed, non-empty step titles. Text with no
// separator yields a single element; blank text yields none.
func SplitSteps(text string) []string {
	steps := []string{}
	for _, part := range stepSeparators.Split(text, -1) {
		part = listMarker.ReplaceAllString(part, "")
		part = strings.TrimSpace(strings.Trim(strings.TrimSpace(part), ",."))
		if part == "" {
			continue
		}
		steps = append(steps, part)
	}
	return steps
}

// SplitLines returns the non-empty lines of text, stripped of bullet
// markers.
func SplitLines(text string) []string {
	lines := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
