// Package markdown reduces model-generated markdown to plain text for
// display surfaces that render raw strings.
package markdown

import "regexp"

// Ordered substitutions. Double-marker emphasis must be stripped before the
// single-marker forms so bold text does not leave stray italic markers.
var substitutions = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?m)^#{1,6}[ \t]*`), ""},               // heading markers
	{regexp.MustCompile(`\*\*(.+?)\*\*`), "$1"},                 // bold, asterisk
	{regexp.MustCompile(`__(.+?)__`), "$1"},                     // bold, underscore
	{regexp.MustCompile(`\*(.+?)\*`), "$1"},                     // italic, asterisk
	{regexp.MustCompile(`_(.+?)_`), "$1"},                       // italic, underscore
	{regexp.MustCompile("`([^`]*)`"), "$1"},                     // inline code
	{regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`), "$1"},         // links, keep text
	{regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`), ""},          // bullet markers
	{regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`), ""},          // numbered markers
	{regexp.MustCompile(`(?m)^[ \t]*(?:[-*_][ \t]*){3,}$`), ""}, // horizontal rules
	{regexp.MustCompile(`(?m)^[ \t]+`), ""},                     // leading whitespace
	{regexp.MustCompile(`\n{3,}`), "\n\n"},                      // collapse blank runs
}

// Strip removes markdown syntax from s, returning plain text. It is
// deterministic and idempotent on already-clean input; empty input is
// returned unchanged.
func Strip(s string) string {
	if s == "" {
		return s
	}
	for _, sub := range substitutions {
		s = sub.re.ReplaceAllString(s, sub.repl)
	}
	return s
}
