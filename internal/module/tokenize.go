package module

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`[\s\p{Z}]{2,}`)

// Normalize trims text and collapses every run of two or more whitespace
// characters, Unicode separators included, into a single space.
func Normalize(text string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
}

// Tokens is a normalized command line split into its parts.
type Tokens struct {
	// Module is the address token ("!<prefix>"). It duplicates the prefix
	// match and is kept for grammar compatibility.
	Module  string
	Command string
	Args    []string
}

// Split breaks normalized content on single spaces. It fails when there is no
// command token.
func Split(content string) (Tokens, bool) {
	parts := strings.Split(content, " ")
	if len(parts) < 2 {
		return Tokens{}, false
	}
	return Tokens{
		Module:  parts[0],
		Command: parts[1],
		Args:    parts[2:],
	}, true
}

// addressedTo reports whether normalized content is addressed to prefix.
func addressedTo(content, prefix string) bool {
	return strings.HasPrefix(content, "!"+prefix+" ")
}

func isHelpRequest(args []string) bool {
	return len(args) == 1 && args[0] == HelpCommand
}
