package module

import (
	"regexp"
	"strings"
)

// mentionPattern matches user (<@id>, <@!id>) and role (<@&id>) mentions with
// an 18-digit snowflake.
var mentionPattern = regexp.MustCompile(`^<@[!&]?[0-9]{18}>$`)

// Classify pairs every raw token with its own kinds. Positions never shift:
// parsed[i] always describes args[i].
func Classify(args []string) []ParsedArgument {
	parsed := make([]ParsedArgument, len(args))
	for i, a := range args {
		parsed[i] = ParsedArgument{Raw: a, Kinds: kindsOf(a)}
	}
	return parsed
}

func kindsOf(token string) []Kind {
	if mentionPattern.MatchString(token) {
		return []Kind{KindMention, KindString}
	}
	return []Kind{KindString}
}

// MentionID extracts the snowflake from a mention token.
func MentionID(token string) (string, bool) {
	if !mentionPattern.MatchString(token) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(token, "<@"), ">")
	return strings.TrimLeft(id, "!&"), true
}
