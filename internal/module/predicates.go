package module

import (
	"fmt"
	"slices"
)

// IsMention approves a user or role mention.
func IsMention(_ ArgContext, arg ParsedArgument) bool {
	return arg.Is(KindMention)
}

// IsString approves any token.
func IsString(_ ArgContext, arg ParsedArgument) bool {
	return arg.Is(KindString)
}

// OneOf approves a token equal to one of values.
func OneOf(values ...string) ArgPredicate {
	return func(_ ArgContext, arg ParsedArgument) bool {
		return slices.Contains(values, arg.Raw)
	}
}

// OneOfContext approves a token listed in the []string the BeforeArgs hook
// stored under key.
func OneOfContext(key string) ArgPredicate {
	return func(ac ArgContext, arg ParsedArgument) bool {
		return slices.Contains(ac.Strings(key), arg.Raw)
	}
}

// ExactArgs requires exactly n arguments and says so otherwise.
func ExactArgs(n int) AllArgsPredicate {
	return func(_ ArgContext, raw []string, _ []ParsedArgument) Outcome {
		if len(raw) != n {
			return RejectWith(fmt.Sprintf("Cette commande attend %d argument(s), %d reçu(s).", n, len(raw)))
		}
		return Approve()
	}
}

// MinArgs silently rejects lists shorter than n.
func MinArgs(n int) AllArgsPredicate {
	return func(_ ArgContext, raw []string, _ []ParsedArgument) Outcome {
		if len(raw) < n {
			return Reject()
		}
		return Approve()
	}
}

// MaxArgs silently rejects lists longer than n.
func MaxArgs(n int) AllArgsPredicate {
	return func(_ ArgContext, raw []string, _ []ParsedArgument) Outcome {
		if len(raw) > n {
			return Reject()
		}
		return Approve()
	}
}
