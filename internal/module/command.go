package module

import (
	"slices"

	"github.com/keshon/suno/internal/chat"
)

// Kind is the semantic class of an argument token.
type Kind int

const (
	KindString Kind = iota
	KindMention
)

func (k Kind) String() string {
	switch k {
	case KindMention:
		return "mention"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// ParsedArgument is a raw token with the kinds it was classified as.
// Kinds is never empty and lists KindMention before KindString when both apply.
type ParsedArgument struct {
	Raw   string
	Kinds []Kind
}

// Is reports whether the argument carries kind k.
func (a ParsedArgument) Is(k Kind) bool {
	return slices.Contains(a.Kinds, k)
}

// ArgContext carries values computed by a command's BeforeArgs hook to its
// predicates. A nil ArgContext is valid and empty.
type ArgContext map[string]any

// Strings returns the []string stored under key, or nil.
func (c ArgContext) Strings(key string) []string {
	v, _ := c[key].([]string)
	return v
}

// String returns the string stored under key, or "".
func (c ArgContext) String(key string) string {
	v, _ := c[key].(string)
	return v
}

// ArgPredicate approves one argument position.
type ArgPredicate func(ac ArgContext, arg ParsedArgument) bool

// Outcome is the result of a whole-argument-list predicate.
type Outcome struct {
	Approved bool
	// Message, when set on a rejection, is sent to the channel.
	Message string
}

// Approve lets the command proceed.
func Approve() Outcome { return Outcome{Approved: true} }

// Reject refuses the command without a dedicated reply.
func Reject() Outcome { return Outcome{} }

// RejectWith refuses the command and tells the user why.
func RejectWith(msg string) Outcome { return Outcome{Message: msg} }

// AllArgsPredicate validates the complete argument list.
type AllArgsPredicate func(ac ArgContext, raw []string, parsed []ParsedArgument) Outcome

// BeforeArgsHook computes the ArgContext once per dispatch from the pending
// invocation (message, command, raw and parsed arguments).
type BeforeArgsHook func(inv *Invocation) ArgContext

// PermissionRule lists role labels; holding any one of them grants access.
type PermissionRule struct {
	Roles []string
}

// Perms is shorthand for a rule requiring any of labels.
func Perms(labels ...string) *PermissionRule {
	return &PermissionRule{Roles: labels}
}

func (p *PermissionRule) empty() bool {
	return p == nil || len(p.Roles) == 0
}

// CommandSpec is the declarative description of one command.
type CommandSpec struct {
	Name       string
	Help       string
	Args       []ArgPredicate
	AllArgs    []AllArgsPredicate
	BeforeArgs BeforeArgsHook
	Perms      *PermissionRule
}

func (c CommandSpec) clone() CommandSpec {
	c.Args = slices.Clone(c.Args)
	c.AllArgs = slices.Clone(c.AllArgs)
	if c.Perms != nil {
		c.Perms = &PermissionRule{Roles: slices.Clone(c.Perms.Roles)}
	}
	return c
}

// Invocation is what a handler receives once a command passed every check.
type Invocation struct {
	Message chat.Message
	Command string
	Args    []string
	Parsed  []ParsedArgument
	Context ArgContext
}
