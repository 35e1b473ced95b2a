package module

import (
	"context"
	"fmt"
)

// checkArgs runs the per-position predicates. A command declaring no Args
// predicates accepts any positional tokens.
func checkArgs(spec CommandSpec, ac ArgContext, parsed []ParsedArgument) (int, bool) {
	if len(spec.Args) == 0 {
		return -1, true
	}
	for i, arg := range parsed {
		if !anyApproves(spec.Args, ac, arg) {
			return i, false
		}
	}
	return -1, true
}

func anyApproves(preds []ArgPredicate, ac ArgContext, arg ParsedArgument) bool {
	for _, p := range preds {
		if p(ac, arg) {
			return true
		}
	}
	return false
}

// checkSyntax validates inv against spec, sending any message a whole-list
// predicate returns. It reports whether the command may proceed.
func (m *Module) checkSyntax(ctx context.Context, spec CommandSpec, inv *Invocation) (bool, error) {
	if spec.BeforeArgs != nil {
		inv.Context = spec.BeforeArgs(inv)
	}

	if pos, ok := checkArgs(spec, inv.Context, inv.Parsed); !ok {
		arg := inv.Parsed[pos]
		m.log.Debugf("param %q (%v) not matched", arg.Raw, arg.Kinds)
		return false, nil
	}

	for _, check := range spec.AllArgs {
		out := check(inv.Context, inv.Args, inv.Parsed)
		if out.Approved {
			continue
		}
		if out.Message != "" {
			if err := m.SendMessage(ctx, inv.Message.ChannelID, out.Message); err != nil {
				return false, err
			}
		}
		m.log.Debugf("params %q not matched", inv.Args)
		return false, nil
	}
	return true, nil
}

func (m *Module) syntaxErrorText(command string) string {
	return fmt.Sprintf(
		"Mauvaise syntaxe pour %s %s. \"!%s %s help\" pour afficher l'aide.",
		m.prefix, command, m.prefix, command,
	)
}
