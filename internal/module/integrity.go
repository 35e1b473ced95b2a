package module

import (
	"fmt"
	"strings"
)

// IntegrityError reports table commands without a handler. A module that
// fails this check must not be registered.
type IntegrityError struct {
	Module  string
	Missing []string
}

func (e *IntegrityError) Error() string {
	return "some integrity checks failed: " + e.detail()
}

func (e *IntegrityError) detail() string {
	return fmt.Sprintf(
		"integrity problems encountered in the %s module; missing handlers: %s",
		e.Module, strings.Join(e.Missing, ", "),
	)
}

// missingHandlers lists table commands without a handler, in table order.
func missingHandlers(t *Table, h Handlers) []string {
	var missing []string
	for _, name := range t.Names() {
		if h[name] == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// checkIntegrity fails when a declared command has no handler. The log sink
// is switched to the console first so the failure shows up even before
// logging is configured.
func (m *Module) checkIntegrity() error {
	missing := missingHandlers(m.table, m.handlers)
	for name := range m.handlers {
		if _, ok := m.table.Get(name); !ok {
			m.log.Debugf("handler %q has no command entry and is unreachable", name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	m.earlyFailure()
	err := &IntegrityError{Module: m.name, Missing: missing}
	m.log.Error(err.detail() + ". Please implement them.")
	return err
}

func (m *Module) earlyFailure() {
	m.log.AttachConsole()
	m.log.Debug("Early failure: logger outputs on stdout.")
}
