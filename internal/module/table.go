package module

// HelpCommand is present in every command table.
const HelpCommand = "help"

const defaultHelpText = "Obtenir l'aide de ce module"

// Table is a module's command table in declaration order.
type Table struct {
	order []string
	specs map[string]CommandSpec
}

// buildTable merges the static declarations with the default help entry and,
// when test is set, the test-only entries. Every spec is copied so tables
// built from the same declarations never share state.
func buildTable(commands, testCommands []CommandSpec, test bool) *Table {
	t := &Table{specs: make(map[string]CommandSpec, len(commands)+1)}
	for _, c := range commands {
		t.set(c)
	}
	if _, ok := t.specs[HelpCommand]; !ok {
		t.set(CommandSpec{Name: HelpCommand, Help: defaultHelpText})
	}
	if test {
		for _, c := range testCommands {
			t.set(c)
		}
	}
	return t
}

// set adds or replaces c, keeping the original position on replacement.
func (t *Table) set(c CommandSpec) {
	if _, ok := t.specs[c.Name]; !ok {
		t.order = append(t.order, c.Name)
	}
	t.specs[c.Name] = c.clone()
}

// Get returns a copy of the spec for name. Changing it does not affect the
// table.
func (t *Table) Get(name string) (CommandSpec, bool) {
	c, ok := t.specs[name]
	if !ok {
		return CommandSpec{}, false
	}
	return c.clone(), true
}

// Names returns the command names in declaration order.
func (t *Table) Names() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of commands.
func (t *Table) Len() int { return len(t.order) }
