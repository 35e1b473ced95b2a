package module

import (
	"context"
	"fmt"
	"strings"
)

// ExampleModuleName is the template module left out of the global help.
const ExampleModuleName = "ExampleModule"

const noPermMarker = "no perm"

func fenced(body string) string {
	return strings.Join([]string{"```markdown", body, "```"}, "\n")
}

// ModuleHelp renders this module's help document.
func (m *Module) ModuleHelp() string {
	return fenced(m.rawHelp())
}

func (m *Module) rawHelp() string {
	names := m.table.Names()

	entries := make([]string, 0, len(names))
	blocks := make([]string, 0, len(names))
	for _, name := range names {
		spec, _ := m.table.Get(name)
		roles := []string{noPermMarker}
		if !spec.Perms.empty() {
			roles = spec.Perms.Roles
		}
		entries = append(entries, fmt.Sprintf("%s - %s", name, strings.Join(roles, " - ")))
		blocks = append(blocks, fmt.Sprintf("%s\n---\n%s\n", name, spec.Help))
	}

	return strings.Join([]string{
		m.name,
		"===",
		m.description,
		"\nPréfix de commande: !" + m.prefix,
		"\nCommandes:\n * " + strings.Join(entries, "\n * "),
		"",
		strings.Join(blocks, "\n"),
	}, "\n")
}

// GlobalHelp renders the cross-module listing: one instruction line about
// the load command, then one line per registered module in registration
// order, the example module excluded.
func (m *Module) GlobalHelp() string {
	var lines []string
	for _, mod := range m.host.Modules() {
		if mod.Name() == ExampleModuleName {
			continue
		}
		lines = append(lines, fmt.Sprintf("!%s help", mod.Prefix()))
	}
	return fenced(strings.Join([]string{
		m.host.Config().LoadCommand + ": load the server.",
		strings.Join(lines, "\n"),
	}, "\n"))
}

// CommandHelp returns a command's help text, or the module description when
// the command has none.
func (m *Module) CommandHelp(command string) string {
	spec, ok := m.table.Get(command)
	if !ok || spec.Help == "" {
		return m.description
	}
	return spec.Help
}

func (m *Module) commandHelp(ctx context.Context, inv *Invocation) error {
	return m.SendMessage(ctx, inv.Message.ChannelID, m.ModuleHelp())
}
