// Package module is the plugin contract of the bot. A module owns a command
// table, validates and authorizes commands addressed to its prefix, and runs
// the matching handler. Modules are built once with New, which refuses to
// return a module whose table names a command without a handler.
package module

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/keshon/suno/internal/chat"
	"github.com/keshon/suno/internal/config"
	"github.com/keshon/suno/internal/logging"
)

// DefaultDescription is used when a module does not describe itself.
const DefaultDescription = "L'aide de ce module n'a pas été rédigée, n'hésitez pas " +
	"à contacter quelqu'un du dev' pour la rédiger, ou pour vous l'expliquer."

// Host is the application a module is loaded into.
type Host interface {
	Config() *config.Config
	Platform() chat.Platform
	Roles() chat.RoleRegistry
	Membership() chat.MembershipStore
	// Modules returns the registered modules in registration order.
	Modules() []*Module
	// ManageRole runs the role mutation registered under action.
	ManageRole(ctx context.Context, action string, change chat.RoleChange) error
	NewSink(name string) (*logging.Sink, error)
}

// Events are optional hooks for non-message platform events. A nil hook
// means "not handled".
type Events struct {
	Ready          func(ctx context.Context) error
	MemberJoin     func(ctx context.Context, member chat.Member) (bool, error)
	ReactionAdd    func(ctx context.Context, r chat.Reaction) (bool, error)
	ReactionRemove func(ctx context.Context, r chat.Reaction) (bool, error)
}

// Definition is the static declaration of a module.
type Definition struct {
	Name string
	// Prefix is the address token after "!". Defaults to Name.
	Prefix      string
	Description string
	// LoggerName names the log sink. Defaults to Name.
	LoggerName   string
	Commands     []CommandSpec
	TestCommands []CommandSpec
	Events       Events
}

// Module is a loaded plugin. It is immutable after New returns, apart from
// the dev flag.
type Module struct {
	name        string
	prefix      string
	description string
	host        Host
	log         *logging.Sink
	table       *Table
	handlers    Handlers
	chains      map[string]Handler
	events      Events
	dev         bool
}

// New builds a module from def and handlers and runs the integrity check.
// The help command gets a built-in handler unless handlers overrides it.
func New(host Host, def Definition, handlers Handlers) (*Module, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("module name cannot be empty")
	}
	if def.Prefix == "" {
		def.Prefix = def.Name
	}
	if def.Description == "" {
		def.Description = DefaultDescription
	}
	if def.LoggerName == "" {
		def.LoggerName = def.Name
	}

	sink, err := host.NewSink(def.LoggerName)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", def.Name, err)
	}

	m := &Module{
		name:        def.Name,
		prefix:      def.Prefix,
		description: def.Description,
		host:        host,
		log:         sink,
		table:       buildTable(def.Commands, def.TestCommands, host.Config().Test),
		handlers:    make(Handlers, len(handlers)+1),
		events:      def.Events,
	}
	for name, h := range handlers {
		m.handlers[name] = h
	}
	if m.handlers[HelpCommand] == nil {
		m.handlers[HelpCommand] = m.commandHelp
	}

	if err := m.checkIntegrity(); err != nil {
		if cerr := m.log.Close(); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, err
	}
	m.compile()

	if host.Config().Dev {
		m.SetDevMode(true)
	}
	return m, nil
}

// compile wraps every handler once. Arguments are validated before roles
// are checked.
func (m *Module) compile() {
	m.chains = make(map[string]Handler, m.table.Len())
	for _, name := range m.table.Names() {
		spec, _ := m.table.Get(name)
		m.chains[name] = Apply(m.handlers[name],
			m.withSyntaxCheck(spec),
			m.withPermissionCheck(spec),
			m.withCommandLog(spec),
		)
	}
}

func (m *Module) Name() string        { return m.name }
func (m *Module) Prefix() string      { return m.prefix }
func (m *Module) Description() string { return m.description }
func (m *Module) Commands() *Table    { return m.table }
func (m *Module) Logger() *logging.Sink {
	return m.log
}
func (m *Module) Dev() bool { return m.dev }

// SetDevMode turns on debug logging for the module, mirrored on the console
// when printStdout is set.
func (m *Module) SetDevMode(printStdout bool) {
	if m.dev {
		return
	}
	m.dev = true
	if printStdout {
		m.log.AttachConsole()
	}
	m.log.SetLevel(logrus.DebugLevel)
	m.log.Debugf("Dev mode activated for module %s.", m.name)
}

// Close flushes the module's log sink.
func (m *Module) Close() error {
	return m.log.Close()
}

// OnReady is called once the platform connection is up.
func (m *Module) OnReady(ctx context.Context) error {
	m.log.Debugf("Module %s loaded and ready.", m.name)
	if m.events.Ready == nil {
		return nil
	}
	return m.events.Ready(ctx)
}

// OnMemberJoin is called for every member joining a guild.
func (m *Module) OnMemberJoin(ctx context.Context, member chat.Member) (bool, error) {
	m.log.Debugf("New member just joined: %s", member.Name)
	if m.events.MemberJoin == nil {
		return false, nil
	}
	return m.events.MemberJoin(ctx, member)
}

// OnReactionAdd is called for every reaction added to a message.
func (m *Module) OnReactionAdd(ctx context.Context, r chat.Reaction) (bool, error) {
	if m.events.ReactionAdd == nil {
		return false, nil
	}
	return m.events.ReactionAdd(ctx, r)
}

// OnReactionRemove is called for every reaction removed from a message.
func (m *Module) OnReactionRemove(ctx context.Context, r chat.Reaction) (bool, error) {
	if m.events.ReactionRemove == nil {
		return false, nil
	}
	return m.events.ReactionRemove(ctx, r)
}
