// Package app is the module registry. It owns the shared collaborators
// (platform, role registry, membership store), hands them to modules through
// module.Host, and routes every platform event to the modules in
// registration order.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/keshon/suno/internal/chat"
	"github.com/keshon/suno/internal/config"
	"github.com/keshon/suno/internal/logging"
	"github.com/keshon/suno/internal/module"
)

// Factory builds one module against the app.
type Factory func(host module.Host) (*module.Module, error)

type roleAction func(ctx context.Context, p chat.Platform, c chat.RoleChange) error

// App implements module.Host.
type App struct {
	cfg      *config.Config
	platform chat.Platform
	roles    chat.RoleRegistry
	store    chat.MembershipStore
	log      *logging.Sink

	mu      sync.RWMutex
	modules []*module.Module
	frozen  bool

	roleActions map[string]roleAction
}

// New builds an app with no modules.
func New(cfg *config.Config, platform chat.Platform, roles chat.RoleRegistry, store chat.MembershipStore) (*App, error) {
	a := &App{
		cfg:      cfg,
		platform: platform,
		roles:    roles,
		store:    store,
		roleActions: map[string]roleAction{
			module.RoleAdd: func(ctx context.Context, p chat.Platform, c chat.RoleChange) error {
				return p.AddRole(ctx, c.Member, c.Role)
			},
			module.RoleRemove: func(ctx context.Context, p chat.Platform, c chat.RoleChange) error {
				return p.RemoveRole(ctx, c.Member, c.Role)
			},
		},
	}
	sink, err := a.NewSink("app")
	if err != nil {
		return nil, err
	}
	a.log = sink
	if cfg.Dev {
		sink.AttachConsole()
	}
	return a, nil
}

func (a *App) Config() *config.Config           { return a.cfg }
func (a *App) Platform() chat.Platform          { return a.platform }
func (a *App) Roles() chat.RoleRegistry         { return a.roles }
func (a *App) Membership() chat.MembershipStore { return a.store }
func (a *App) Logger() *logging.Sink            { return a.log }

// NewSink opens the named log sink under the configured log directory. An
// empty directory disables log files.
func (a *App) NewSink(name string) (*logging.Sink, error) {
	if a.cfg.LogDir == "" {
		return logging.Discard(name), nil
	}
	return logging.NewSink(a.cfg.LogDir, name, a.cfg.LogLevel)
}

// Modules returns the registered modules in registration order.
func (a *App) Modules() []*module.Module {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]*module.Module(nil), a.modules...)
}

// Load builds and registers every factory in order. It stops at the first
// failure; an *module.IntegrityError means the module must not run.
func (a *App) Load(factories ...Factory) error {
	for _, f := range factories {
		m, err := f(a)
		if err != nil {
			return fmt.Errorf("load module: %w", err)
		}
		if err := a.Register(m); err != nil {
			return errors.Join(err, m.Close())
		}
	}
	return nil
}

// Register appends m. Names and prefixes must be unique.
func (a *App) Register(m *module.Module) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.frozen {
		return fmt.Errorf("register %s: module list is frozen", m.Name())
	}
	for _, other := range a.modules {
		if other.Name() == m.Name() {
			return fmt.Errorf("register %s: duplicate module name", m.Name())
		}
		if other.Prefix() == m.Prefix() {
			return fmt.Errorf("register %s: prefix %q already used by %s", m.Name(), m.Prefix(), other.Name())
		}
	}
	a.modules = append(a.modules, m)
	a.log.Infof("Module %s registered with prefix !%s.", m.Name(), m.Prefix())
	return nil
}

func (a *App) snapshot() []*module.Module {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frozen = true
	return a.modules
}

// ManageRole runs the role mutation registered under action.
func (a *App) ManageRole(ctx context.Context, action string, change chat.RoleChange) error {
	run, ok := a.roleActions[action]
	if !ok {
		return fmt.Errorf("unknown role action %q", action)
	}
	if err := run(ctx, a.platform, change); err != nil {
		return fmt.Errorf("%s role %s for %s: %w", action, change.Role, change.Member.ID, err)
	}
	a.log.Debugf("Role %s: %s for %s.", action, change.Role, change.Member.Mention())
	return nil
}

// OnMessage offers msg to every module in order until one claims it.
func (a *App) OnMessage(ctx context.Context, msg chat.Message) (bool, error) {
	if module.Normalize(msg.Content) == a.cfg.LoadCommand {
		return true, a.report(a.loadGuild(ctx, msg))
	}
	for _, m := range a.snapshot() {
		handled, err := m.OnMessage(ctx, msg)
		if handled || err != nil {
			return handled, a.report(err)
		}
	}
	return false, nil
}

// loadGuild answers the load command with the guild's role configuration.
func (a *App) loadGuild(ctx context.Context, msg chat.Message) error {
	labels := a.roles.Labels(msg.GuildID)
	text := "Ce serveur n'est pas configuré."
	if len(labels) > 0 {
		text = fmt.Sprintf("Serveur chargé. Rôles configurés: %s", strings.Join(labels, ", "))
	}
	if err := a.platform.SendMessage(ctx, msg.ChannelID, text); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// OnReady notifies every module. All modules are called even when some fail.
func (a *App) OnReady(ctx context.Context) error {
	var errs []error
	for _, m := range a.snapshot() {
		if err := m.OnReady(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s ready: %w", m.Name(), err))
		}
	}
	a.log.Info("All modules ready.")
	return a.report(errors.Join(errs...))
}

// OnMemberJoin fans the event out to every module.
func (a *App) OnMemberJoin(ctx context.Context, member chat.Member) (bool, error) {
	return a.fanOut(func(m *module.Module) (bool, error) { return m.OnMemberJoin(ctx, member) })
}

// OnReactionAdd fans the event out to every module.
func (a *App) OnReactionAdd(ctx context.Context, r chat.Reaction) (bool, error) {
	return a.fanOut(func(m *module.Module) (bool, error) { return m.OnReactionAdd(ctx, r) })
}

// OnReactionRemove fans the event out to every module.
func (a *App) OnReactionRemove(ctx context.Context, r chat.Reaction) (bool, error) {
	return a.fanOut(func(m *module.Module) (bool, error) { return m.OnReactionRemove(ctx, r) })
}

func (a *App) fanOut(fn func(*module.Module) (bool, error)) (bool, error) {
	var (
		handled bool
		errs    []error
	)
	for _, m := range a.snapshot() {
		h, err := fn(m)
		handled = handled || h
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.Name(), err))
		}
	}
	return handled, a.report(errors.Join(errs...))
}

func (a *App) report(err error) error {
	if err == nil {
		return nil
	}
	if a.cfg.Dev {
		a.log.WithError(err).Debug("event failed")
	} else {
		a.log.WithError(err).Error("event failed")
	}
	return err
}

// Close closes every module sink, the membership store and the app sink.
func (a *App) Close() error {
	var errs []error
	for _, m := range a.Modules() {
		errs = append(errs, m.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	errs = append(errs, a.log.Close())
	return errors.Join(errs...)
}

var _ module.Host = (*App)(nil)
var _ chat.EventHandler = (*App)(nil)
