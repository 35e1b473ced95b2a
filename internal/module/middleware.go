package module

import (
	"context"
	"errors"
)

// Handler runs a command after it passed syntax and permission checks.
type Handler func(ctx context.Context, inv *Invocation) error

// Handlers maps command names to handlers, one entry per table command.
type Handlers map[string]Handler

// Middleware wraps a handler (syntax check, permission check, logging).
type Middleware func(Handler) Handler

// Apply applies middlewares in order; the first in the list is the outermost.
func Apply(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Recoverable rejections. They are logged and turned into chat replies,
// never returned from OnMessage.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrSyntax         = errors.New("syntax error")
	ErrPermission     = errors.New("permission denied")
)

// PermissionDeniedText is the reply sent when the permission guard refuses.
const PermissionDeniedText = "Vous n'avez pas l'autorisation de lancer cette commande."

// withSyntaxCheck validates arguments before calling next.
func (m *Module) withSyntaxCheck(spec CommandSpec) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, inv *Invocation) error {
			ok, err := m.checkSyntax(ctx, spec, inv)
			if err != nil {
				return err
			}
			if !ok {
				m.log.WithError(ErrSyntax).Debugf("rejected %s:%s", m.name, spec.Name)
				return m.SendMessage(ctx, inv.Message.ChannelID, m.syntaxErrorText(spec.Name))
			}
			return next(ctx, inv)
		}
	}
}

// withPermissionCheck denies users holding none of the command's roles.
func (m *Module) withPermissionCheck(spec CommandSpec) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, inv *Invocation) error {
			if !m.permitted(spec, inv.Message.GuildID, inv.Message.Author) {
				m.log.WithError(ErrPermission).Debugf("user %s denied %s:%s", inv.Message.Author.ID, m.name, spec.Name)
				return m.SendMessage(ctx, inv.Message.ChannelID, PermissionDeniedText)
			}
			return next(ctx, inv)
		}
	}
}

// withCommandLog records which command ran and whether its handler failed.
func (m *Module) withCommandLog(spec CommandSpec) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, inv *Invocation) error {
			err := next(ctx, inv)
			entry := m.log.WithField("command", spec.Name).WithField("user", inv.Message.Author.ID)
			if err != nil {
				entry.WithError(err).Debug("command failed")
				return err
			}
			entry.Debug("command done")
			return nil
		}
	}
}
