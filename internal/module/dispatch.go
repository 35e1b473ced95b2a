package module

import (
	"context"
	"fmt"

	"github.com/keshon/suno/internal/chat"
	"github.com/keshon/suno/internal/config"
)

// OnMessage dispatches msg. It reports handled=false when the message is not
// addressed to this module, so another module may claim it. Every user error
// (unknown command, bad syntax, missing role) becomes a reply and handled=true.
// Only failures talking to the platform are returned.
func (m *Module) OnMessage(ctx context.Context, msg chat.Message) (bool, error) {
	m.log.Debugf("Got message: %s", msg.Content)

	content := Normalize(msg.Content)
	if content == config.GlobalHelpTrigger {
		return true, m.report(m.SendMessage(ctx, msg.ChannelID, m.GlobalHelp()))
	}
	if !addressedTo(content, m.prefix) {
		return false, nil
	}
	tok, ok := Split(content)
	if !ok {
		return false, nil
	}

	run, ok := m.chains[tok.Command]
	if !ok {
		m.log.WithError(ErrUnknownCommand).Debugf("%s:%s", m.name, tok.Command)
		return true, m.report(m.SendMessage(ctx, msg.ChannelID, fmt.Sprintf("Commande inconnue: %s", tok.Command)))
	}
	m.log.Debugf("Command matches %s:%s.", m.name, tok.Command)

	if isHelpRequest(tok.Args) {
		return true, m.report(m.SendMessage(ctx, msg.ChannelID, m.CommandHelp(tok.Command)))
	}

	inv := &Invocation{
		Message: msg,
		Command: tok.Command,
		Args:    tok.Args,
		Parsed:  Classify(tok.Args),
	}
	return true, m.report(run(ctx, inv))
}

// report logs an external failure (at debug in dev mode, where the console
// already shows it, at error otherwise) and passes it on.
func (m *Module) report(err error) error {
	if err == nil {
		return nil
	}
	if m.dev {
		m.log.WithError(err).Debug("dispatch failed")
	} else {
		m.log.WithError(err).Error("dispatch failed")
	}
	return err
}
