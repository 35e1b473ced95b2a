// Package example is the template module. Copy it to start a new module; it
// is loaded like any other but left out of the global help.
package example

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/suno/internal/chat"
	"github.com/keshon/suno/internal/module"
)

// PingEmoji is the reaction the module answers to.
const PingEmoji = "🏓"

type Example struct {
	host module.Host
	m    *module.Module
}

func definition(e *Example) module.Definition {
	return module.Definition{
		Name:        module.ExampleModuleName,
		Prefix:      "example",
		Description: "Module d'exemple, à copier pour en écrire un nouveau.",
		Commands: []module.CommandSpec{
			{Name: "ping", Help: "Répond pong.", AllArgs: []module.AllArgsPredicate{module.MaxArgs(0)}},
			{Name: "echo", Help: "Répète les arguments.", Args: []module.ArgPredicate{module.IsString}, AllArgs: []module.AllArgsPredicate{module.MinArgs(1)}},
		},
		TestCommands: []module.CommandSpec{
			{Name: "debug", Help: "Affiche la configuration de test."},
		},
		Events: module.Events{
			ReactionAdd: e.onReactionAdd,
		},
	}
}

// New builds the example module.
func New(host module.Host) (*module.Module, error) {
	e := &Example{host: host}
	m, err := module.New(host, definition(e), module.Handlers{
		"ping":  e.ping,
		"echo":  e.echo,
		"debug": e.debug,
	})
	if err != nil {
		return nil, err
	}
	e.m = m
	return m, nil
}

func (e *Example) ping(ctx context.Context, inv *module.Invocation) error {
	return e.m.SendMessage(ctx, inv.Message.ChannelID, "pong")
}

func (e *Example) echo(ctx context.Context, inv *module.Invocation) error {
	return e.m.SendMessage(ctx, inv.Message.ChannelID, strings.Join(inv.Args, " "))
}

func (e *Example) debug(ctx context.Context, inv *module.Invocation) error {
	cfg := e.host.Config()
	return e.m.SendMessage(ctx, inv.Message.ChannelID,
		fmt.Sprintf("test=%t dev=%t commandes=%s", cfg.Test, e.m.Dev(), strings.Join(e.m.Commands().Names(), ",")))
}

func (e *Example) onReactionAdd(ctx context.Context, r chat.Reaction) (bool, error) {
	if r.Emoji != PingEmoji {
		return false, nil
	}
	return true, e.m.SendMessage(ctx, r.ChannelID, "pong")
}
