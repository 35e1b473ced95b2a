// Package moderation bans and kicks members and keeps their sanction history.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/keshon/suno/internal/chat"
	"github.com/keshon/suno/internal/module"
)

// ModeratorRole is the role label allowed to sanction.
const ModeratorRole = "role_confiance_haute"

const authorKey = "author"

type Moderation struct {
	host module.Host
	m    *module.Module
}

// New builds the moderation module.
func New(host module.Host) (*module.Module, error) {
	mod := &Moderation{host: host}

	target := module.CommandSpec{
		Args:       []module.ArgPredicate{module.IsMention},
		AllArgs:    []module.AllArgsPredicate{module.ExactArgs(1), notSelf},
		BeforeArgs: withAuthor,
		Perms:      module.Perms(ModeratorRole),
	}
	ban, kick := target, target
	ban.Name, ban.Help = "ban", "Bannit le membre mentionné et garde une trace de la sanction.\nUsage: !mod ban <@membre>"
	kick.Name, kick.Help = "kick", "Expulse le membre mentionné et garde une trace de la sanction.\nUsage: !mod kick <@membre>"

	m, err := module.New(host, module.Definition{
		Name:        "Moderation",
		Prefix:      "mod",
		Description: "Sanctions des membres: bannissement, expulsion et historique.",
		Commands: []module.CommandSpec{
			ban,
			kick,
			{
				Name:    "history",
				Help:    "Liste les dernières sanctions du serveur.",
				AllArgs: []module.AllArgsPredicate{module.MaxArgs(0)},
				Perms:   module.Perms(ModeratorRole),
			},
		},
	}, module.Handlers{
		"ban":     mod.ban,
		"kick":    mod.kick,
		"history": mod.history,
	})
	if err != nil {
		return nil, err
	}
	mod.m = m
	return m, nil
}

func withAuthor(inv *module.Invocation) module.ArgContext {
	return module.ArgContext{authorKey: inv.Message.Author.ID}
}

// notSelf refuses a sanction aimed at its author.
func notSelf(ac module.ArgContext, raw []string, _ []module.ParsedArgument) module.Outcome {
	for _, r := range raw {
		if id, ok := module.MentionID(r); ok && id == ac.String(authorKey) {
			return module.RejectWith("Vous ne pouvez pas vous sanctionner vous-même.")
		}
	}
	return module.Approve()
}

// target resolves the mentioned member. ok=false means the user was told why.
func (mod *Moderation) target(ctx context.Context, inv *module.Invocation) (chat.Member, bool, error) {
	id, _ := module.MentionID(inv.Args[0])
	member, err := mod.host.Platform().Member(ctx, inv.Message.GuildID, id)
	if errors.Is(err, chat.ErrUnknownMember) {
		return chat.Member{}, false, mod.m.SendMessage(ctx, inv.Message.ChannelID,
			fmt.Sprintf("Membre inconnu: %s", inv.Args[0]))
	}
	if err != nil {
		return chat.Member{}, false, fmt.Errorf("lookup member: %w", err)
	}
	return member, true, nil
}

func (mod *Moderation) ban(ctx context.Context, inv *module.Invocation) error {
	member, ok, err := mod.target(ctx, inv)
	if !ok {
		return err
	}
	if err := mod.m.BanMember(ctx, member); err != nil {
		return err
	}
	return mod.m.SendMessage(ctx, inv.Message.ChannelID, fmt.Sprintf("%s a été banni·e.", member.Mention()))
}

func (mod *Moderation) kick(ctx context.Context, inv *module.Invocation) error {
	member, ok, err := mod.target(ctx, inv)
	if !ok {
		return err
	}
	if err := mod.m.KickMember(ctx, member); err != nil {
		return err
	}
	return mod.m.SendMessage(ctx, inv.Message.ChannelID, fmt.Sprintf("%s a été expulsé·e.", member.Mention()))
}

func (mod *Moderation) history(ctx context.Context, inv *module.Invocation) error {
	sanctions, err := mod.host.Membership().History(ctx, inv.Message.GuildID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(sanctions) == 0 {
		return mod.m.SendMessage(ctx, inv.Message.ChannelID, "Aucune sanction enregistrée.")
	}

	lines := make([]string, 0, len(sanctions))
	for _, s := range sanctions {
		name := s.Username
		if name == "" {
			name = s.UserID
		}
		lines = append(lines, fmt.Sprintf("%s %s %s (%s)", s.Datetime.Format("2006-01-02 15:04"), s.Kind, name, s.UserID))
	}
	return mod.m.SendMessage(ctx, inv.Message.ChannelID, "```\n"+strings.Join(lines, "\n")+"\n```")
}
