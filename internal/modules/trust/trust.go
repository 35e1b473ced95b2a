// Package trust grants and removes the per-guild trust roles and welcomes new
// members in the system channel.
package trust

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/keshon/suno/internal/chat"
	"github.com/keshon/suno/internal/module"
)

// ManagerRole is the role label allowed to change trust levels.
const ManagerRole = "role_confiance_haute"

const levelsKey = "levels"

type Trust struct {
	host module.Host
	m    *module.Module
}

// New builds the trust module.
func New(host module.Host) (*module.Module, error) {
	t := &Trust{host: host}
	m, err := module.New(host, module.Definition{
		Name:        "Trust",
		Prefix:      "trust",
		Description: "Gestion des niveaux de confiance des membres.",
		Commands: []module.CommandSpec{
			{
				Name:       "give",
				Help:       "Donne un niveau de confiance.\nUsage: !trust give <@membre> <niveau>",
				Args:       []module.ArgPredicate{module.IsMention, module.OneOfContext(levelsKey)},
				AllArgs:    []module.AllArgsPredicate{module.ExactArgs(2), mentionThenLevel},
				BeforeArgs: t.levels,
				Perms:      module.Perms(ManagerRole),
			},
			{
				Name:    "take",
				Help:    "Retire tous les niveaux de confiance.\nUsage: !trust take <@membre>",
				Args:    []module.ArgPredicate{module.IsMention},
				AllArgs: []module.AllArgsPredicate{module.ExactArgs(1)},
				Perms:   module.Perms(ManagerRole),
			},
			{
				Name:    "levels",
				Help:    "Liste les niveaux de confiance du serveur.",
				AllArgs: []module.AllArgsPredicate{module.MaxArgs(0)},
			},
		},
		Events: module.Events{
			MemberJoin: t.welcome,
		},
	}, module.Handlers{
		"give":   t.give,
		"take":   t.take,
		"levels": t.listLevels,
	})
	if err != nil {
		return nil, err
	}
	t.m = m
	return m, nil
}

func (t *Trust) levels(inv *module.Invocation) module.ArgContext {
	return module.ArgContext{levelsKey: t.host.Roles().Labels(inv.Message.GuildID)}
}

func mentionThenLevel(ac module.ArgContext, raw []string, parsed []module.ParsedArgument) module.Outcome {
	if !parsed[0].Is(module.KindMention) || !slices.Contains(ac.Strings(levelsKey), raw[1]) {
		return module.Reject()
	}
	return module.Approve()
}

func (t *Trust) member(ctx context.Context, inv *module.Invocation) (chat.Member, bool, error) {
	id, _ := module.MentionID(inv.Args[0])
	member, err := t.host.Platform().Member(ctx, inv.Message.GuildID, id)
	if errors.Is(err, chat.ErrUnknownMember) {
		return chat.Member{}, false, t.m.SendMessage(ctx, inv.Message.ChannelID,
			fmt.Sprintf("Membre inconnu: %s", inv.Args[0]))
	}
	if err != nil {
		return chat.Member{}, false, fmt.Errorf("lookup member: %w", err)
	}
	return member, true, nil
}

// held returns the trust roles of the guild that member currently has.
func (t *Trust) held(member chat.Member) []chat.RoleHandle {
	var out []chat.RoleHandle
	for _, label := range t.host.Roles().Labels(member.GuildID) {
		role, ok := t.m.GetRole(member.GuildID, label)
		if ok && slices.Contains(member.Roles, role) {
			out = append(out, role)
		}
	}
	return out
}

func (t *Trust) give(ctx context.Context, inv *module.Invocation) error {
	member, ok, err := t.member(ctx, inv)
	if !ok {
		return err
	}
	label := inv.Args[1]
	role, _ := t.m.GetRole(inv.Message.GuildID, label)

	if t.host.Config().OverwriteRoles {
		for _, old := range t.held(member) {
			if old == role {
				continue
			}
			if err := t.m.ManageRole(ctx, module.RoleRemove, chat.RoleChange{Member: member, Role: old}); err != nil {
				return err
			}
		}
	}
	if err := t.m.ManageRole(ctx, module.RoleAdd, chat.RoleChange{Member: member, Role: role}); err != nil {
		return err
	}
	return t.m.SendMessage(ctx, inv.Message.ChannelID, fmt.Sprintf("%s a reçu le niveau %s.", member.Mention(), label))
}

func (t *Trust) take(ctx context.Context, inv *module.Invocation) error {
	member, ok, err := t.member(ctx, inv)
	if !ok {
		return err
	}
	held := t.held(member)
	if len(held) == 0 {
		return t.m.SendMessage(ctx, inv.Message.ChannelID, fmt.Sprintf("%s n'a aucun niveau de confiance.", member.Mention()))
	}
	for _, role := range held {
		if err := t.m.ManageRole(ctx, module.RoleRemove, chat.RoleChange{Member: member, Role: role}); err != nil {
			return err
		}
	}
	return t.m.SendMessage(ctx, inv.Message.ChannelID, fmt.Sprintf("%s n'a plus de niveau de confiance.", member.Mention()))
}

func (t *Trust) listLevels(ctx context.Context, inv *module.Invocation) error {
	labels := t.host.Roles().Labels(inv.Message.GuildID)
	if len(labels) == 0 {
		return t.m.SendMessage(ctx, inv.Message.ChannelID, "Aucun niveau de confiance configuré pour ce serveur.")
	}
	return t.m.SendMessage(ctx, inv.Message.ChannelID, "Niveaux: "+strings.Join(labels, ", "))
}

func (t *Trust) welcome(ctx context.Context, member chat.Member) (bool, error) {
	return t.m.SendToSystemChannel(ctx, member.GuildID,
		fmt.Sprintf("Bienvenue %s ! Tape `!help` pour découvrir les commandes.", member.Mention()))
}
