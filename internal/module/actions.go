package module

import (
	"context"
	"errors"
	"fmt"

	"github.com/keshon/suno/internal/chat"
)

// SendMessage posts text to channelID.
func (m *Module) SendMessage(ctx context.Context, channelID, text string) error {
	m.log.Debugf("[platform] Sending message %q in %s.", text, channelID)
	if err := m.host.Platform().SendMessage(ctx, channelID, text); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendToSystemChannel posts text to the guild's system channel. It returns
// false when the guild has none.
func (m *Module) SendToSystemChannel(ctx context.Context, guildID, text string) (bool, error) {
	channelID, ok, err := m.host.Platform().SystemChannel(ctx, guildID)
	if err != nil {
		return false, fmt.Errorf("lookup system channel: %w", err)
	}
	if !ok {
		m.log.Debug("There is no system channel. Cannot send message.")
		return false, nil
	}
	if err := m.SendMessage(ctx, channelID, text); err != nil {
		return false, err
	}
	return true, nil
}

// BanMember records the ban, then bans on the platform. Both steps run even
// when the first fails.
func (m *Module) BanMember(ctx context.Context, member chat.Member) error {
	var errs []error
	if err := m.host.Membership().RecordBan(ctx, member); err != nil {
		errs = append(errs, fmt.Errorf("record ban: %w", err))
	}
	if err := m.host.Platform().Ban(ctx, member); err != nil {
		errs = append(errs, fmt.Errorf("ban member: %w", err))
	} else {
		m.log.Debugf("[platform] %s has been banned.", member.Mention())
	}
	return errors.Join(errs...)
}

// KickMember records the kick, then kicks on the platform. Both steps run
// even when the first fails.
func (m *Module) KickMember(ctx context.Context, member chat.Member) error {
	var errs []error
	if err := m.host.Membership().RecordKick(ctx, member); err != nil {
		errs = append(errs, fmt.Errorf("record kick: %w", err))
	}
	if err := m.host.Platform().Kick(ctx, member); err != nil {
		errs = append(errs, fmt.Errorf("kick member: %w", err))
	} else {
		m.log.Debugf("[platform] %s has been kicked.", member.Mention())
	}
	return errors.Join(errs...)
}

// Role actions understood by Host.ManageRole.
const (
	RoleAdd    = "add"
	RoleRemove = "remove"
)

// GetRole resolves a role label in guildID.
func (m *Module) GetRole(guildID, label string) (chat.RoleHandle, bool) {
	return m.host.Roles().Role(guildID, label)
}

// ManageRole asks the app to run the role mutation registered under action.
func (m *Module) ManageRole(ctx context.Context, action string, change chat.RoleChange) error {
	if err := m.host.ManageRole(ctx, action, change); err != nil {
		return fmt.Errorf("manage role %s: %w", action, err)
	}
	return nil
}
