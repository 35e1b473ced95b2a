// Package chat holds the platform-neutral types exchanged between modules and
// the collaborators they rely on (platform client, role registry, membership
// store). Adapters (Discord, console) translate their own events into these.
package chat

import (
	"context"
	"errors"
	"time"
)

// RoleHandle identifies a role inside one guild (a Discord role ID).
type RoleHandle string

// Member is a user as seen from one guild.
type Member struct {
	ID      string
	GuildID string
	Name    string
	Roles   []RoleHandle
}

// Mention returns the platform mention markup for the member.
func (m Member) Mention() string {
	return "<@" + m.ID + ">"
}

// HasAnyRole reports whether the member holds at least one of roles.
func (m Member) HasAnyRole(roles map[RoleHandle]struct{}) bool {
	for _, r := range m.Roles {
		if _, ok := roles[r]; ok {
			return true
		}
	}
	return false
}

// Message is an inbound text message.
type Message struct {
	ID        string
	Content   string
	ChannelID string
	GuildID   string
	Author    Member
}

// Reaction is a reaction added to or removed from a message.
type Reaction struct {
	MessageID string
	ChannelID string
	GuildID   string
	UserID    string
	Emoji     string
}

// Platform is the network client modules reply and moderate through.
type Platform interface {
	SendMessage(ctx context.Context, channelID, text string) error
	// SystemChannel returns the guild's system channel, ok=false when none is set.
	SystemChannel(ctx context.Context, guildID string) (channelID string, ok bool, err error)
	Ban(ctx context.Context, member Member) error
	Kick(ctx context.Context, member Member) error
	AddRole(ctx context.Context, member Member, role RoleHandle) error
	RemoveRole(ctx context.Context, member Member, role RoleHandle) error
	// Member looks up a guild member. It wraps ErrUnknownMember when the user
	// is not in the guild.
	Member(ctx context.Context, guildID, userID string) (Member, error)
}

// ErrUnknownMember is returned by Platform.Member for users outside the guild.
var ErrUnknownMember = errors.New("unknown member")

// RoleRegistry resolves guild-scoped role labels to role handles.
type RoleRegistry interface {
	Role(guildID, label string) (RoleHandle, bool)
	Labels(guildID string) []string
}

// Sanction kinds stored by the membership store.
const (
	SanctionBan  = "ban"
	SanctionKick = "kick"
)

// Sanction is one durable moderation record.
type Sanction struct {
	GuildID  string    `json:"guild_id"`
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Kind     string    `json:"kind"`
	Datetime time.Time `json:"datetime"`
}

// MembershipStore keeps durable ban/kick records.
type MembershipStore interface {
	RecordBan(ctx context.Context, member Member) error
	RecordKick(ctx context.Context, member Member) error
	History(ctx context.Context, guildID string) ([]Sanction, error)
	Close() error
}

// RoleChange is a role mutation a module asks the app to perform.
type RoleChange struct {
	Member Member
	Role   RoleHandle
}

// EventHandler receives the platform events a transport delivers. The app
// implements it; transports call it one event at a time.
type EventHandler interface {
	OnReady(ctx context.Context) error
	OnMessage(ctx context.Context, msg Message) (bool, error)
	OnMemberJoin(ctx context.Context, member Member) (bool, error)
	OnReactionAdd(ctx context.Context, r Reaction) (bool, error)
	OnReactionRemove(ctx context.Context, r Reaction) (bool, error)
}
