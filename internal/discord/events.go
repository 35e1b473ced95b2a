package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/suno/internal/chat"
)

// Run opens the gateway, forwards events to h and blocks until ctx is done.
func (c *Client) Run(ctx context.Context, h chat.EventHandler) error {
	c.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) { c.onReady(ctx, h, r) })
	c.s.AddHandler(func(s *discordgo.Session, g *discordgo.GuildCreate) { c.onGuildCreate(g) })
	c.s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) { c.onMessageCreate(ctx, h, m) })
	c.s.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberAdd) { c.onMemberAdd(ctx, h, m) })
	c.s.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		c.onReaction(ctx, "add", h.OnReactionAdd, r.MessageReaction)
	})
	c.s.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
		c.onReaction(ctx, "remove", h.OnReactionRemove, r.MessageReaction)
	})

	if err := c.s.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer c.s.Close()

	<-ctx.Done()
	c.log.Info("Shutdown signal received. Cleaning up...")
	return nil
}

func (c *Client) onReady(ctx context.Context, h chat.EventHandler, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		c.leaveIfBlacklisted(g.ID, g.Name)
	}
	if err := h.OnReady(ctx); err != nil {
		c.log.WithError(err).Error("ready handlers failed")
	}
	c.log.Infof("Discord bot %s is running.", r.User.Username)
}

func (c *Client) onGuildCreate(g *discordgo.GuildCreate) {
	c.log.Infof("Bot added to guild: %s (%s)", g.ID, g.Name)
	c.leaveIfBlacklisted(g.ID, g.Name)
}

func (c *Client) leaveIfBlacklisted(guildID, name string) bool {
	if !c.cfg.IsGuildBlacklisted(guildID) {
		return false
	}
	c.log.Infof("Leaving blacklisted guild: %s (%s)", guildID, name)
	if err := c.s.GuildLeave(guildID); err != nil {
		c.log.WithError(err).Errorf("Failed to leave guild %s", guildID)
	}
	return true
}

func (c *Client) onMessageCreate(ctx context.Context, h chat.EventHandler, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	if c.cfg.IsGuildBlacklisted(m.GuildID) {
		return
	}
	if _, err := h.OnMessage(ctx, toMessage(m.Message)); err != nil {
		c.log.WithError(err).Debug("message handling failed")
	}
}

func (c *Client) onMemberAdd(ctx context.Context, h chat.EventHandler, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil || m.User.Bot {
		return
	}
	if _, err := h.OnMemberJoin(ctx, toMember(m.GuildID, m.User, m.Member)); err != nil {
		c.log.WithError(err).Debug("member join handling failed")
	}
}

func (c *Client) onReaction(ctx context.Context, kind string, fn func(context.Context, chat.Reaction) (bool, error), r *discordgo.MessageReaction) {
	if r == nil || (c.s.State.User != nil && r.UserID == c.s.State.User.ID) {
		return
	}
	if _, err := fn(ctx, toReaction(r)); err != nil {
		c.log.WithError(err).Debugf("reaction %s handling failed", kind)
	}
}

func toMessage(m *discordgo.Message) chat.Message {
	return chat.Message{
		ID:        m.ID,
		Content:   m.Content,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Author:    toMember(m.GuildID, m.Author, m.Member),
	}
}

// toMember merges a user with its (possibly partial or nil) guild member.
func toMember(guildID string, u *discordgo.User, m *discordgo.Member) chat.Member {
	out := chat.Member{GuildID: guildID}
	if u == nil && m != nil {
		u = m.User
	}
	if u != nil {
		out.ID = u.ID
		out.Name = u.Username
		if u.GlobalName != "" {
			out.Name = u.GlobalName
		}
	}
	if m != nil {
		if m.Nick != "" {
			out.Name = m.Nick
		}
		for _, r := range m.Roles {
			out.Roles = append(out.Roles, chat.RoleHandle(r))
		}
	}
	return out
}

func toReaction(r *discordgo.MessageReaction) chat.Reaction {
	return chat.Reaction{
		MessageID: r.MessageID,
		ChannelID: r.ChannelID,
		GuildID:   r.GuildID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.Name,
	}
}
