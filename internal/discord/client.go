// Package discord is the Discord transport: a chat.Platform over the REST
// API and an event pump feeding gateway events to a chat.EventHandler.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/keshon/suno/internal/chat"
	"github.com/keshon/suno/internal/config"
	"github.com/keshon/suno/pkg/retrylimit"
)

// Client wraps a discordgo session.
type Client struct {
	s      *discordgo.Session
	cfg    *config.Config
	lim    *retrylimit.AdaptiveLimiter
	policy retrylimit.Policy
	log    logrus.FieldLogger
}

// New creates a session for cfg.DiscordToken. Events are delivered one at a
// time; the connection is opened by Run.
func New(cfg *config.Config, log logrus.FieldLogger) (*Client, error) {
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	s, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.SyncEvents = true
	s.Identify.Intents = discordgo.IntentsAll

	policy := retrylimit.DefaultPolicy()
	policy.Log = log
	return &Client{
		s:      s,
		cfg:    cfg,
		lim:    retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
		policy: policy,
		log:    log,
	}, nil
}

// do runs one REST call under the request timeout, pacing and retrying it.
func (c *Client) do(ctx context.Context, fn func(opts ...discordgo.RequestOption) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()
	return retrylimit.Do(ctx, c.lim, c.policy, func() error {
		return classify(fn(discordgo.WithContext(ctx)))
	})
}

func (c *Client) SendMessage(ctx context.Context, channelID, text string) error {
	return c.do(ctx, func(opts ...discordgo.RequestOption) error {
		_, err := c.s.ChannelMessageSend(channelID, text, opts...)
		return err
	})
}

func (c *Client) SystemChannel(ctx context.Context, guildID string) (string, bool, error) {
	g, err := c.s.State.Guild(guildID)
	if err != nil {
		err = c.do(ctx, func(opts ...discordgo.RequestOption) error {
			var gerr error
			g, gerr = c.s.Guild(guildID, opts...)
			return gerr
		})
		if err != nil {
			return "", false, fmt.Errorf("fetch guild %s: %w", guildID, err)
		}
	}
	return g.SystemChannelID, g.SystemChannelID != "", nil
}

func (c *Client) Ban(ctx context.Context, m chat.Member) error {
	return c.do(ctx, func(opts ...discordgo.RequestOption) error {
		return c.s.GuildBanCreate(m.GuildID, m.ID, 0, opts...)
	})
}

func (c *Client) Kick(ctx context.Context, m chat.Member) error {
	return c.do(ctx, func(opts ...discordgo.RequestOption) error {
		return c.s.GuildMemberDelete(m.GuildID, m.ID, opts...)
	})
}

func (c *Client) AddRole(ctx context.Context, m chat.Member, role chat.RoleHandle) error {
	return c.do(ctx, func(opts ...discordgo.RequestOption) error {
		return c.s.GuildMemberRoleAdd(m.GuildID, m.ID, string(role), opts...)
	})
}

func (c *Client) RemoveRole(ctx context.Context, m chat.Member, role chat.RoleHandle) error {
	return c.do(ctx, func(opts ...discordgo.RequestOption) error {
		return c.s.GuildMemberRoleRemove(m.GuildID, m.ID, string(role), opts...)
	})
}

func (c *Client) Member(ctx context.Context, guildID, userID string) (chat.Member, error) {
	if m, err := c.s.State.Member(guildID, userID); err == nil {
		return toMember(guildID, m.User, m), nil
	}
	var dm *discordgo.Member
	err := c.do(ctx, func(opts ...discordgo.RequestOption) error {
		var merr error
		dm, merr = c.s.GuildMember(guildID, userID, opts...)
		return merr
	})
	if err != nil {
		return chat.Member{}, fmt.Errorf("fetch member %s: %w", userID, err)
	}
	return toMember(guildID, dm.User, dm), nil
}

// httpError exposes a REST failure's status to the retry policy.
type httpError struct {
	err  error
	code int
}

func (e *httpError) Error() string   { return e.err.Error() }
func (e *httpError) Unwrap() error   { return e.err }
func (e *httpError) StatusCode() int { return e.code }

// classify turns REST failures into retrylimit.HTTPError values and unknown
// member replies into chat.ErrUnknownMember.
func classify(err error) error {
	var re *discordgo.RESTError
	if !errors.As(err, &re) {
		return err
	}
	if re.Message != nil && re.Message.Code == discordgo.ErrCodeUnknownMember {
		return retrylimit.Permanent(fmt.Errorf("%w: %w", chat.ErrUnknownMember, err))
	}
	code := http.StatusInternalServerError
	if re.Response != nil {
		code = re.Response.StatusCode
	}
	return &httpError{err: err, code: code}
}

var _ chat.Platform = (*Client)(nil)
