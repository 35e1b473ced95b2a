// Package console is a terminal transport. Every line read from the input is
// a message posted by a local user in a single mock guild, and bot output is
// printed instead of sent. Lines starting with "/" drive the simulation:
//
//	/roles 1,3       set the local user's role IDs
//	/join <name>     a new member joins the guild
//	/react <emoji>   react to the last message
//	/members         list the guild members
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/keshon/suno/internal/chat"
)

// Mock identifiers, 18 digits so mentions validate.
const (
	GuildID       = "100000000000000000"
	ChannelID     = "100000000000000001"
	SystemChannel = "100000000000000002"
	UserID        = "100000000000000003"
)

// Console is both the platform client and the event source.
type Console struct {
	in  io.Reader
	out io.Writer

	bot  *color.Color
	info *color.Color
	warn *color.Color

	mu      sync.Mutex
	members map[string]chat.Member
	nextID  int
	lastMsg int
}

// New returns a console reading in and writing out. The local user is named
// user.
func New(in io.Reader, out io.Writer, user string) *Console {
	c := &Console{
		in:      in,
		out:     out,
		bot:     color.New(color.FgCyan, color.Bold),
		info:    color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		members: map[string]chat.Member{},
		nextID:  4,
	}
	c.members[UserID] = chat.Member{ID: UserID, GuildID: GuildID, Name: user}
	return c
}

func (c *Console) SendMessage(_ context.Context, channelID, text string) error {
	where := "#general"
	if channelID == SystemChannel {
		where = "#system"
	}
	_, err := c.bot.Fprintf(c.out, "%s bot> %s\n", where, text)
	return err
}

func (c *Console) SystemChannel(_ context.Context, guildID string) (string, bool, error) {
	return SystemChannel, guildID == GuildID, nil
}

func (c *Console) Ban(_ context.Context, m chat.Member) error {
	return c.remove(m, "banned")
}

func (c *Console) Kick(_ context.Context, m chat.Member) error {
	return c.remove(m, "kicked")
}

func (c *Console) remove(m chat.Member, verb string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.members[m.ID]; !ok {
		return fmt.Errorf("member %s: %w", m.ID, chat.ErrUnknownMember)
	}
	delete(c.members, m.ID)
	c.warn.Fprintf(c.out, "* %s has been %s\n", m.Name, verb)
	return nil
}

func (c *Console) AddRole(_ context.Context, m chat.Member, role chat.RoleHandle) error {
	return c.updateRoles(m.ID, func(roles []chat.RoleHandle) []chat.RoleHandle {
		if slices.Contains(roles, role) {
			return roles
		}
		return append(roles, role)
	}, "+"+string(role))
}

func (c *Console) RemoveRole(_ context.Context, m chat.Member, role chat.RoleHandle) error {
	return c.updateRoles(m.ID, func(roles []chat.RoleHandle) []chat.RoleHandle {
		return slices.DeleteFunc(roles, func(r chat.RoleHandle) bool { return r == role })
	}, "-"+string(role))
}

func (c *Console) updateRoles(id string, fn func([]chat.RoleHandle) []chat.RoleHandle, change string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.members[id]
	if !ok {
		return fmt.Errorf("member %s: %w", id, chat.ErrUnknownMember)
	}
	m.Roles = fn(slices.Clone(m.Roles))
	c.members[id] = m
	c.info.Fprintf(c.out, "* role %s for %s\n", change, m.Name)
	return nil
}

func (c *Console) Member(_ context.Context, guildID, userID string) (chat.Member, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.members[userID]
	if !ok || guildID != GuildID {
		return chat.Member{}, fmt.Errorf("member %s: %w", userID, chat.ErrUnknownMember)
	}
	return m, nil
}

// Run feeds input lines to h until the input ends or ctx is done.
func (c *Console) Run(ctx context.Context, h chat.EventHandler) error {
	if err := h.OnReady(ctx); err != nil {
		c.warn.Fprintf(c.out, "! ready: %v\n", err)
	}

	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errs:
					return err
				default:
					return nil
				}
			}
			if err := c.handle(ctx, h, line); err != nil {
				c.warn.Fprintf(c.out, "! %v\n", err)
			}
		}
	}
}

func (c *Console) handle(ctx context.Context, h chat.EventHandler, line string) error {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch cmd {
	case "":
		return nil
	case "/roles":
		return c.setRoles(rest)
	case "/join":
		_, err := h.OnMemberJoin(ctx, c.join(rest))
		return err
	case "/react":
		_, err := h.OnReactionAdd(ctx, chat.Reaction{
			MessageID: c.lastMessageID(),
			ChannelID: ChannelID,
			GuildID:   GuildID,
			UserID:    UserID,
			Emoji:     strings.TrimSpace(rest),
		})
		return err
	case "/members":
		c.printMembers()
		return nil
	}

	author, err := c.Member(ctx, GuildID, UserID)
	if err != nil {
		return err
	}
	handled, err := h.OnMessage(ctx, chat.Message{
		ID:        c.newMessageID(),
		Content:   line,
		ChannelID: ChannelID,
		GuildID:   GuildID,
		Author:    author,
	})
	if err == nil && !handled {
		c.info.Fprintln(c.out, "(no module handled this message)")
	}
	return err
}

func (c *Console) setRoles(list string) error {
	var roles []chat.RoleHandle
	for _, r := range strings.Split(list, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, chat.RoleHandle(r))
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.members[UserID]
	if !ok {
		return fmt.Errorf("you are no longer in the guild")
	}
	m.Roles = roles
	c.members[UserID] = m
	c.info.Fprintf(c.out, "* your roles: %v\n", roles)
	return nil
}

func (c *Console) join(name string) chat.Member {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name = strings.TrimSpace(name); name == "" {
		name = "newcomer"
	}
	m := chat.Member{ID: fmt.Sprintf("1%017d", c.nextID), GuildID: GuildID, Name: name}
	c.nextID++
	c.members[m.ID] = m
	c.info.Fprintf(c.out, "* %s joined, mention: %s\n", m.Name, m.Mention())
	return m
}

func (c *Console) printMembers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.members))
	for id := range c.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		m := c.members[id]
		c.info.Fprintf(c.out, "* %s %s %v\n", m.Mention(), m.Name, m.Roles)
	}
}

func (c *Console) newMessageID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastMsg++
	return fmt.Sprintf("msg-%d", c.lastMsg)
}

func (c *Console) lastMessageID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("msg-%d", c.lastMsg)
}

var _ chat.Platform = (*Console)(nil)
