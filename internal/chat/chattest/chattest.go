// Package chattest provides in-memory fakes of the chat collaborators for tests.
package chattest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/keshon/suno/internal/chat"
)

// Sent is one message captured by Platform.
type Sent struct {
	ChannelID string
	Text      string
}

// Platform records every call. Set the Err fields to make calls fail.
type Platform struct {
	mu             sync.Mutex
	Sent           []Sent
	Calls          []string
	SystemChannels map[string]string
	Members        map[string]chat.Member // key = guildID/userID

	SendErr error
	BanErr  error
	KickErr error
	RoleErr error
}

// NewPlatform returns an empty fake platform.
func NewPlatform() *Platform {
	return &Platform{SystemChannels: map[string]string{}, Members: map[string]chat.Member{}}
}

// AddMember makes m resolvable through Member.
func (p *Platform) AddMember(m chat.Member) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Members[m.GuildID+"/"+m.ID] = m
}

func (p *Platform) Member(_ context.Context, guildID, userID string) (chat.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.Members[guildID+"/"+userID]
	if !ok {
		return chat.Member{}, fmt.Errorf("member %s: %w", userID, chat.ErrUnknownMember)
	}
	return m, nil
}

func (p *Platform) SendMessage(_ context.Context, channelID, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SendErr != nil {
		return p.SendErr
	}
	p.Sent = append(p.Sent, Sent{ChannelID: channelID, Text: text})
	return nil
}

func (p *Platform) SystemChannel(_ context.Context, guildID string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.SystemChannels[guildID]
	return id, ok, nil
}

func (p *Platform) Ban(_ context.Context, m chat.Member) error {
	p.Record("platform.ban:" + m.ID)
	return p.BanErr
}

func (p *Platform) Kick(_ context.Context, m chat.Member) error {
	p.Record("platform.kick:" + m.ID)
	return p.KickErr
}

func (p *Platform) AddRole(_ context.Context, m chat.Member, role chat.RoleHandle) error {
	p.Record(fmt.Sprintf("platform.add_role:%s:%s", m.ID, role))
	return p.RoleErr
}

func (p *Platform) RemoveRole(_ context.Context, m chat.Member, role chat.RoleHandle) error {
	p.Record(fmt.Sprintf("platform.remove_role:%s:%s", m.ID, role))
	return p.RoleErr
}

// Record appends call to the shared call log.
func (p *Platform) Record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, call)
}

// Texts returns the text of every sent message in order.
func (p *Platform) Texts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Sent))
	for _, s := range p.Sent {
		out = append(out, s.Text)
	}
	return out
}

// Roles is a static role registry: guild -> label -> handle.
type Roles map[string]map[string]chat.RoleHandle

func (r Roles) Role(guildID, label string) (chat.RoleHandle, bool) {
	h, ok := r[guildID][label]
	return h, ok
}

func (r Roles) Labels(guildID string) []string {
	var out []string
	for l := range r[guildID] {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Store is an in-memory membership store sharing a call log with a Platform
// so ordering between the two can be asserted.
type Store struct {
	mu        sync.Mutex
	Sanctions []chat.Sanction
	Log       func(string)
	Err       error
}

func (s *Store) RecordBan(_ context.Context, m chat.Member) error {
	return s.add(m, chat.SanctionBan)
}

func (s *Store) RecordKick(_ context.Context, m chat.Member) error {
	return s.add(m, chat.SanctionKick)
}

func (s *Store) add(m chat.Member, kind string) error {
	if s.Log != nil {
		s.Log("store." + kind + ":" + m.ID)
	}
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sanctions = append(s.Sanctions, chat.Sanction{
		GuildID:  m.GuildID,
		UserID:   m.ID,
		Username: m.Name,
		Kind:     kind,
		Datetime: time.Now(),
	})
	return nil
}

func (s *Store) History(_ context.Context, guildID string) ([]chat.Sanction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []chat.Sanction
	for _, sc := range s.Sanctions {
		if sc.GuildID == guildID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *Store) Close() error { return nil }
