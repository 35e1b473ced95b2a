package module

import (
	"context"
	"fmt"
	"testing"

	"github.com/keshon/suno/internal/chat"
	"github.com/keshon/suno/internal/chat/chattest"
	"github.com/keshon/suno/internal/config"
	"github.com/keshon/suno/internal/logging"
)

const (
	testGuild   = "915547901378322443"
	testChannel = "chan-1"
	mention     = "<@123456789012345678>"
)

type testHost struct {
	cfg      *config.Config
	platform *chattest.Platform
	store    *chattest.Store
	roles    chattest.Roles
	modules  []*Module
	actions  []string
}

func newTestHost() *testHost {
	p := chattest.NewPlatform()
	return &testHost{
		cfg:      &config.Config{LoadCommand: "!load"},
		platform: p,
		store:    &chattest.Store{Log: p.Record},
		roles: chattest.Roles{
			testGuild: {"R": "role-r", "admin": "role-admin"},
		},
	}
}

func (h *testHost) Config() *config.Config           { return h.cfg }
func (h *testHost) Platform() chat.Platform          { return h.platform }
func (h *testHost) Roles() chat.RoleRegistry         { return h.roles }
func (h *testHost) Membership() chat.MembershipStore { return h.store }
func (h *testHost) Modules() []*Module               { return h.modules }

func (h *testHost) ManageRole(_ context.Context, action string, c chat.RoleChange) error {
	if action != RoleAdd && action != RoleRemove {
		return fmt.Errorf("unknown role action %q", action)
	}
	h.actions = append(h.actions, fmt.Sprintf("%s:%s:%s", action, c.Member.ID, c.Role))
	return nil
}

func (h *testHost) NewSink(name string) (*logging.Sink, error) {
	return logging.Discard(name), nil
}

// mustModule builds and registers a module, failing the test on error.
func (h *testHost) mustModule(t *testing.T, def Definition, handlers Handlers) *Module {
	t.Helper()
	m, err := New(h, def, handlers)
	if err != nil {
		t.Fatalf("new module %s: %v", def.Name, err)
	}
	h.modules = append(h.modules, m)
	return m
}

func message(content string, roles ...chat.RoleHandle) chat.Message {
	return chat.Message{
		ID:        "msg-1",
		Content:   content,
		ChannelID: testChannel,
		GuildID:   testGuild,
		Author:    chat.Member{ID: "user-1", GuildID: testGuild, Name: "lain", Roles: roles},
	}
}

// counter is a handler recording how often it ran and with what.
type counter struct {
	calls int
	last  *Invocation
}

func (c *counter) handle(_ context.Context, inv *Invocation) error {
	c.calls++
	c.last = inv
	return nil
}
