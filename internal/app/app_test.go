package app

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/keshon/suno/internal/chat"
	"github.com/keshon/suno/internal/chat/chattest"
	"github.com/keshon/suno/internal/config"
	"github.com/keshon/suno/internal/module"
)

const guildID = "915547901378322443"

func newApp(t *testing.T) (*App, *chattest.Platform) {
	t.Helper()
	p := chattest.NewPlatform()
	roles := chattest.Roles{guildID: {"role_confiance_haute": "1"}}
	a, err := New(&config.Config{LoadCommand: "!load"}, p, roles, &chattest.Store{Log: p.Record})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, p
}

func echoModule(name, prefix string, seen *[]string) Factory {
	return func(host module.Host) (*module.Module, error) {
		return module.New(host, module.Definition{
			Name:     name,
			Prefix:   prefix,
			Commands: []module.CommandSpec{{Name: "echo"}},
			Events: module.Events{
				MemberJoin: func(context.Context, chat.Member) (bool, error) {
					*seen = append(*seen, name)
					return name == "B", nil
				},
			},
		}, module.Handlers{
			"echo": func(ctx context.Context, inv *module.Invocation) error {
				*seen = append(*seen, name+":"+strings.Join(inv.Args, " "))
				return host.Platform().SendMessage(ctx, inv.Message.ChannelID, name)
			},
		})
	}
}

func msg(content string) chat.Message {
	return chat.Message{ID: "m", Content: content, ChannelID: "c", GuildID: guildID, Author: chat.Member{ID: "u", GuildID: guildID}}
}

func TestRoutingFirstClaimWins(t *testing.T) {
	a, p := newApp(t)
	var seen []string
	if err := a.Load(echoModule("A", "a", &seen), echoModule("B", "b", &seen)); err != nil {
		t.Fatal(err)
	}

	handled, err := a.OnMessage(context.Background(), msg("!b echo hi there"))
	if err != nil || !handled {
		t.Fatalf("handled=%v err=%v", handled, err)
	}
	if !reflect.DeepEqual(seen, []string{"B:hi there"}) {
		t.Fatalf("unexpected calls %v", seen)
	}

	handled, err = a.OnMessage(context.Background(), msg("nobody cares"))
	if err != nil || handled {
		t.Fatalf("plain chat must not be handled: %v %v", handled, err)
	}

	if _, err := a.OnMessage(context.Background(), msg("!help")); err != nil {
		t.Fatal(err)
	}
	texts := p.Texts()
	if len(texts) != 2 || !strings.Contains(texts[1], "!a help\n!b help") {
		t.Fatalf("global help must be sent once, got %q", texts)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	a, _ := newApp(t)
	var seen []string
	if err := a.Load(echoModule("A", "a", &seen)); err != nil {
		t.Fatal(err)
	}
	if err := a.Load(echoModule("A", "other", &seen)); err == nil {
		t.Fatal("duplicate name must be rejected")
	}
	if err := a.Load(echoModule("C", "a", &seen)); err == nil {
		t.Fatal("duplicate prefix must be rejected")
	}
	if got := len(a.Modules()); got != 1 {
		t.Fatalf("expected one module, got %d", got)
	}
}

func TestIntegrityFailureStopsLoading(t *testing.T) {
	a, _ := newApp(t)
	broken := func(host module.Host) (*module.Module, error) {
		return module.New(host, module.Definition{
			Name:     "Broken",
			Commands: []module.CommandSpec{{Name: "nohandler"}},
		}, nil)
	}
	var seen []string
	err := a.Load(broken, echoModule("A", "a", &seen))
	var ierr *module.IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if len(a.Modules()) != 0 {
		t.Fatal("nothing may be registered after a failed module")
	}
}

func TestFrozenAfterDispatch(t *testing.T) {
	a, _ := newApp(t)
	var seen []string
	if err := a.Load(echoModule("A", "a", &seen)); err != nil {
		t.Fatal(err)
	}
	if _, err := a.OnMessage(context.Background(), msg("hello")); err != nil {
		t.Fatal(err)
	}
	if err := a.Load(echoModule("B", "b", &seen)); err == nil {
		t.Fatal("registration after dispatch must fail")
	}
}

func TestManageRoleActions(t *testing.T) {
	a, p := newApp(t)
	change := chat.RoleChange{Member: chat.Member{ID: "7"}, Role: "1"}
	ctx := context.Background()

	if err := a.ManageRole(ctx, module.RoleAdd, change); err != nil {
		t.Fatal(err)
	}
	if err := a.ManageRole(ctx, module.RoleRemove, change); err != nil {
		t.Fatal(err)
	}
	if err := a.ManageRole(ctx, "promote", change); err == nil {
		t.Fatal("unknown action must fail")
	}
	want := []string{"platform.add_role:7:1", "platform.remove_role:7:1"}
	if !reflect.DeepEqual(p.Calls, want) {
		t.Fatalf("got %v want %v", p.Calls, want)
	}

	p.RoleErr = errors.New("missing permissions")
	if err := a.ManageRole(ctx, module.RoleAdd, change); !errors.Is(err, p.RoleErr) {
		t.Fatalf("platform error must be wrapped, got %v", err)
	}
}

func TestMemberJoinFansOut(t *testing.T) {
	a, _ := newApp(t)
	var seen []string
	if err := a.Load(echoModule("A", "a", &seen), echoModule("B", "b", &seen)); err != nil {
		t.Fatal(err)
	}
	handled, err := a.OnMemberJoin(context.Background(), chat.Member{ID: "n"})
	if err != nil || !handled {
		t.Fatalf("handled=%v err=%v", handled, err)
	}
	if !reflect.DeepEqual(seen, []string{"A", "B"}) {
		t.Fatalf("every module must see the event, got %v", seen)
	}
}

func TestLoadCommand(t *testing.T) {
	a, p := newApp(t)
	if _, err := a.OnMessage(context.Background(), msg(" !load ")); err != nil {
		t.Fatal(err)
	}
	other := msg("!load")
	other.GuildID = "elsewhere"
	if _, err := a.OnMessage(context.Background(), other); err != nil {
		t.Fatal(err)
	}
	want := []string{"Serveur chargé. Rôles configurés: role_confiance_haute", "Ce serveur n'est pas configuré."}
	if got := p.Texts(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}
