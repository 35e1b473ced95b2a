package trust

import (
	"context"
	"reflect"
	"testing"

	"github.com/keshon/suno/internal/app"
	"github.com/keshon/suno/internal/chat"
	"github.com/keshon/suno/internal/chat/chattest"
	"github.com/keshon/suno/internal/config"
)

const (
	guildID   = "959888328927375430"
	manager   = chat.RoleHandle("3")
	targetID  = "123456789012345678"
	targetTag = "<@" + targetID + ">"
)

var roles = chattest.Roles{guildID: {
	"role_confiance_basse":   "1",
	"role_confiance_haute":   "3",
	"role_confiance_moyenne": "2",
}}

func setup(t *testing.T, overwrite bool, targetRoles ...chat.RoleHandle) (*app.App, *chattest.Platform) {
	t.Helper()
	p := chattest.NewPlatform()
	p.AddMember(chat.Member{ID: targetID, GuildID: guildID, Name: "eve", Roles: targetRoles})
	cfg := &config.Config{LoadCommand: "!load", OverwriteRoles: overwrite}
	a, err := app.New(cfg, p, roles, &chattest.Store{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { a.Close() })
	if err := a.Load(New); err != nil {
		t.Fatalf("load: %v", err)
	}
	return a, p
}

func send(t *testing.T, a *app.App, content string, authorRoles ...chat.RoleHandle) {
	t.Helper()
	_, err := a.OnMessage(context.Background(), chat.Message{
		Content:   content,
		ChannelID: "c",
		GuildID:   guildID,
		Author:    chat.Member{ID: "author", GuildID: guildID, Roles: authorRoles},
	})
	if err != nil {
		t.Fatalf("%q: %v", content, err)
	}
}

func TestGiveOverwritesPreviousLevel(t *testing.T) {
	a, p := setup(t, true, "1")
	send(t, a, "!trust give "+targetTag+" role_confiance_moyenne", manager)

	want := []string{"platform.remove_role:" + targetID + ":1", "platform.add_role:" + targetID + ":2"}
	if !reflect.DeepEqual(p.Calls, want) {
		t.Fatalf("got %v want %v", p.Calls, want)
	}
	if got := p.Texts(); !reflect.DeepEqual(got, []string{targetTag + " a reçu le niveau role_confiance_moyenne."}) {
		t.Fatalf("unexpected replies %q", got)
	}
}

func TestGiveKeepsLevelsWithoutOverwrite(t *testing.T) {
	a, p := setup(t, false, "1")
	send(t, a, "!trust give "+targetTag+" role_confiance_moyenne", manager)
	if want := []string{"platform.add_role:" + targetID + ":2"}; !reflect.DeepEqual(p.Calls, want) {
		t.Fatalf("got %v want %v", p.Calls, want)
	}
}

func TestGiveRejectsUnknownLevel(t *testing.T) {
	a, p := setup(t, true)
	send(t, a, "!trust give "+targetTag+" role_inconnu", manager)
	send(t, a, "!trust give role_confiance_basse "+targetTag, manager)
	want := []string{
		`Mauvaise syntaxe pour trust give. "!trust give help" pour afficher l'aide.`,
		`Mauvaise syntaxe pour trust give. "!trust give help" pour afficher l'aide.`,
	}
	if got := p.Texts(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
	if len(p.Calls) != 0 {
		t.Fatalf("no role change expected, got %v", p.Calls)
	}
}

func TestTake(t *testing.T) {
	a, p := setup(t, true, "1", "2", "unrelated")
	send(t, a, "!trust take "+targetTag, manager)
	want := []string{"platform.remove_role:" + targetID + ":1", "platform.remove_role:" + targetID + ":2"}
	if !reflect.DeepEqual(p.Calls, want) {
		t.Fatalf("got %v want %v", p.Calls, want)
	}
}

func TestLevelsIsOpenToEveryone(t *testing.T) {
	a, p := setup(t, true)
	send(t, a, "!trust levels")
	want := []string{"Niveaux: role_confiance_basse, role_confiance_haute, role_confiance_moyenne"}
	if got := p.Texts(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestWelcome(t *testing.T) {
	a, p := setup(t, true)
	newcomer := chat.Member{ID: "42", GuildID: guildID}

	handled, err := a.OnMemberJoin(context.Background(), newcomer)
	if err != nil || handled {
		t.Fatalf("no system channel: handled=%v err=%v", handled, err)
	}

	p.SystemChannels[guildID] = "sys"
	handled, err = a.OnMemberJoin(context.Background(), newcomer)
	if err != nil || !handled {
		t.Fatalf("handled=%v err=%v", handled, err)
	}
	if p.Sent[0].ChannelID != "sys" {
		t.Fatalf("welcome must go to the system channel, got %+v", p.Sent[0])
	}
}
