package module

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestModuleHelpLayout(t *testing.T) {
	h := newTestHost()
	def := Definition{
		Name:        "Moderation",
		Prefix:      "mod",
		Description: "Outils de modération.",
		Commands: []CommandSpec{
			{Name: "ban", Help: "Bannit un membre.", Perms: Perms("R", "admin")},
			{Name: "ping", Help: "Répond pong."},
		},
	}
	m := h.mustModule(t, def, Handlers{"ban": (&counter{}).handle, "ping": (&counter{}).handle})

	want := strings.Join([]string{
		"```markdown",
		"Moderation",
		"===",
		"Outils de modération.",
		"",
		"Préfix de commande: !mod",
		"",
		"Commandes:",
		" * ban - R - admin",
		" * ping - no perm",
		" * help - no perm",
		"",
		"ban",
		"---",
		"Bannit un membre.",
		"",
		"ping",
		"---",
		"Répond pong.",
		"",
		"help",
		"---",
		"Obtenir l'aide de ce module",
		"",
		"```",
	}, "\n")
	if got := m.ModuleHelp(); got != want {
		t.Fatalf("unexpected help:\n%s\nwant:\n%s", got, want)
	}
	if m.ModuleHelp() != m.ModuleHelp() {
		t.Fatal("help must be deterministic")
	}

	if _, err := m.OnMessage(context.Background(), message("!mod help")); err != nil {
		t.Fatal(err)
	}
	if got := h.platform.Texts(); !reflect.DeepEqual(got, []string{want}) {
		t.Fatalf("help command should send the module help, got %q", got)
	}
}

func TestGlobalHelpSkipsExampleModule(t *testing.T) {
	h := newTestHost()
	h.mustModule(t, Definition{Name: ExampleModuleName, Prefix: "example"}, nil)
	first := h.mustModule(t, Definition{Name: "Moderation", Prefix: "mod"}, nil)
	h.mustModule(t, Definition{Name: "Trust", Prefix: "trust"}, nil)

	want := "```markdown\n!load: load the server.\n!mod help\n!trust help\n```"
	if got := first.GlobalHelp(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	// Every module answers "!help" the same way, whatever its prefix.
	handled, err := first.OnMessage(context.Background(), message("  !help "))
	if err != nil || !handled {
		t.Fatalf("expected handled, got %v %v", handled, err)
	}
	if got := h.platform.Texts(); !reflect.DeepEqual(got, []string{want}) {
		t.Fatalf("unexpected replies %q", got)
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":                        "",
		"  a  ":                   "a",
		"!p   cmd \t x":           "!p cmd x",
		"!p cmd\n\nx":             "!p cmd x",
		"a b":                     "a b",
		"\t!p cmd <@!123>   end ": "!p cmd <@!123> end",
		"!p foo\u00a0\u00a0bar":   "!p foo bar",
		"!p foo \u3000bar":        "!p foo bar",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplit(t *testing.T) {
	tok, ok := Split("!mod ban <@123456789012345678> now")
	if !ok {
		t.Fatal("expected tokens")
	}
	if tok.Module != "!mod" || tok.Command != "ban" || !reflect.DeepEqual(tok.Args, []string{mention, "now"}) {
		t.Fatalf("unexpected tokens %+v", tok)
	}
	if _, ok := Split("!mod"); ok {
		t.Fatal("a lone address token has no command")
	}
	tok, _ = Split("!mod ping")
	if len(tok.Args) != 0 {
		t.Fatalf("expected no args, got %q", tok.Args)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		token   string
		mention bool
	}{
		{"<@123456789012345678>", true},
		{"<@!123456789012345678>", true},
		{"<@&123456789012345678>", true},
		{"<@12345678901234567>", false},
		{"<@1234567890123456789>", false},
		{"<@123456789012345678>x", false},
		{"<#123456789012345678>", false},
		{"bar", false},
	}
	for _, c := range cases {
		parsed := Classify([]string{c.token})
		if len(parsed) != 1 || parsed[0].Raw != c.token {
			t.Fatalf("%q: unexpected parse %+v", c.token, parsed)
		}
		if got := parsed[0].Is(KindMention); got != c.mention {
			t.Errorf("%q: mention=%v, want %v", c.token, got, c.mention)
		}
		if !parsed[0].Is(KindString) {
			t.Errorf("%q: every token is a string", c.token)
		}
	}
}

func TestMentionID(t *testing.T) {
	for token, want := range map[string]string{
		"<@123456789012345678>":  "123456789012345678",
		"<@!123456789012345678>": "123456789012345678",
		"<@&123456789012345678>": "123456789012345678",
	} {
		got, ok := MentionID(token)
		if !ok || got != want {
			t.Errorf("MentionID(%q) = %q %v", token, got, ok)
		}
	}
	if _, ok := MentionID("lain"); ok {
		t.Error("plain word is not a mention")
	}
}
