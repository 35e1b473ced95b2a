package roles

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sample = `
guilds:
  "915547901378322443":
    name: main
    roles:
      role_confiance_haute: "101"
      role_confiance_moyenne: "102"
      role_confiance_basse: "103"
  "959888328927375430":
    name: platipus
    roles:
      platipus euphorique: "201"
`

func TestParseResolvesPerGuild(t *testing.T) {
	r, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	h, ok := r.Role("915547901378322443", "role_confiance_haute")
	if !ok || h != "101" {
		t.Fatalf("expected 101, got %q (%v)", h, ok)
	}
	if _, ok := r.Role("959888328927375430", "role_confiance_haute"); ok {
		t.Fatal("label must not leak across guilds")
	}
	if _, ok := r.Role("unknown", "role_confiance_haute"); ok {
		t.Fatal("unknown guild must not resolve")
	}

	want := []string{"role_confiance_basse", "role_confiance_haute", "role_confiance_moyenne"}
	if got := r.Labels("915547901378322443"); !reflect.DeepEqual(got, want) {
		t.Fatalf("labels: got %v want %v", got, want)
	}
	if got := r.Labels("959888328927375430"); !reflect.DeepEqual(got, []string{"platipus euphorique"}) {
		t.Fatalf("unexpected labels %v", got)
	}
}

func TestParseRejectsEmptyRoleID(t *testing.T) {
	_, err := Parse([]byte("guilds:\n  \"1\":\n    roles:\n      a: \"\"\n"))
	if err == nil {
		t.Fatal("expected error for empty role id")
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := r.Labels("915547901378322443"); len(got) != 0 {
		t.Fatalf("expected empty registry, got %v", got)
	}
}

func TestNewCopiesInput(t *testing.T) {
	f := File{Guilds: map[string]Guild{"1": {Roles: map[string]string{"a": "x"}}}}
	r := New(f)
	f.Guilds["1"].Roles["a"] = "changed"

	if h, _ := r.Role("1", "a"); h != "x" {
		t.Fatalf("registry observed external mutation: %q", h)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guilds.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := r.Role("959888328927375430", "platipus euphorique"); !ok {
		t.Fatal("expected label with spaces to resolve")
	}
}
