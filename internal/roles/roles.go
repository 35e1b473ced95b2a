// Package roles loads the per-guild role tables: which platform role stands
// behind each human label (e.g. "role_confiance_haute") in every served guild.
// The registry is built once at startup and is read-only afterwards.
package roles

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/keshon/suno/internal/chat"
)

// Guild is one served guild in the roles file.
type Guild struct {
	Name  string            `yaml:"name"`
	Roles map[string]string `yaml:"roles"` // label -> role ID
}

// File is the on-disk layout of the roles file.
type File struct {
	Guilds map[string]Guild `yaml:"guilds"` // key = guild ID
}

// Registry resolves labels to role handles per guild.
type Registry struct {
	guilds map[string]Guild
}

// Load reads the roles file at path. A missing file yields an empty registry.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(File{}), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read roles file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML roles file.
func Parse(data []byte) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode roles file: %w", err)
	}
	for id, g := range f.Guilds {
		for label, role := range g.Roles {
			if role == "" {
				return nil, fmt.Errorf("guild %s: role %q has no ID", id, label)
			}
		}
	}
	return New(f), nil
}

// New copies f into a registry so later changes to f are not observed.
func New(f File) *Registry {
	r := &Registry{guilds: make(map[string]Guild, len(f.Guilds))}
	for id, g := range f.Guilds {
		cp := Guild{Name: g.Name, Roles: make(map[string]string, len(g.Roles))}
		for label, role := range g.Roles {
			cp.Roles[label] = role
		}
		r.guilds[id] = cp
	}
	return r
}

// Role returns the handle behind label in guildID.
func (r *Registry) Role(guildID, label string) (chat.RoleHandle, bool) {
	g, ok := r.guilds[guildID]
	if !ok {
		return "", false
	}
	id, ok := g.Roles[label]
	return chat.RoleHandle(id), ok
}

// Labels returns the labels configured for guildID, sorted.
func (r *Registry) Labels(guildID string) []string {
	g := r.guilds[guildID]
	out := make([]string, 0, len(g.Roles))
	for label := range g.Roles {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}
