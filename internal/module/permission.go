package module

import (
	"github.com/keshon/suno/internal/chat"
)

// permitted grants when the command has no rule, otherwise when the member
// holds any role the rule's labels resolve to in guildID. Labels
// that do not resolve in that guild are ignored.
func (m *Module) permitted(spec CommandSpec, guildID string, member chat.Member) bool {
	if spec.Perms.empty() {
		return true
	}
	required := make(map[chat.RoleHandle]struct{}, len(spec.Perms.Roles))
	for _, label := range spec.Perms.Roles {
		h, ok := m.GetRole(guildID, label)
		if !ok {
			m.log.Debugf("role %q is not configured for guild %s", label, guildID)
			continue
		}
		required[h] = struct{}{}
	}
	return member.HasAnyRole(required)
}
