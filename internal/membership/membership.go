// Package membership records moderation sanctions (bans and kicks) per guild.
// Two backends exist: the JSON datastore used by default and a SQLite
// database for larger deployments.
package membership

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/keshon/suno/internal/chat"
	"github.com/keshon/suno/internal/config"
	"github.com/keshon/suno/internal/datastore"
)

// historyLimit bounds the sanctions kept per guild.
const historyLimit = 200

// Open returns the store selected by cfg.StoreDriver.
func Open(cfg *config.Config, log logrus.FieldLogger) (chat.MembershipStore, error) {
	switch cfg.StoreDriver {
	case config.StoreJSON:
		opts := datastore.DefaultOptions(cfg.StorePath)
		opts.Log = log.WithField("component", "datastore")
		ds, err := datastore.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open json membership store: %w", err)
		}
		return NewJSON(ds), nil
	case config.StoreSQLite:
		s, err := OpenSQLite(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite membership store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func sanctionOf(m chat.Member, kind string, now func() time.Time) chat.Sanction {
	return chat.Sanction{
		GuildID:  m.GuildID,
		UserID:   m.ID,
		Username: m.Name,
		Kind:     kind,
		Datetime: now().UTC(),
	}
}

var (
	_ chat.MembershipStore = (*JSON)(nil)
	_ chat.MembershipStore = (*SQLite)(nil)
)
