package membership

import (
	"context"
	"time"

	"github.com/keshon/suno/internal/chat"
	"github.com/keshon/suno/internal/datastore"
)

// Record is what the JSON backend keeps per guild.
type Record struct {
	Sanctions []chat.Sanction `json:"sanctions"`
}

// JSON stores one Record per guild in the datastore.
type JSON struct {
	ds  *datastore.Store
	now func() time.Time
}

// NewJSON wraps an open datastore. The store owns ds and closes it.
func NewJSON(ds *datastore.Store) *JSON {
	return &JSON{ds: ds, now: time.Now}
}

func guildKey(guildID string) string { return "guild:" + guildID }

func (s *JSON) RecordBan(_ context.Context, m chat.Member) error {
	return s.append(sanctionOf(m, chat.SanctionBan, s.now))
}

func (s *JSON) RecordKick(_ context.Context, m chat.Member) error {
	return s.append(sanctionOf(m, chat.SanctionKick, s.now))
}

func (s *JSON) append(sc chat.Sanction) error {
	var rec Record
	err := s.ds.Update(guildKey(sc.GuildID), &rec, func() error {
		rec.Sanctions = append(rec.Sanctions, sc)
		if len(rec.Sanctions) > historyLimit {
			rec.Sanctions = rec.Sanctions[len(rec.Sanctions)-historyLimit:]
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.ds.Flush()
}

// History returns the guild's sanctions, oldest first.
func (s *JSON) History(_ context.Context, guildID string) ([]chat.Sanction, error) {
	var rec Record
	if _, err := s.ds.Get(guildKey(guildID), &rec); err != nil {
		return nil, err
	}
	return rec.Sanctions, nil
}

func (s *JSON) Close() error {
	return s.ds.Close()
}
