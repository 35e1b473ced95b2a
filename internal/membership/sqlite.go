package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/keshon/suno/internal/chat"
)

// SanctionRow is the table layout of the SQLite backend.
type SanctionRow struct {
	gorm.Model
	GuildID  string `gorm:"index;not null"`
	UserID   string `gorm:"not null"`
	Username string
	Kind     string `gorm:"not null"`
	Datetime time.Time
}

func (SanctionRow) TableName() string { return "sanctions" }

// SQLite stores sanctions in a gorm-managed SQLite database.
type SQLite struct {
	db  *gorm.DB
	now func() time.Time
}

// OpenSQLite opens (creating when needed) the database at path and migrates
// the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&SanctionRow{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) RecordBan(ctx context.Context, m chat.Member) error {
	return s.insert(ctx, sanctionOf(m, chat.SanctionBan, s.now))
}

func (s *SQLite) RecordKick(ctx context.Context, m chat.Member) error {
	return s.insert(ctx, sanctionOf(m, chat.SanctionKick, s.now))
}

func (s *SQLite) insert(ctx context.Context, sc chat.Sanction) error {
	row := SanctionRow{
		GuildID:  sc.GuildID,
		UserID:   sc.UserID,
		Username: sc.Username,
		Kind:     sc.Kind,
		Datetime: sc.Datetime,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert sanction: %w", err)
	}
	return nil
}

// History returns the guild's latest sanctions, oldest first.
func (s *SQLite) History(ctx context.Context, guildID string) ([]chat.Sanction, error) {
	var rows []SanctionRow
	err := s.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Order("id DESC").
		Limit(historyLimit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query sanctions: %w", err)
	}

	out := make([]chat.Sanction, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = chat.Sanction{
			GuildID:  r.GuildID,
			UserID:   r.UserID,
			Username: r.Username,
			Kind:     r.Kind,
			Datetime: r.Datetime,
		}
	}
	return out, nil
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
