// Package migration imports 1.x MongoDB data into the Postgres schema.
// It runs once, before the bot starts serving, and is idempotent: re-runs
// upsert guilds and members and never duplicate event or reward rows.
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scottbucher/Alpha-sub000/alpha/database/models"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Migrator struct {
	pgDB      *bun.DB
	mongoDB   *mongo.Database
	batchSize int
	stats     MigrationStats
	// Mongo collection names (overrideable)
	collNames map[string]string
	// Optional: use pgx CopyFrom for the members table, the only one
	// large enough to matter
	useCopy bool
	pool    *pgxpool.Pool
}

func NewMigrator(pgDB *bun.DB, client *mongo.Client, dbName string) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		mongoDB:   client.Database(dbName),
		batchSize: 1000,
		stats: MigrationStats{
			Tables:    make(map[string]*TableStats),
			StartTime: time.Now(),
		},
		collNames: map[string]string{
			"guilds":  "guildData",
			"members": "guildUserData",
			"events":  "xpEventData",
		},
	}
}

// SetBatchSize overrides the default batch size for inserts.
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// SetUseCopy enables COPY FROM mode using pgx for member rows.
func (m *Migrator) SetUseCopy(v bool) { m.useCopy = v }

// UsePool sets the pgx pool for COPY operations.
func (m *Migrator) UsePool(pool *pgxpool.Pool) { m.pool = pool }

// SetCollectionName overrides the Mongo collection name for a given kind
// ("guilds", "members", "events").
func (m *Migrator) SetCollectionName(kind, name string) {
	if kind != "" && name != "" {
		m.collNames[kind] = name
	}
}

func (m *Migrator) coll(kind string) *mongo.Collection {
	return m.mongoDB.Collection(m.collNames[kind])
}

func (m *Migrator) tableStats(name string) *TableStats {
	ts, ok := m.stats.Tables[name]
	if !ok {
		ts = &TableStats{}
		m.stats.Tables[name] = ts
	}
	return ts
}

// MigrateAll copies all 1.x collections into Postgres. Order matters:
// guilds first so member and event rows always reference an imported
// guild, then the embedded reward tiers, then the bulk member data.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	slog.Info("Starting legacy Mongo migration",
		slog.String("type", "db"),
		slog.String("database", m.mongoDB.Name()))
	m.stats.StartTime = time.Now()

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"guilds", m.MigrateGuilds},
		{"members", m.MigrateMembers},
		{"xp_events", m.MigrateXpEvents},
	}

	for _, step := range steps {
		slog.Info("Migration step starting", slog.String("type", "db"), slog.String("step", step.name))
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("migration failed at step %s: %w", step.name, err)
		}
		slog.Info("Migration step completed", slog.String("type", "db"), slog.String("step", step.name))
	}

	m.stats.EndTime = time.Now()
	m.logFinalStats()
	return nil
}

// MigrateGuilds imports guild settings and the reward tiers embedded in
// each guild document.
func (m *Migrator) MigrateGuilds(ctx context.Context) error {
	cur, err := m.coll("guilds").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", m.collNames["guilds"], err)
	}
	defer cur.Close(ctx)

	ts := m.tableStats("guilds")
	tierStats := m.tableStats("reward_tiers")

	var guilds []*models.GuildData
	var tiers []*models.RewardTier
	for cur.Next(ctx) {
		var mg MongoGuild
		if err := cur.Decode(&mg); err != nil {
			ts.Skipped++
			continue
		}
		ts.Read++
		if mg.DiscordID == "" {
			ts.Skipped++
			continue
		}
		guilds = append(guilds, m.convertGuild(mg))
		tiers = append(tiers, m.convertRewardTiers(mg)...)

		if len(guilds) >= m.batchSize {
			if err := m.batchInsertGuilds(ctx, guilds); err != nil {
				return err
			}
			ts.Imported += len(guilds)
			guilds = guilds[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(guilds) > 0 {
		if err := m.batchInsertGuilds(ctx, guilds); err != nil {
			return err
		}
		ts.Imported += len(guilds)
	}

	if len(tiers) > 0 {
		if err := m.batchInsertRewardTiers(ctx, tiers); err != nil {
			return err
		}
		tierStats.Read = len(tiers)
		tierStats.Imported = len(tiers)
	}
	return nil
}

// MigrateMembers imports per-guild experience records, the bulk of any
// 1.x dataset. Duplicate (guild, member) pairs keep the highest XP seen.
func (m *Migrator) MigrateMembers(ctx context.Context) error {
	cur, err := m.coll("members").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", m.collNames["members"], err)
	}
	defer cur.Close(ctx)

	ts := m.tableStats("members")

	seen := make(map[string]*models.Progress)
	var batch []*models.Progress
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := m.batchInsertMembers(ctx, batch); err != nil {
			return err
		}
		ts.Imported += len(batch)
		batch = batch[:0]
		return nil
	}

	for cur.Next(ctx) {
		var mm MongoMember
		if err := cur.Decode(&mm); err != nil {
			ts.Skipped++
			continue
		}
		ts.Read++
		if mm.GuildDiscordID == "" || mm.MemberDiscordID == "" {
			ts.Skipped++
			continue
		}

		p := m.convertMember(mm)
		key := p.GuildID + ":" + p.MemberID
		if prev, ok := seen[key]; ok {
			ts.Skipped++
			if p.Experience > prev.Experience {
				prev.Experience = p.Experience
				prev.LastGrantedAt = p.LastGrantedAt
			}
			continue
		}
		seen[key] = p
		batch = append(batch, p)

		if len(batch) >= m.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	return flush()
}

// MigrateXpEvents imports event rows verbatim, window strings included.
// Rows the old bot marked ended import as ended; everything else the
// lifecycle tick re-evaluates on first run.
func (m *Migrator) MigrateXpEvents(ctx context.Context) error {
	cur, err := m.coll("events").Find(ctx, bson.D{})
	if err != nil {
		slog.Warn("XP event collection not found, skipping",
			slog.String("type", "db"),
			slog.String("collection", m.collNames["events"]))
		return nil
	}
	defer cur.Close(ctx)

	ts := m.tableStats("xp_events")

	existing, err := m.existingEventKeys(ctx)
	if err != nil {
		return err
	}

	var batch []*models.XpEvent
	for cur.Next(ctx) {
		var me MongoXpEvent
		if err := cur.Decode(&me); err != nil {
			ts.Skipped++
			continue
		}
		ts.Read++
		if me.GuildDiscordID == "" {
			ts.Skipped++
			continue
		}
		event := m.convertXpEvent(me)
		key := event.GuildID + "|" + event.EventType + "|" + event.TimeStart
		if existing[key] {
			ts.Skipped++
			continue
		}
		existing[key] = true
		batch = append(batch, event)

		if len(batch) >= m.batchSize {
			if err := m.batchInsertXpEvents(ctx, batch); err != nil {
				return err
			}
			ts.Imported += len(batch)
			batch = batch[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := m.batchInsertXpEvents(ctx, batch); err != nil {
			return err
		}
		ts.Imported += len(batch)
	}
	return nil
}

func (m *Migrator) batchInsertGuilds(ctx context.Context, guilds []*models.GuildData) error {
	_, err := m.pgDB.NewInsert().
		Model(&guilds).
		On("CONFLICT (discord_id) DO UPDATE").
		Set("time_zone = EXCLUDED.time_zone").
		Set("level_up_channel_id = EXCLUDED.level_up_channel_id").
		Set("event_channel_id = EXCLUDED.event_channel_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert guild batch: %w", err)
	}
	return nil
}

func (m *Migrator) batchInsertRewardTiers(ctx context.Context, tiers []*models.RewardTier) error {
	_, err := m.pgDB.NewInsert().
		Model(&tiers).
		On("CONFLICT (guild_id, level) DO UPDATE").
		Set("role_ids = EXCLUDED.role_ids").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert reward tier batch: %w", err)
	}
	return nil
}

func (m *Migrator) batchInsertMembers(ctx context.Context, members []*models.Progress) error {
	start := time.Now()
	if m.useCopy && m.pool != nil {
		if err := m.copyInsertMembers(ctx, members); err != nil {
			slog.Warn("COPY path failed, falling back to batch upsert",
				slog.String("type", "db"),
				slog.Any("error", err))
		} else {
			slog.Info("COPY insert of members completed",
				slog.String("type", "db"),
				slog.Int("count", len(members)),
				slog.Duration("took", time.Since(start)))
			return nil
		}
	}

	_, err := m.pgDB.NewInsert().
		Model(&members).
		On("CONFLICT (guild_id, member_id) DO UPDATE").
		Set("experience = GREATEST(gm.experience, EXCLUDED.experience)").
		Set("last_granted_at = EXCLUDED.last_granted_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert member batch: %w", err)
	}
	return nil
}

// copyInsertMembers bulk-loads member rows with COPY. Only safe on an
// empty guild_members table; any conflict fails the COPY and the caller
// falls back to the upsert path.
func (m *Migrator) copyInsertMembers(ctx context.Context, members []*models.Progress) error {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	rows := make([][]any, len(members))
	for i, p := range members {
		rows[i] = []any{p.GuildID, p.MemberID, p.Experience, p.LastGrantedAt, p.CreatedAt, p.UpdatedAt}
	}

	_, err = conn.Conn().CopyFrom(ctx,
		pgx.Identifier{"guild_members"},
		[]string{"guild_id", "member_id", "experience", "last_granted_at", "created_at", "updated_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// existingEventKeys loads the dedupe keys of events already in Postgres
// so re-runs never duplicate rows.
func (m *Migrator) existingEventKeys(ctx context.Context) (map[string]bool, error) {
	var rows []*models.XpEvent
	err := m.pgDB.NewSelect().
		Model(&rows).
		Column("guild_id", "event_type", "time_start").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing events: %w", err)
	}
	keys := make(map[string]bool, len(rows))
	for _, e := range rows {
		keys[e.GuildID+"|"+e.EventType+"|"+e.TimeStart] = true
	}
	return keys, nil
}

func (m *Migrator) batchInsertXpEvents(ctx context.Context, events []*models.XpEvent) error {
	_, err := m.pgDB.NewInsert().Model(&events).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert event batch: %w", err)
	}
	return nil
}

func (m *Migrator) logFinalStats() {
	for name, ts := range m.stats.Tables {
		slog.Info("Migration table summary",
			slog.String("type", "db"),
			slog.String("table", name),
			slog.Int("read", ts.Read),
			slog.Int("imported", ts.Imported),
			slog.Int("skipped", ts.Skipped))
	}
	slog.Info("Legacy migration completed",
		slog.String("type", "db"),
		slog.Duration("took", m.stats.EndTime.Sub(m.stats.StartTime)))
}
