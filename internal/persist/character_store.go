package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// CharacterRecord is the persisted snapshot of a character. The world layer
// maps its in-memory state to and from this struct; persist stays free of
// world types.
type CharacterRecord struct {
	CharID  int32
	Name    string
	Level   int16
	Exp     int64
	MapID   int16
	X, Y    int32
	Heading int16
	HP      int16
	MaxHP   int16
	MP      int16
	MaxMP   int16
	Str     int16
	Dex     int16
	Con     int16
	Gold    int64
	Food    int16
	Items   []ItemRecord
}

// ItemRecord is one persisted inventory slot.
type ItemRecord struct {
	Slot   int32
	ItemID int32
	Count  int32
}

// ErrCharacterNotFound is returned by Load for an unknown name.
var ErrCharacterNotFound = errors.New("character not found")

// CharacterStore reads and writes character snapshots.
type CharacterStore struct {
	db  *DB
	log *zap.Logger
}

func NewCharacterStore(db *DB, log *zap.Logger) *CharacterStore {
	return &CharacterStore{db: db, log: log}
}

// MaxCharID returns the highest character ID on record, 0 when the table is
// empty. Used to seed the in-memory ID allocator at boot.
func (s *CharacterStore) MaxCharID(ctx context.Context) (int32, error) {
	var max int32
	err := s.db.Pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(char_id), 0) FROM characters`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("query max char id: %w", err)
	}
	return max, nil
}

// Load fetches a character and its inventory by name.
func (s *CharacterStore) Load(ctx context.Context, name string) (*CharacterRecord, error) {
	rec := &CharacterRecord{}
	err := s.db.Pool.QueryRow(ctx, `
		SELECT char_id, name, level, exp, map_id, x, y, heading,
		       hp, max_hp, mp, max_mp, str, dex, con, gold, food
		FROM characters WHERE name = $1`, name).
		Scan(&rec.CharID, &rec.Name, &rec.Level, &rec.Exp, &rec.MapID,
			&rec.X, &rec.Y, &rec.Heading, &rec.HP, &rec.MaxHP,
			&rec.MP, &rec.MaxMP, &rec.Str, &rec.Dex, &rec.Con,
			&rec.Gold, &rec.Food)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("load character %s: %w", name, err)
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT slot, item_id, count FROM character_items
		WHERE char_id = $1 ORDER BY slot`, rec.CharID)
	if err != nil {
		return nil, fmt.Errorf("load items for %s: %w", name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var it ItemRecord
		if err := rows.Scan(&it.Slot, &it.ItemID, &it.Count); err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		rec.Items = append(rec.Items, it)
	}
	return rec, rows.Err()
}

// Save upserts one character and replaces its inventory in a single
// transaction.
func (s *CharacterStore) Save(ctx context.Context, rec *CharacterRecord) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO characters
			(char_id, name, level, exp, map_id, x, y, heading,
			 hp, max_hp, mp, max_mp, str, dex, con, gold, food, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,now())
		ON CONFLICT (char_id) DO UPDATE SET
			level = EXCLUDED.level, exp = EXCLUDED.exp,
			map_id = EXCLUDED.map_id, x = EXCLUDED.x, y = EXCLUDED.y,
			heading = EXCLUDED.heading,
			hp = EXCLUDED.hp, max_hp = EXCLUDED.max_hp,
			mp = EXCLUDED.mp, max_mp = EXCLUDED.max_mp,
			str = EXCLUDED.str, dex = EXCLUDED.dex, con = EXCLUDED.con,
			gold = EXCLUDED.gold, food = EXCLUDED.food,
			updated_at = now()`,
		rec.CharID, rec.Name, rec.Level, rec.Exp, rec.MapID, rec.X, rec.Y,
		rec.Heading, rec.HP, rec.MaxHP, rec.MP, rec.MaxMP,
		rec.Str, rec.Dex, rec.Con, rec.Gold, rec.Food)
	if err != nil {
		return fmt.Errorf("upsert character %d: %w", rec.CharID, err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM character_items WHERE char_id = $1`, rec.CharID); err != nil {
		return fmt.Errorf("clear items for %d: %w", rec.CharID, err)
	}
	for _, it := range rec.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO character_items (char_id, slot, item_id, count)
			VALUES ($1,$2,$3,$4)`,
			rec.CharID, it.Slot, it.ItemID, it.Count); err != nil {
			return fmt.Errorf("insert item for %d: %w", rec.CharID, err)
		}
	}
	return tx.Commit(ctx)
}

// SaveBatch saves a set of snapshots, logging failures per character rather
// than aborting the batch. Returns the IDs that failed so the caller can
// re-queue them.
func (s *CharacterStore) SaveBatch(ctx context.Context, recs []*CharacterRecord) []int32 {
	var failed []int32
	for _, rec := range recs {
		if err := s.Save(ctx, rec); err != nil {
			s.log.Error("batch save failed",
				zap.Int32("char_id", rec.CharID), zap.Error(err))
			failed = append(failed, rec.CharID)
		}
	}
	return failed
}
