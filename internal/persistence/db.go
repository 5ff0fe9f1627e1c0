// Package persistence provides SQLite-based garden state storage.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/greenhaven/internal/engine"
	"github.com/talgya/greenhaven/internal/environment"
	"github.com/talgya/greenhaven/internal/plant"
	"github.com/talgya/greenhaven/internal/species"
)

// DB wraps a SQLite connection for garden state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS plants (
		id TEXT PRIMARY KEY,
		species TEXT NOT NULL,
		location INTEGER NOT NULL,
		planted INTEGER NOT NULL,
		scale REAL NOT NULL,
		reached_max_scale INTEGER NOT NULL,
		moisture REAL NOT NULL,
		nutrient REAL NOT NULL,
		fertilizer_type TEXT NOT NULL,
		fertilizer_remaining_secs REAL NOT NULL,
		disease TEXT NOT NULL,
		disease_progress REAL NOT NULL,
		disease_slow_factor REAL NOT NULL,
		last_disease_check TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS toggles (
		location INTEGER PRIMARY KEY,
		lights INTEGER NOT NULL,
		air_con INTEGER NOT NULL,
		fans INTEGER NOT NULL,
		irrigation INTEGER NOT NULL,
		sprinklers INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sim_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_plants_species ON plants(species);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SavePlants writes plant snapshots to the database (full replace). Views
// only cover planted plants, so the planted column is always set; it stays in
// the schema so older databases keep loading. Timestamps persist as ISO-8601
// text.
func (db *DB) SavePlants(plants []engine.PlantView) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM plants"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO plants
		(id, species, location, planted, scale, reached_max_scale, moisture,
		 nutrient, fertilizer_type, fertilizer_remaining_secs,
		 disease, disease_progress, disease_slow_factor, last_disease_check)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, pv := range plants {
		reachedMax := 0
		if pv.ReachedMaxScale {
			reachedMax = 1
		}

		_, err := stmt.Exec(
			pv.ID.String(), pv.Species, pv.Location, 1,
			pv.Scale, reachedMax, pv.Moisture,
			pv.Nutrient, pv.Fertilizer.String(), pv.FertilizerRemaining.Seconds(),
			pv.Disease, pv.DiseaseProgress, pv.DiseaseSlowFactor,
			pv.LastDiseaseCheck.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert plant %s: %w", pv.ID, err)
		}
	}

	return tx.Commit()
}

type plantRow struct {
	ID                      string  `db:"id"`
	Species                 string  `db:"species"`
	Location                uint8   `db:"location"`
	Planted                 int     `db:"planted"`
	Scale                   float64 `db:"scale"`
	ReachedMaxScale         int     `db:"reached_max_scale"`
	Moisture                float64 `db:"moisture"`
	Nutrient                float64 `db:"nutrient"`
	FertilizerType          string  `db:"fertilizer_type"`
	FertilizerRemainingSecs float64 `db:"fertilizer_remaining_secs"`
	Disease                 string  `db:"disease"`
	DiseaseProgress         float64 `db:"disease_progress"`
	DiseaseSlowFactor       float64 `db:"disease_slow_factor"`
	LastDiseaseCheck        string  `db:"last_disease_check"`
}

// LoadPlants restores plant instances. Rows referencing unknown species are
// skipped with a warning; malformed disease names fail closed to healthy
// inside the disease engine. now is the restored sim-time, used as the
// fallback timestamp for unparseable data.
func (db *DB) LoadPlants(now time.Time) ([]*plant.Instance, error) {
	var rows []plantRow
	if err := db.conn.Select(&rows, "SELECT * FROM plants"); err != nil {
		return nil, fmt.Errorf("select plants: %w", err)
	}

	plants := make([]*plant.Instance, 0, len(rows))
	for _, row := range rows {
		profile, ok := species.Lookup(row.Species)
		if !ok {
			slog.Warn("skipping plant with unknown species", "id", row.ID, "species", row.Species)
			continue
		}

		id, err := uuid.Parse(row.ID)
		if err != nil {
			slog.Warn("skipping plant with malformed id", "id", row.ID, "error", err)
			continue
		}

		loc := environment.Location(row.Location)
		pl := plant.New(profile, loc, now)
		pl.ID = id
		pl.Planted = row.Planted != 0
		pl.Scale = row.Scale
		pl.ReachedMaxScale = row.ReachedMaxScale != 0
		pl.Moisture = environment.Clamp(row.Moisture, 0, 100)
		pl.Nutrient = row.Nutrient
		if ft, ok := species.FertilizerFromString(row.FertilizerType); ok {
			pl.Fertilizer = ft
		}
		pl.FertilizerRemaining = time.Duration(row.FertilizerRemainingSecs * float64(time.Second))

		lastCheck, err := time.Parse(time.RFC3339, row.LastDiseaseCheck)
		if err != nil {
			slog.Warn("malformed disease timestamp, using current sim-time",
				"id", row.ID, "value", row.LastDiseaseCheck)
			lastCheck = now
		}
		pl.Disease.Restore(row.Disease, row.DiseaseProgress, row.DiseaseSlowFactor, lastCheck, now)

		plants = append(plants, pl)
	}

	return plants, nil
}

// SaveToggles writes the fixture state for all locations.
func (db *DB) SaveToggles(toggles map[environment.Location]environment.Toggles) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for loc, t := range toggles {
		_, err := tx.Exec(`INSERT OR REPLACE INTO toggles
			(location, lights, air_con, fans, irrigation, sprinklers)
			VALUES (?, ?, ?, ?, ?, ?)`,
			loc, boolInt(t.Lights), boolInt(t.AirCon), boolInt(t.Fans),
			boolInt(t.Irrigation), boolInt(t.Sprinklers),
		)
		if err != nil {
			return fmt.Errorf("insert toggles for %s: %w", loc, err)
		}
	}

	return tx.Commit()
}

// LoadToggles restores fixture state for all locations.
func (db *DB) LoadToggles() (map[environment.Location]environment.Toggles, error) {
	var rows []struct {
		Location   uint8 `db:"location"`
		Lights     int   `db:"lights"`
		AirCon     int   `db:"air_con"`
		Fans       int   `db:"fans"`
		Irrigation int   `db:"irrigation"`
		Sprinklers int   `db:"sprinklers"`
	}
	if err := db.conn.Select(&rows, "SELECT * FROM toggles"); err != nil {
		return nil, fmt.Errorf("select toggles: %w", err)
	}

	out := make(map[environment.Location]environment.Toggles, len(rows))
	for _, row := range rows {
		out[environment.Location(row.Location)] = environment.Toggles{
			Lights:     row.Lights != 0,
			AirCon:     row.AirCon != 0,
			Fans:       row.Fans != 0,
			Irrigation: row.Irrigation != 0,
			Sprinklers: row.Sprinklers != 0,
		}
	}
	return out, nil
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (tick, description, category) VALUES (?, ?, ?)",
			e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N persisted events.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in simulation metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO sim_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM sim_meta WHERE key = ?", key)
	return value, err
}

// HasGardenState reports whether a previous run saved any state.
func (db *DB) HasGardenState() bool {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM sim_meta"); err != nil {
		return false
	}
	return count > 0
}

// SaveGarden performs a full save of the simulation state. Everything it
// writes comes from lock-consistent snapshots, so it is safe to call while
// the engine keeps ticking.
func (db *DB) SaveGarden(sim *engine.Simulation) error {
	views := sim.Views()
	slog.Info("saving garden state", "plants", len(views))

	if err := db.SavePlants(views); err != nil {
		return fmt.Errorf("save plants: %w", err)
	}
	if err := db.SaveToggles(sim.TogglesSnapshot()); err != nil {
		return fmt.Errorf("save toggles: %w", err)
	}
	if err := db.SaveEvents(sim.RecentEvents(0)); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("last_tick", fmt.Sprintf("%d", sim.CurrentTick())); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("garden state saved")
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
