// Package storage persists ban records and actor identities in SQLite.
package storage

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/shse/warden/actor"
	"github.com/shse/warden/bans"
	"github.com/shse/warden/storage/migrations"
)

type Store struct {
	db *sql.DB
}

var (
	_ bans.Store  = (*Store)(nil)
	_ actor.Store = (*Store)(nil)
)

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)

	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping sqlite db")
	}

	if err = migrate(db, migrations.FS); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "run migrations")
	}

	return &Store{db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) LoadBans(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM bans ORDER BY name_key`)

	if err != nil {
		return nil, errors.Wrap(err, "query bans")
	}

	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string

		if err = rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan ban")
		}

		names = append(names, name)
	}

	return names, errors.Wrap(rows.Err(), "iterate bans")
}

func (s *Store) SaveBan(ctx context.Context, name string, banned bool) error {
	var err error

	if banned {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO bans (name_key, name, created_at) VALUES (?, ?, ?)
			 ON CONFLICT(name_key) DO NOTHING`,
			actor.Key(name), name, time.Now().UTC().UnixMilli())
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM bans WHERE name_key = ?`, actor.Key(name))
	}

	return errors.Wrapf(err, "save ban %s", name)
}

func (s *Store) LoadIdentities(ctx context.Context) ([]actor.Identity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, id FROM actors ORDER BY name_key`)

	if err != nil {
		return nil, errors.Wrap(err, "query actors")
	}

	defer rows.Close()

	var identities []actor.Identity

	for rows.Next() {
		var name, id string

		if err = rows.Scan(&name, &id); err != nil {
			return nil, errors.Wrap(err, "scan actor")
		}

		parsed, err := uuid.Parse(id)

		if err != nil {
			return nil, errors.Wrapf(err, "parse id of %s", name)
		}

		identities = append(identities, actor.Identity{ID: parsed, Name: name})
	}

	return identities, errors.Wrap(rows.Err(), "iterate actors")
}

func (s *Store) SaveIdentity(ctx context.Context, identity actor.Identity) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO actors (name_key, name, id, first_seen) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name_key) DO NOTHING`,
		actor.Key(identity.Name), identity.Name, identity.ID.String(), time.Now().UTC().UnixMilli())

	return errors.Wrapf(err, "save actor %s", identity.Name)
}

func migrate(db *sql.DB, migrationFS fs.FS) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return errors.Wrap(err, "ensure migration table")
	}

	files, err := fs.Glob(migrationFS, "*.sql")

	if err != nil {
		return err
	}

	sort.Strings(files)

	for _, file := range files {
		var applied int

		if err = db.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, file).Scan(&applied); err != nil {
			return errors.Wrapf(err, "check migration %s", file)
		}

		if applied > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationFS, file)

		if err != nil {
			return errors.Wrapf(err, "read migration %s", file)
		}

		if _, err = db.Exec(string(content)); err != nil {
			return errors.Wrapf(err, "apply migration %s", file)
		}

		if _, err = db.Exec(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`, file, time.Now().UTC().UnixMilli()); err != nil {
			return errors.Wrapf(err, "record migration %s", file)
		}
	}

	return nil
}
