// Package history is an append-only sqlite ledger of completed analysis
// runs, used for the `angel-lsp check --history`
// report and for crash diagnosis — never consulted by the hoist or
// analyze phases themselves.
package history

import (
	"database/sql"
	"fmt"
	"math/rand"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lucasepe/codename"

	_ "embed"

	"github.com/Paril/angel-lsp/helpers"
	_ "modernc.org/sqlite"
)

//go:embed init.sql
var initScript string

// Store is a handle to the analysis-history database.
type Store struct {
	db *sqlx.DB
	instance string
}

// NewMemoryStore opens an in-memory store, used by tests.
func NewMemoryStore() (*Store, error) {
	return setupStore(":memory:")
}

// Open opens (creating if necessary) the on-disk history database under
// the data directory (ANGEL_LSP_DIR or ~/.angel-lsp).
func Open() (*Store, error) {
	dirPath, err := helpers.GetOrInitializeDataDir()
	if err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(dirPath, "history.db"))
}

// OpenPath opens the history database at an explicit path.
func OpenPath(path string) (*Store, error) {
	if !filepath.IsAbs(path) && path != ":memory:" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		path = abs
	}
	return setupStore(path)
}

func setupStore(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(initScript); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) getSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow("SELECT value FROM settings WHERE name = ?", key).Scan(&val)
	return val, err
}

func (s *Store) setSetting(key, value string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO settings (name, value) VALUES (?, ?)", key, value)
	return err
}

// setup assigns this store a stable human-readable instance identifier
// (codename-generated, seeded once and persisted) so runs recorded across
// daemon restarts on the same machine can be grouped together.
func (s *Store) setup() error {
	if val, err := s.getSetting("instance_id"); err == nil && len(val) > 0 {
		s.instance = val
		return nil
	} else if err != sql.ErrNoRows {
		return err
	}

	seed, err := codename.NewCryptoSeed()
	if err != nil {
		return err
	}
	_ = s.setSetting("_seed", strconv.FormatInt(seed, 10))

	rng := rand.New(rand.NewSource(seed))
	instance := codename.Generate(rng, 4)
	if err := s.setSetting("instance_id", instance); err != nil {
		return err
	}
	s.instance = instance
	return nil
}

// InstanceID is this store's stable codename, used to tag runs.
func (s *Store) InstanceID() string {
	return s.instance
}

// Run is one recorded analysis pass over a single URI.
type Run struct {
	ID int64 `db:"id,omitempty"`
	RunID string `db:"run_id"`
	URI string `db:"uri"`
	StartedAt string `db:"started_at"`
	DurationMs int64 `db:"duration_ms"`
	DiagnosticCount int `db:"diagnostic_count"`
	SymbolCount int `db:"symbol_count"`
	OK bool `db:"ok"`
}

// RecordRun appends one completed analysis run to the ledger.
func (s *Store) RecordRun(r Run) error {
	if r.RunID == "" {
		r.RunID = s.instance + "-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	if r.StartedAt == "" {
		r.StartedAt = time.Now().Format(time.RFC3339Nano)
	}
	_, err := s.db.NamedExec(`INSERT INTO runs (
		run_id, uri, started_at, duration_ms, diagnostic_count, symbol_count, ok
	) VALUES (
		:run_id, :uri, :started_at, :duration_ms, :diagnostic_count, :symbol_count, :ok
	)`, &r)
	return err
}

// RunsForURI returns every recorded run for uri, most recent first.
func (s *Store) RunsForURI(uri string) ([]Run, error) {
	var runs []Run
	err := s.db.Select(&runs, "SELECT * FROM runs WHERE uri = ? ORDER BY id DESC", uri)
	return runs, err
}

// LastSuccessfulRun returns the most recent run recorded for uri with
// OK=true, for crash-diagnosis ("what was the last good analysis of this
// file before the daemon died").
func (s *Store) LastSuccessfulRun(uri string) (Run, error) {
	var r Run
	err := s.db.Get(&r, "SELECT * FROM runs WHERE uri = ? AND ok = 1 ORDER BY id DESC LIMIT 1", uri)
	if err != nil {
		return Run{}, fmt.Errorf("no successful run recorded for %s: %w", uri, err)
	}
	return r, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
