// Package store reads chat fragments out of an IDE state database. The
// database is foreign data recovered from disk: access is read-only and
// every row is treated as potentially malformed.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/chatsift/internal/pipeline"
)

// KVTable is the key-value table chat data lives in.
const KVTable = "cursorDiskKV"

// ErrTableMissing is returned when a required table is absent. This is a
// schema-level failure: the database does not match the expected layout at
// all, and the extraction run must not silently continue with zero data.
var ErrTableMissing = errors.New("required table is missing")

// KVRow is one key/value record from the state database.
type KVRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// DB wraps read access to a state database file.
type DB struct {
	db   *sqlx.DB
	path string
}

// Open opens the state database at path. The file must already exist;
// this tool never creates or migrates storage it is inspecting.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("state db: %w", err)
	}
	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	slog.Info("state db opened", "path", path)
	return &DB{db: db, path: path}, nil
}

// Path returns the database file path.
func (d *DB) Path() string { return d.path }

// Close closes the database.
func (d *DB) Close() error { return d.db.Close() }

// Tables returns the names of all tables, sorted.
func (d *DB) Tables() ([]string, error) {
	var names []string
	err := d.db.Select(&names, "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// HasTable reports whether a table exists.
func (d *DB) HasTable(name string) (bool, error) {
	var found string
	err := d.db.Get(&found, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probe table %s: %w", name, err)
	}
	return true, nil
}

func (d *DB) requireKV() error {
	ok, err := d.HasTable(KVTable)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableMissing, KVTable)
	}
	return nil
}

// KVRows returns up to limit rows from the key-value table, in storage
// order. limit <= 0 means no limit.
func (d *DB) KVRows(limit int) ([]KVRow, error) {
	if err := d.requireKV(); err != nil {
		return nil, err
	}
	query := "SELECT key, value FROM " + KVTable
	var rows []KVRow
	var err error
	if limit > 0 {
		err = d.db.Select(&rows, query+" LIMIT ?", limit)
	} else {
		err = d.db.Select(&rows, query)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", KVTable, err)
	}
	return rows, nil
}

// Fragments converts key-value rows into raw fragments for the pipeline.
// Values stay unparsed strings; the normalizer owns payload decoding.
func (d *DB) Fragments(limit int) ([]pipeline.RawFragment, error) {
	rows, err := d.KVRows(limit)
	if err != nil {
		return nil, err
	}
	frags := make([]pipeline.RawFragment, 0, len(rows))
	for _, r := range rows {
		if r.Value == "" {
			continue
		}
		frags = append(frags, pipeline.RawFragment{
			Origin:  pipeline.OriginKVRow,
			Key:     r.Key,
			Payload: r.Value,
			Source:  KVTable,
		})
	}
	return frags, nil
}

// modernValue is the messages-array value shape written by newer versions
// of the IDE.
type modernValue struct {
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Model     string `json:"model"`
	Timestamp any    `json:"timestamp"`
}

// ModernConversations extracts conversations stored in the modern
// messages-array format. A row qualifies only when it decodes cleanly and
// contains at least one user and one assistant message; everything else
// is fragment noise and is skipped silently.
func (d *DB) ModernConversations() ([]pipeline.Conversation, error) {
	rows, err := d.KVRows(0)
	if err != nil {
		return nil, err
	}

	var convos []pipeline.Conversation
	for _, r := range rows {
		var v modernValue
		if err := json.Unmarshal([]byte(r.Value), &v); err != nil || len(v.Messages) == 0 {
			continue
		}
		conv := pipeline.Conversation{ID: r.Key, Model: v.Model}
		for _, m := range v.Messages {
			role := pipeline.Role(m.Role)
			if role != pipeline.RoleUser && role != pipeline.RoleAssistant {
				role = pipeline.RoleUnknown
			}
			conv.Messages = append(conv.Messages, pipeline.CanonicalMessage{
				Role:    role,
				Content: m.Content,
				Source:  KVTable,
				ID:      r.Key,
			})
		}
		if !conv.Complete() {
			continue
		}
		convos = append(convos, conv)
	}
	slog.Debug("modern conversations extracted", "count", len(convos))
	return convos, nil
}

// ClassicPair is one prompt_N / response_N row pair sharing an id suffix.
type ClassicPair struct {
	ID       string
	Prompt   pipeline.RawFragment
	Response pipeline.RawFragment
}

// ClassicPairs matches prompt_<id> rows with response_<id> rows. Pairs are
// returned sorted by id so the correspondence order is deterministic; the
// caller normalizes both sides and pairs them positionally.
func (d *DB) ClassicPairs() ([]ClassicPair, error) {
	rows, err := d.KVRows(0)
	if err != nil {
		return nil, err
	}

	prompts := map[string]KVRow{}
	responses := map[string]KVRow{}
	for _, r := range rows {
		switch {
		case strings.HasPrefix(r.Key, "prompt_"):
			prompts[strings.TrimPrefix(r.Key, "prompt_")] = r
		case strings.HasPrefix(r.Key, "response_"):
			responses[strings.TrimPrefix(r.Key, "response_")] = r
		}
	}

	ids := make([]string, 0, len(prompts))
	for id := range prompts {
		if _, ok := responses[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	pairs := make([]ClassicPair, 0, len(ids))
	for _, id := range ids {
		p, r := prompts[id], responses[id]
		pairs = append(pairs, ClassicPair{
			ID: id,
			Prompt: pipeline.RawFragment{
				Origin: pipeline.OriginKVRow, Key: p.Key, Payload: p.Value, Source: KVTable,
			},
			Response: pipeline.RawFragment{
				Origin: pipeline.OriginKVRow, Key: r.Key, Payload: r.Value, Source: KVTable,
			},
		})
	}
	return pairs, nil
}
