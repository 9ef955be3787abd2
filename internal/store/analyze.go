package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// chatKeys are the field names whose presence in a JSON column suggests
// the column holds chat data.
var chatKeys = []string{"prompt", "response", "message", "chat", "query", "answer"}

// TableInfo is the structure report for one table.
type TableInfo struct {
	Name        string   `json:"name"`
	Columns     []string `json:"columns"`
	RowCount    int      `json:"rowCount"`
	JSONColumns []string `json:"jsonColumns,omitempty"`
	ChatKeys    []string `json:"chatKeys,omitempty"`
}

// Analyze inspects every table: columns, row counts, which text columns
// hold JSON, and whether that JSON carries chat-related keys. Used by the
// analyze command to size up an unfamiliar database before extraction.
func (d *DB) Analyze() ([]TableInfo, error) {
	names, err := d.Tables()
	if err != nil {
		return nil, err
	}

	infos := make([]TableInfo, 0, len(names))
	for _, name := range names {
		info := TableInfo{Name: name}

		cols, err := d.columns(name)
		if err != nil {
			return nil, err
		}
		info.Columns = cols

		if err := d.db.Get(&info.RowCount, fmt.Sprintf("SELECT COUNT(*) FROM %q", name)); err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}

		for _, col := range cols {
			keys, isJSON := d.probeJSONColumn(name, col)
			if !isJSON {
				continue
			}
			info.JSONColumns = append(info.JSONColumns, col)
			info.ChatKeys = append(info.ChatKeys, keys...)
		}
		info.ChatKeys = dedupeStrings(info.ChatKeys)

		infos = append(infos, info)
	}
	return infos, nil
}

func (d *DB) columns(table string) ([]string, error) {
	rows, err := d.db.Queryx(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var cid, notnull, pk int
		var name, ctype string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// probeJSONColumn samples a handful of rows from one column and reports
// whether they decode as JSON objects, and which chat keys they carry.
func (d *DB) probeJSONColumn(table, col string) (keys []string, isJSON bool) {
	var samples []sql.NullString
	query := fmt.Sprintf("SELECT %q FROM %q LIMIT 10", col, table)
	if err := d.db.Select(&samples, query); err != nil {
		return nil, false
	}

	for _, s := range samples {
		if !s.Valid || s.String == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(s.String), &obj); err != nil {
			continue
		}
		isJSON = true
		for _, k := range chatKeys {
			if _, ok := obj[k]; ok {
				keys = append(keys, k)
			}
		}
	}
	return dedupeStrings(keys), isJSON
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
