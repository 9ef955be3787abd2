// Package extract wires the storage collaborators to the reconstruction
// pipeline and runs the end-to-end flow: read fragments, normalize,
// assemble under the strategy the inputs allow, then select.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/chatsift/internal/logscan"
	"github.com/nextlevelbuilder/chatsift/internal/pipeline"
	"github.com/nextlevelbuilder/chatsift/internal/store"
)

// Options configures one extraction run.
type Options struct {
	DBPath  string
	LogsDir string

	// Queries caps the number of selected conversations; 0 keeps all.
	Queries  int
	MaxFiles int
	Workers  int

	// ByTimestamp switches kv extraction to the timestamp-pairing
	// strategy instead of the modern/classic formats. Useful when the
	// database is a single structured source with reliable timestamps.
	ByTimestamp bool

	Markers    []pipeline.Marker
	Categories []pipeline.Category
	ForcedIDs  []string
}

// Stats summarizes what a run produced.
type Stats struct {
	Conversations     int `json:"conversations"`
	Messages          int `json:"messages"`
	UserMessages      int `json:"userMessages"`
	AssistantMessages int `json:"assistantMessages"`
	FromStore         int `json:"fromStore"`
	FromLogs          int `json:"fromLogs"`
}

// Result is the output of one extraction run.
type Result struct {
	Conversations []pipeline.Conversation
	Stats         Stats
}

// Run executes the extraction flow. A missing kv table is fatal (the
// database does not match the expected schema); per-fragment noise never
// is. At least one of DBPath and LogsDir must be set.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.DBPath == "" && opts.LogsDir == "" {
		return nil, fmt.Errorf("nothing to extract: no database path and no logs directory")
	}

	var logMsgs []pipeline.CanonicalMessage
	var logFragments int
	if opts.LogsDir != "" {
		frags, err := logscan.Scan(ctx, opts.LogsDir, logscan.Options{
			MaxFiles: opts.MaxFiles,
			Workers:  opts.Workers,
		})
		if err != nil {
			return nil, fmt.Errorf("scan logs: %w", err)
		}
		logFragments = len(frags)
		for _, f := range frags {
			if m, ok := pipeline.NormalizePooled(f); ok {
				logMsgs = append(logMsgs, m)
			}
		}
	}

	var convos []pipeline.Conversation
	var storeCount int
	if opts.DBPath != "" {
		db, err := store.Open(opts.DBPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		fromStore, err := fromDB(db, logMsgs, opts.ByTimestamp)
		if err != nil {
			return nil, err
		}
		storeCount = len(fromStore)
		convos = append(convos, fromStore...)
	} else if len(logMsgs) > 0 {
		convos = append(convos, pipeline.AssembleHeuristic(logMsgs)...)
	}

	ensureIDs(convos)

	selected := pipeline.Select(convos, opts.Queries, opts.Markers, opts.Categories, opts.ForcedIDs)
	res := &Result{Conversations: selected, Stats: tally(selected)}
	res.Stats.FromStore = storeCount
	res.Stats.FromLogs = logFragments
	slog.Info("extraction complete",
		"conversations", res.Stats.Conversations,
		"messages", res.Stats.Messages,
		"selected", len(selected),
		"pooled", len(convos))
	return res, nil
}

// fromDB extracts conversations from the state database, picking the
// assembly strategy the data allows:
//   - timestamp pairing over all kv fragments when requested;
//   - modern messages-array conversations, plus classic prompt/response
//     rows paired positionally when both sides line up and no log pool
//     competes;
//   - otherwise the heuristic pool of everything.
func fromDB(db *store.DB, logMsgs []pipeline.CanonicalMessage, byTimestamp bool) ([]pipeline.Conversation, error) {
	if byTimestamp {
		frags, err := db.Fragments(0)
		if err != nil {
			return nil, err
		}
		var msgs []pipeline.CanonicalMessage
		for _, f := range frags {
			if m, ok := pipeline.Normalize(f); ok {
				msgs = append(msgs, m)
			}
		}
		return pipeline.AssembleByTimestamp(pipeline.Dedupe(msgs)), nil
	}

	convos, err := db.ModernConversations()
	if err != nil {
		return nil, err
	}

	pairs, err := db.ClassicPairs()
	if err != nil {
		return nil, err
	}
	users, assistants := normalizePairs(pairs)

	if len(logMsgs) == 0 && len(users) == len(assistants) {
		convos = append(convos, pipeline.AssembleIndexed(users, assistants)...)
		return convos, nil
	}
	convos = append(convos, pipeline.AssembleHeuristic(users, assistants, logMsgs)...)
	return convos, nil
}

// normalizePairs normalizes both sides of each classic pair, dropping
// pairs where either side fails validation so positional correspondence
// survives into indexed assembly.
func normalizePairs(pairs []store.ClassicPair) (users, assistants []pipeline.CanonicalMessage) {
	for _, p := range pairs {
		u, uok := pipeline.Normalize(p.Prompt)
		a, aok := pipeline.Normalize(p.Response)
		if !uok || !aok {
			continue
		}
		users = append(users, u)
		assistants = append(assistants, a)
	}
	return users, assistants
}

// ensureIDs gives every conversation a stable id so forced-inclusion and
// category overrides can address it. Storage-keyed conversations keep
// their row key; the rest get a generated one.
func ensureIDs(convos []pipeline.Conversation) {
	for i := range convos {
		if convos[i].ID == "" {
			convos[i].ID = "conv:" + uuid.NewString()
		}
	}
}

func tally(convos []pipeline.Conversation) Stats {
	s := Stats{Conversations: len(convos)}
	for _, c := range convos {
		s.Messages += len(c.Messages)
		for _, m := range c.Messages {
			switch m.Role {
			case pipeline.RoleUser:
				s.UserMessages++
			case pipeline.RoleAssistant:
				s.AssistantMessages++
			}
		}
	}
	return s
}
