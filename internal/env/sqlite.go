package env

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/san-kum/livegraph/internal/graph"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS links (
	seq    INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS "groups" (
	id TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS group_members (
	group_id TEXT NOT NULL,
	node_id  TEXT NOT NULL,
	pos      INTEGER NOT NULL,
	PRIMARY KEY (group_id, pos)
);
CREATE TABLE IF NOT EXISTS feed (
	seq     INTEGER PRIMARY KEY,
	kind    TEXT NOT NULL,
	id      TEXT,
	source  TEXT,
	target  TEXT,
	active  INTEGER NOT NULL DEFAULT 0,
	members TEXT
);
`

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("env: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("env: init schema: %w", err)
	}
	return db, nil
}

// LoadSQLite reads a snapshot from a sqlite database. Rows come back in
// insertion order.
func LoadSQLite(ctx context.Context, path string) (graph.Snapshot, error) {
	db, err := openSQLite(ctx, path)
	if err != nil {
		return graph.Snapshot{}, err
	}
	defer db.Close()

	var s graph.Snapshot
	if s.Nodes, err = loadNodes(ctx, db); err != nil {
		return graph.Snapshot{}, err
	}
	if s.Links, err = loadLinks(ctx, db); err != nil {
		return graph.Snapshot{}, err
	}
	if s.Groups, err = loadGroups(ctx, db); err != nil {
		return graph.Snapshot{}, err
	}
	feed, err := loadFeed(ctx, db)
	if err != nil {
		return graph.Snapshot{}, err
	}
	s.Feed = sequence(feed)
	return s, nil
}

func loadNodes(ctx context.Context, db *sql.DB) ([]*graph.Node, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM nodes ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("env: query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*graph.Node
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("env: scan node: %w", err)
		}
		nodes = append(nodes, graph.NewNode(id))
	}
	return nodes, rows.Err()
}

func loadLinks(ctx context.Context, db *sql.DB) ([]*graph.Link, error) {
	rows, err := db.QueryContext(ctx, `SELECT source, target, active FROM links ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("env: query links: %w", err)
	}
	defer rows.Close()

	var links []*graph.Link
	for rows.Next() {
		var source, target string
		var active bool
		if err := rows.Scan(&source, &target, &active); err != nil {
			return nil, fmt.Errorf("env: scan link: %w", err)
		}
		links = append(links, graph.NewLink(source, target, active))
	}
	return links, rows.Err()
}

func loadGroups(ctx context.Context, db *sql.DB) ([]*graph.Group, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT g.id, m.node_id
		FROM "groups" g
		LEFT JOIN group_members m ON m.group_id = g.id
		ORDER BY g.rowid, m.pos`)
	if err != nil {
		return nil, fmt.Errorf("env: query groups: %w", err)
	}
	defer rows.Close()

	var groups []*graph.Group
	byID := make(map[string]*graph.Group)
	for rows.Next() {
		var id string
		var member sql.NullString
		if err := rows.Scan(&id, &member); err != nil {
			return nil, fmt.Errorf("env: scan group: %w", err)
		}
		gr, ok := byID[id]
		if !ok {
			gr = graph.NewGroup(id)
			byID[id] = gr
			groups = append(groups, gr)
		}
		if member.Valid {
			gr.Members = append(gr.Members, member.String)
		}
	}
	return groups, rows.Err()
}

func loadFeed(ctx context.Context, db *sql.DB) ([]graph.Element, error) {
	rows, err := db.QueryContext(ctx, `SELECT seq, kind, id, source, target, active, members FROM feed ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("env: query feed: %w", err)
	}
	defer rows.Close()

	var elems []graph.Element
	for rows.Next() {
		var (
			seq                int64
			w                  element
			id, source, target sql.NullString
			members            sql.NullString
		)
		if err := rows.Scan(&seq, &w.Kind, &id, &source, &target, &w.Active, &members); err != nil {
			return nil, fmt.Errorf("env: scan feed: %w", err)
		}
		w.ID, w.Source, w.Target = id.String, source.String, target.String
		if members.Valid && members.String != "" {
			if err := json.Unmarshal([]byte(members.String), &w.Members); err != nil {
				return nil, fmt.Errorf("env: feed %d members: %w", seq, err)
			}
		}
		e, err := w.decode()
		if err != nil {
			return nil, fmt.Errorf("env: feed %d: %w", seq, err)
		}
		elems = append(elems, e)
	}
	return elems, rows.Err()
}

// SaveSQLite writes s into a sqlite database, replacing any snapshot
// already stored there. The feed is drained.
func SaveSQLite(ctx context.Context, path string, s graph.Snapshot) error {
	db, err := openSQLite(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("env: begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"nodes", "links", `"groups"`, "group_members", "feed"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("env: clear %s: %w", table, err)
		}
	}

	for _, n := range s.Nodes {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO nodes (id) VALUES (?)`, n.ID); err != nil {
			return fmt.Errorf("env: insert node %s: %w", n.ID, err)
		}
	}
	for _, l := range s.Links {
		if _, err := tx.ExecContext(ctx, `INSERT INTO links (source, target, active) VALUES (?, ?, ?)`,
			l.Source, l.Target, l.Active); err != nil {
			return fmt.Errorf("env: insert link %s: %w", l, err)
		}
	}
	for _, gr := range s.Groups {
		if _, err := tx.ExecContext(ctx, `INSERT INTO "groups" (id) VALUES (?)`, gr.ID); err != nil {
			return fmt.Errorf("env: insert group %s: %w", gr.ID, err)
		}
		for i, m := range gr.Members {
			if _, err := tx.ExecContext(ctx, `INSERT INTO group_members (group_id, node_id, pos) VALUES (?, ?, ?)`,
				gr.ID, m, i); err != nil {
				return fmt.Errorf("env: insert member %s of %s: %w", m, gr.ID, err)
			}
		}
	}

	for i, e := range Collect(s) {
		w, err := encodeElement(e)
		if err != nil {
			return err
		}
		var members any
		if len(w.Members) > 0 {
			b, err := json.Marshal(w.Members)
			if err != nil {
				return err
			}
			members = string(b)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO feed (seq, kind, id, source, target, active, members) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i, w.Kind, w.ID, w.Source, w.Target, w.Active, members); err != nil {
			return fmt.Errorf("env: insert feed %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("env: commit: %w", err)
	}
	return nil
}
