package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/FocuswithJustin/ScripturesMapped/core/errors"
	"github.com/FocuswithJustin/ScripturesMapped/core/sqlite"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS books (
	id             INTEGER PRIMARY KEY,
	toc_name       TEXT NOT NULL,
	full_name      TEXT NOT NULL,
	grid_name      TEXT NOT NULL,
	num_chapters   INTEGER NOT NULL,
	parent_book_id INTEGER,
	subdiv         TEXT NOT NULL DEFAULT '',
	back_name      TEXT NOT NULL DEFAULT '',
	cite_abbr      TEXT NOT NULL DEFAULT '',
	cite_full      TEXT NOT NULL DEFAULT '',
	jst_title      TEXT NOT NULL DEFAULT '',
	web_title      TEXT NOT NULL DEFAULT '',
	url_path       TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS volumes (
	position    INTEGER PRIMARY KEY,
	id          INTEGER NOT NULL UNIQUE,
	full_name   TEXT NOT NULL,
	min_book_id INTEGER NOT NULL,
	max_book_id INTEGER NOT NULL,
	abbr        TEXT NOT NULL DEFAULT '',
	cite_abbr   TEXT NOT NULL DEFAULT '',
	cite_full   TEXT NOT NULL DEFAULT '',
	url_path    TEXT NOT NULL DEFAULT '',
	lds_org     TEXT NOT NULL DEFAULT '',
	subdiv      TEXT NOT NULL DEFAULT ''
);
`

// SQLiteSource reads both feeds from a snapshot database written by
// WriteSnapshot.
type SQLiteSource struct {
	Path string
}

func (s *SQLiteSource) Name() string { return "sqlite" }

func (s *SQLiteSource) Books(ctx context.Context) ([]Book, error) {
	db, err := sqlite.OpenReadOnly(s.Path)
	if err != nil {
		return nil, errors.NewIO("open", s.Path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT id, toc_name, full_name, grid_name, num_chapters, parent_book_id,
		       subdiv, back_name, cite_abbr, cite_full, jst_title, web_title, url_path
		FROM books ORDER BY id`)
	if err != nil {
		return nil, errors.NewIO("query books", s.Path, err)
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		var (
			b      Book
			parent sql.NullInt64
		)
		if err := rows.Scan(&b.ID, &b.TOCName, &b.FullName, &b.GridName, &b.NumChapters, &parent,
			&b.Subdiv, &b.BackName, &b.CiteAbbr, &b.CiteFull, &b.JSTTitle, &b.WebTitle, &b.URLPath); err != nil {
			return nil, errors.NewIO("scan book", s.Path, err)
		}
		if parent.Valid {
			p := int(parent.Int64)
			b.ParentBookID = &p
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("read books", s.Path, err)
	}
	return books, nil
}

func (s *SQLiteSource) Volumes(ctx context.Context) ([]Volume, error) {
	db, err := sqlite.OpenReadOnly(s.Path)
	if err != nil {
		return nil, errors.NewIO("open", s.Path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT id, full_name, min_book_id, max_book_id, abbr, cite_abbr, cite_full,
		       url_path, lds_org, subdiv
		FROM volumes ORDER BY position`)
	if err != nil {
		return nil, errors.NewIO("query volumes", s.Path, err)
	}
	defer rows.Close()

	var volumes []Volume
	for rows.Next() {
		var v Volume
		if err := rows.Scan(&v.ID, &v.FullName, &v.MinBookID, &v.MaxBookID, &v.Abbr, &v.CiteAbbr,
			&v.CiteFull, &v.URLPath, &v.LDSOrg, &v.Subdiv); err != nil {
			return nil, errors.NewIO("scan volume", s.Path, err)
		}
		volumes = append(volumes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("read volumes", s.Path, err)
	}
	return volumes, nil
}

// WriteSnapshot stores the catalog in a SQLite database at path, replacing
// any previous snapshot in it.
func WriteSnapshot(ctx context.Context, path string, store *Store) (err error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return errors.NewIO("open", path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, snapshotSchema); err != nil {
		return errors.NewIO("create schema", path, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewIO("begin", path, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return errors.NewIO("clear books", path, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM volumes`); err != nil {
		return errors.NewIO("clear volumes", path, err)
	}

	for _, b := range store.Books() {
		var parent any
		if b.ParentBookID != nil {
			parent = *b.ParentBookID
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO books (id, toc_name, full_name, grid_name, num_chapters, parent_book_id,
			                   subdiv, back_name, cite_abbr, cite_full, jst_title, web_title, url_path)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.TOCName, b.FullName, b.GridName, b.NumChapters, parent,
			b.Subdiv, b.BackName, b.CiteAbbr, b.CiteFull, b.JSTTitle, b.WebTitle, b.URLPath); err != nil {
			return errors.NewIO(fmt.Sprintf("insert book %d", b.ID), path, err)
		}
	}

	for i, v := range store.Volumes() {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO volumes (position, id, full_name, min_book_id, max_book_id, abbr, cite_abbr,
			                     cite_full, url_path, lds_org, subdiv)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, v.ID, v.FullName, v.MinBookID, v.MaxBookID, v.Abbr, v.CiteAbbr,
			v.CiteFull, v.URLPath, v.LDSOrg, v.Subdiv); err != nil {
			return errors.NewIO(fmt.Sprintf("insert volume %d", v.ID), path, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.NewIO("commit", path, err)
	}
	return nil
}
