package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	crawlerrors "sjsage522/xbdealworker/pkg/errors"
)

const sqlSchema = `
CREATE TABLE IF NOT EXISTS sheet_rows (
    destination TEXT NOT NULL,
    worksheet TEXT NOT NULL,
    row_index INTEGER NOT NULL,
    cells TEXT NOT NULL,
    PRIMARY KEY (destination, worksheet, row_index)
);
CREATE TABLE IF NOT EXISTS sheet_cells (
    destination TEXT NOT NULL,
    worksheet TEXT NOT NULL,
    cell TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (destination, worksheet, cell)
);
`

// SQLSink stores worksheets in a relational database. Supported drivers
// are "sqlite" and "pgx".
type SQLSink struct {
	db            *sql.DB
	driver        string
	destination   string
	metaWorksheet string
}

// NewSQLSink opens the database and creates the tables when missing
func NewSQLSink(ctx context.Context, driver, dsn, destination, metaWorksheet string) (*SQLSink, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, crawlerrors.NewSink("sql", "open database", err)
	}
	if driver == "sqlite" {
		// a single connection keeps ":memory:" databases alive across calls
		db.SetMaxOpenConns(1)
	}

	s := &SQLSink{db: db, driver: driver, destination: destination, metaWorksheet: metaWorksheet}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLSink) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(sqlSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return crawlerrors.NewSink("sql", "migrate schema", err)
		}
	}
	return nil
}

// ReplaceAll deletes the worksheet rows and inserts the new ones in one transaction
func (s *SQLSink) ReplaceAll(ctx context.Context, worksheet string, rows [][]interface{}) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return crawlerrors.NewSink("sql", "begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		s.rebind(`DELETE FROM sheet_rows WHERE destination = ? AND worksheet = ?`),
		s.destination, worksheet,
	); err != nil {
		return crawlerrors.NewSink("sql", "clear "+worksheet, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		s.rebind(`INSERT INTO sheet_rows(destination, worksheet, row_index, cells) VALUES(?, ?, ?, ?)`))
	if err != nil {
		return crawlerrors.NewSink("sql", "prepare insert", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		cells, err := json.Marshal(row)
		if err != nil {
			return crawlerrors.NewSink("sql", "encode row", err)
		}
		if _, err := stmt.ExecContext(ctx, s.destination, worksheet, i+1, string(cells)); err != nil {
			return crawlerrors.NewSink("sql", fmt.Sprintf("insert row %d", i+1), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return crawlerrors.NewSink("sql", "commit "+worksheet, err)
	}
	return nil
}

// WriteMeta upserts one cell of the meta worksheet
func (s *SQLSink) WriteMeta(ctx context.Context, cell string, value interface{}) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO sheet_cells(destination, worksheet, cell, value) VALUES(?, ?, ?, ?)
ON CONFLICT (destination, worksheet, cell) DO UPDATE SET value = excluded.value`),
		s.destination, s.metaWorksheet, cell, fmt.Sprint(value),
	)
	if err != nil {
		return crawlerrors.NewSink("sql", "write meta "+cell, err)
	}
	return nil
}

// Rows reads a worksheet back in row order
func (s *SQLSink) Rows(ctx context.Context, worksheet string) ([][]interface{}, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT cells FROM sheet_rows WHERE destination = ? AND worksheet = ? ORDER BY row_index`),
		s.destination, worksheet,
	)
	if err != nil {
		return nil, crawlerrors.NewSink("sql", "read "+worksheet, err)
	}
	defer rows.Close()

	var out [][]interface{}
	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return nil, crawlerrors.NewSink("sql", "scan row", err)
		}
		var row []interface{}
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return nil, crawlerrors.NewSink("sql", "decode row", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Meta reads one cell of the meta worksheet
func (s *SQLSink) Meta(ctx context.Context, cell string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT value FROM sheet_cells WHERE destination = ? AND worksheet = ? AND cell = ?`),
		s.destination, s.metaWorksheet, cell,
	).Scan(&value)
	if err != nil {
		return "", crawlerrors.NewSink("sql", "read meta "+cell, err)
	}
	return value, nil
}

// Close closes the database
func (s *SQLSink) Close() error {
	return s.db.Close()
}

// rebind turns ? placeholders into $n for the pgx driver
func (s *SQLSink) rebind(query string) string {
	if s.driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
