package leads

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// sqliteTime is fixed width so TEXT ordering matches time ordering.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps leads in a local file for single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: conn}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS leads (
	id          TEXT PRIMARY KEY,
	email       TEXT NOT NULL,
	first_name  TEXT NOT NULL DEFAULT '',
	last_name   TEXT NOT NULL DEFAULT '',
	firm_name   TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	phone_enc   BLOB,
	notes_enc   BLOB,
	wants_demo  INTEGER NOT NULL DEFAULT 0,
	source      TEXT NOT NULL DEFAULT '',
	form_type   TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	booked_at   TEXT,
	booking_ref TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, email, first_name, last_name, firm_name, title, phone_enc, notes_enc, wants_demo, source, form_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Email, r.FirstName, r.LastName, r.FirmName, r.Title, r.PhoneEnc, r.NotesEnc,
		r.WantsDemo, r.Source, string(r.FormType), r.CreatedAt.UTC().Format(sqliteTime),
	)
	return eris.Wrap(err, "sqlite: insert lead")
}

const sqliteSelectLead = `SELECT id, email, first_name, last_name, firm_name, title, phone_enc, notes_enc,
	wants_demo, source, form_type, created_at, booked_at, booking_ref FROM leads`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (Record, error) {
	var (
		r         Record
		formType  string
		createdAt string
		bookedAt  sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Email, &r.FirstName, &r.LastName, &r.FirmName, &r.Title, &r.PhoneEnc, &r.NotesEnc,
		&r.WantsDemo, &r.Source, &formType, &createdAt, &bookedAt, &r.BookingRef); err != nil {
		return Record{}, err
	}
	r.FormType = FormType(formType)
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Record{}, eris.Wrapf(err, "sqlite: parse created_at for %s", r.ID)
	}
	r.CreatedAt = created
	if bookedAt.Valid {
		at, err := time.Parse(time.RFC3339Nano, bookedAt.String)
		if err != nil {
			return Record{}, eris.Wrapf(err, "sqlite: parse booked_at for %s", r.ID)
		}
		r.BookedAt = &at
	}
	return r, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, error) {
	r, err := scanSQLiteRecord(s.db.QueryRowContext(ctx, sqliteSelectLead+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrLeadNotFound
	}
	if err != nil {
		return Record{}, eris.Wrapf(err, "sqlite: get lead %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) MarkBooked(ctx context.Context, id, ref string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET booked_at = ?, booking_ref = ? WHERE id = ?`,
		at.UTC().Format(sqliteTime), ref, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark booked %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// DeleteBefore removes leads captured before cutoff.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE created_at < ?`, cutoff.UTC().Format(sqliteTime))
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired leads")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return n, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectLead+` ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate leads")
}
