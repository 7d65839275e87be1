package leads

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"readiness/internal/platform/db"
)

type PostgresStore struct {
	DB db.Pool
}

func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{DB: pool}
}

func (s *PostgresStore) Create(ctx context.Context, r Record) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO leads (id, email, first_name, last_name, firm_name, title, phone_enc, notes_enc, wants_demo, source, form_type, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
  `, r.ID, r.Email, r.FirstName, r.LastName, r.FirmName, r.Title, r.PhoneEnc, r.NotesEnc, r.WantsDemo, r.Source, string(r.FormType), r.CreatedAt)
	return err
}

const selectLead = `
    SELECT id, email, first_name, last_name, firm_name, title, phone_enc, notes_enc,
           wants_demo, source, form_type, created_at, booked_at, booking_ref
    FROM leads
`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	var formType string
	if err := row.Scan(&r.ID, &r.Email, &r.FirstName, &r.LastName, &r.FirmName, &r.Title, &r.PhoneEnc, &r.NotesEnc,
		&r.WantsDemo, &r.Source, &formType, &r.CreatedAt, &r.BookedAt, &r.BookingRef); err != nil {
		return Record{}, err
	}
	r.FormType = FormType(formType)
	return r, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	r, err := scanRecord(s.DB.QueryRow(ctx, selectLead+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrLeadNotFound
	}
	return r, err
}

func (s *PostgresStore) MarkBooked(ctx context.Context, id, ref string, at time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leads
    SET booked_at = $1, booking_ref = $2
    WHERE id = $3
  `, at, ref, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// DeleteBefore removes leads captured before cutoff.
func (s *PostgresStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM leads
    WHERE created_at < $1
  `, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.DB.Query(ctx, selectLead+` ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
