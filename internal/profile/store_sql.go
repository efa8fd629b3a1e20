package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Get(ctx context.Context, name string) (Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, options_json, updated_at FROM option_profiles WHERE name=$1`, name)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, err
}

func (s *SQLStore) Put(ctx context.Context, p Profile) (Profile, error) {
	if err := ValidateName(p.Name); err != nil {
		return Profile{}, err
	}
	if p.Raw == nil {
		p.Raw = map[string]interface{}{}
	}
	buf, err := json.Marshal(p.Raw)
	if err != nil {
		return Profile{}, fmt.Errorf("encode options: %w", err)
	}
	p.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	_, err = s.db.ExecContext(ctx, `INSERT INTO option_profiles (name, options_json, updated_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (name) DO UPDATE SET options_json=EXCLUDED.options_json, updated_at=EXCLUDED.updated_at`,
		p.Name, string(buf), p.UpdatedAt.Unix())
	if err != nil {
		return Profile{}, err
	}
	// hand back what a later Get would see
	return Profile{Name: p.Name, Raw: decodeRaw(buf), UpdatedAt: p.UpdatedAt}, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, options_json, updated_at FROM option_profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM option_profiles WHERE name=$1`, name)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(sc scanner) (Profile, error) {
	var (
		p       Profile
		raw     string
		updated int64
	)
	if err := sc.Scan(&p.Name, &raw, &updated); err != nil {
		return Profile{}, err
	}
	p.Raw = decodeRaw([]byte(raw))
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return p, nil
}

// decodeRaw tolerates corrupt rows: they resolve to the defaults.
func decodeRaw(buf []byte) map[string]interface{} {
	raw := map[string]interface{}{}
	if err := json.Unmarshal(buf, &raw); err != nil || raw == nil {
		return map[string]interface{}{}
	}
	return raw
}
