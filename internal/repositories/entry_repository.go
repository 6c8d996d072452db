package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"skyroute-backend/internal/models"
	"skyroute-backend/internal/sequence"
)

// ErrDuplicateNumber is returned by Create when a C209 or C208 number is
// already taken by another row of the same type.
var ErrDuplicateNumber = errors.New("document number already exists")

const uniqueViolation = "23505"

const entryColumns = `
	id, type, c209_number, COALESCE(c208_number, ''), month_year,
	COALESCE(container_code, ''), COALESCE(bar_number, ''), pieces,
	COALESCE(flight_number, ''), COALESCE(origin, ''), COALESCE(destination, ''),
	COALESCE(signature, ''), COALESCE(notes, ''), COALESCE(flags, ''),
	is_new_build, is_rw_flight, COALESCE(created_by, ''), created_at`

type EntryRepository struct {
	DB *pgxpool.Pool
}

func NewEntryRepository(db *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{DB: db}
}

func scanEntry(row pgx.Row) (*models.Entry, error) {
	e := &models.Entry{}
	err := row.Scan(
		&e.ID, &e.Type, &e.C209Number, &e.C208Number, &e.MonthYear,
		&e.ContainerCode, &e.BarNumber, &e.Pieces,
		&e.FlightNumber, &e.Origin, &e.Destination,
		&e.Signature, &e.Notes, &e.Flags,
		&e.IsNewBuild, &e.IsRWFlight, &e.CreatedBy, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts an entry and fills in its ID and CreatedAt. Empty strings
// are stored as NULL. A zero CreatedAt means "now".
func (r *EntryRepository) Create(ctx context.Context, e *models.Entry) error {
	query := `
		INSERT INTO entries (
			type, c209_number, c208_number, month_year, container_code, bar_number,
			pieces, flight_number, origin, destination, signature, notes, flags,
			is_new_build, is_rw_flight, created_by, created_at
		)
		VALUES (
			$1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''),
			$7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''),
			$14, $15, NULLIF($16, ''), COALESCE($17, NOW())
		)
		RETURNING id, created_at
	`

	var createdAt *time.Time
	if !e.CreatedAt.IsZero() {
		createdAt = &e.CreatedAt
	}

	err := r.DB.QueryRow(ctx, query,
		e.Type,          // $1
		e.C209Number,    // $2
		e.C208Number,    // $3
		e.MonthYear,     // $4
		e.ContainerCode, // $5
		e.BarNumber,     // $6
		e.Pieces,        // $7
		e.FlightNumber,  // $8
		e.Origin,        // $9
		e.Destination,   // $10
		e.Signature,     // $11
		e.Notes,         // $12
		e.Flags,         // $13
		e.IsNewBuild,    // $14
		e.IsRWFlight,    // $15
		e.CreatedBy,     // $16
		createdAt,       // $17
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateNumber, pgErr.ConstraintName)
		}
		return err
	}
	return nil
}

// Get returns nil, nil when no entry has the id.
func (r *EntryRepository) Get(ctx context.Context, id int64) (*models.Entry, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = $1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// FindRampByC209 looks up the RAMP entry owning a C209, ignoring case.
// Returns nil, nil when there is none.
func (r *EntryRepository) FindRampByC209(ctx context.Context, c209 string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + `
		FROM entries
		WHERE type = 'ramp_input' AND UPPER(c209_number) = UPPER($1)
		ORDER BY created_at DESC
		LIMIT 1`

	e, err := scanEntry(r.DB.QueryRow(ctx, query, strings.TrimSpace(c209)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// List returns entries newest first. Search is a case-insensitive substring
// match over the number, container, flight and signature columns.
func (r *EntryRepository) List(ctx context.Context, f models.EntryFilter) ([]*models.Entry, error) {
	var (
		where []string
		args  []interface{}
	)

	if f.Type != "" {
		args = append(args, f.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(`(
			c209_number ILIKE $%[1]d OR c208_number ILIKE $%[1]d OR
			bar_number ILIKE $%[1]d OR container_code ILIKE $%[1]d OR
			flight_number ILIKE $%[1]d OR signature ILIKE $%[1]d)`, n))
	}

	limit := f.Limit
	if limit <= 0 || limit > models.MaxListLimit {
		limit = models.MaxListLimit
	}
	args = append(args, limit)

	query := `SELECT ` + entryColumns + ` FROM entries`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes an entry. The bool reports whether a row existed.
func (r *EntryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.DB.Exec(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MaxNumber implements sequence.MaxFinder. Rows whose suffix is not numeric
// are skipped, so a stray FEBXXXX cannot hide FEB0001.
func (r *EntryRepository) MaxNumber(ctx context.Context, docType sequence.DocType, prefix string) (string, bool, error) {
	col := docType.Column()
	query := fmt.Sprintf(`
		SELECT %[1]s FROM entries
		WHERE type = $1
		  AND %[1]s LIKE $2::text || '%%'
		  AND SUBSTRING(%[1]s FROM 4) ~ '^[0-9]{1,9}$'
		ORDER BY CAST(SUBSTRING(%[1]s FROM 4) AS INTEGER) DESC
		LIMIT 1`, col)

	var number string
	err := r.DB.QueryRow(ctx, query, docType.OwnerType(), prefix).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return number, true, nil
}

// Stats counts entries for the dashboard. Logistic entries created strictly
// between expiringFrom and expiringTo are close to the end of their window.
func (r *EntryRepository) Stats(ctx context.Context, dayStart, expiringFrom, expiringTo time.Time) (*models.DashboardStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COUNT(*) FILTER (WHERE type = 'logistic_input' AND created_at > $2 AND created_at < $3),
			COUNT(DISTINCT flight_number) FILTER (WHERE created_at >= $1 AND flight_number IS NOT NULL)
		FROM entries
	`

	s := &models.DashboardStats{}
	err := r.DB.QueryRow(ctx, query, dayStart, expiringFrom, expiringTo).
		Scan(&s.TotalEntries, &s.TodayEntries, &s.ExpiringSoon, &s.TotalFlights)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
