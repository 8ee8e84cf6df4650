package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// homeLocationRepo implements HomeLocationRepository.
type homeLocationRepo struct {
	pool *pgxpool.Pool
}

func (r *homeLocationRepo) Get(ctx context.Context) (*HomeLocation, error) {
	defer observeDB(ctx, "db.home_location.get")()
	const q = `SELECT display_name, latitude, longitude, radius_meters, updated_at FROM home_location`
	var h HomeLocation
	err := r.pool.QueryRow(ctx, q).Scan(&h.DisplayName, &h.Latitude, &h.Longitude, &h.RadiusMeters, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get home location: %w", err)
	}
	return &h, nil
}

func (r *homeLocationRepo) Put(ctx context.Context, loc HomeLocation) error {
	defer observeDB(ctx, "db.home_location.put")()
	const q = `INSERT INTO home_location (singleton, display_name, latitude, longitude, radius_meters)
VALUES (TRUE, $1, $2, $3, $4)
ON CONFLICT (singleton) DO UPDATE SET
    display_name=EXCLUDED.display_name,
    latitude=EXCLUDED.latitude,
    longitude=EXCLUDED.longitude,
    radius_meters=EXCLUDED.radius_meters,
    updated_at=NOW()`
	_, err := r.pool.Exec(ctx, q, loc.DisplayName, loc.Latitude, loc.Longitude, loc.RadiusMeters)
	if err != nil {
		return fmt.Errorf("put home location: %w", err)
	}
	return nil
}

// userLocationRepo implements UserLocationRepository.
type userLocationRepo struct {
	pool *pgxpool.Pool
}

func (r *userLocationRepo) Upsert(ctx context.Context, loc UserLocation) error {
	defer observeDB(ctx, "db.user_locations.upsert")()
	const q = `INSERT INTO user_locations (user_id, latitude, longitude, accuracy, status, last_updated)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE SET
    latitude=EXCLUDED.latitude,
    longitude=EXCLUDED.longitude,
    accuracy=EXCLUDED.accuracy,
    status=EXCLUDED.status,
    last_updated=EXCLUDED.last_updated`
	_, err := r.pool.Exec(ctx, q, loc.UserID, loc.Latitude, loc.Longitude, loc.Accuracy, loc.Status, loc.LastUpdated)
	if err != nil {
		return fmt.Errorf("upsert user location: %w", err)
	}
	return nil
}

func (r *userLocationRepo) GetByUser(ctx context.Context, userID string) (*UserLocation, error) {
	defer observeDB(ctx, "db.user_locations.get_by_user")()
	const q = `SELECT user_id, latitude, longitude, accuracy, status, last_updated FROM user_locations WHERE user_id=$1`
	var l UserLocation
	err := r.pool.QueryRow(ctx, q, userID).Scan(&l.UserID, &l.Latitude, &l.Longitude, &l.Accuracy, &l.Status, &l.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user location: %w", err)
	}
	return &l, nil
}

func (r *userLocationRepo) ListAll(ctx context.Context) ([]UserLocation, error) {
	defer observeDB(ctx, "db.user_locations.list_all")()
	const q = `SELECT user_id, latitude, longitude, accuracy, status, last_updated FROM user_locations ORDER BY last_updated DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list user locations: %w", err)
	}
	defer rows.Close()

	var locs []UserLocation
	for rows.Next() {
		var l UserLocation
		if err := rows.Scan(&l.UserID, &l.Latitude, &l.Longitude, &l.Accuracy, &l.Status, &l.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan user location: %w", err)
		}
		locs = append(locs, l)
	}
	return locs, rows.Err()
}

// calendarAssignmentRepo implements CalendarAssignmentRepository.
type calendarAssignmentRepo struct {
	pool *pgxpool.Pool
}

const assignmentColumns = `id, user_id, calendar_id, calendar_name, created_at`

func (r *calendarAssignmentRepo) Create(ctx context.Context, a CalendarAssignment) (*CalendarAssignment, error) {
	defer observeDB(ctx, "db.calendar_assignments.create")()
	const q = `INSERT INTO calendar_assignments (id, user_id, calendar_id, calendar_name)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, calendar_id) DO UPDATE SET calendar_name=EXCLUDED.calendar_name
RETURNING ` + assignmentColumns
	var out CalendarAssignment
	err := r.pool.QueryRow(ctx, q, a.ID, a.UserID, a.CalendarID, a.CalendarName).
		Scan(&out.ID, &out.UserID, &out.CalendarID, &out.CalendarName, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create calendar assignment: %w", err)
	}
	return &out, nil
}

func (r *calendarAssignmentRepo) ListByUser(ctx context.Context, userID string) ([]CalendarAssignment, error) {
	defer observeDB(ctx, "db.calendar_assignments.list_by_user")()
	const q = `SELECT ` + assignmentColumns + ` FROM calendar_assignments WHERE user_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list calendar assignments: %w", err)
	}
	defer rows.Close()

	var assignments []CalendarAssignment
	for rows.Next() {
		var a CalendarAssignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.CalendarID, &a.CalendarName, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan calendar assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *calendarAssignmentRepo) Delete(ctx context.Context, userID, id string) error {
	defer observeDB(ctx, "db.calendar_assignments.delete")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM calendar_assignments WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete calendar assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *calendarAssignmentRepo) DeleteByUser(ctx context.Context, userID string) error {
	defer observeDB(ctx, "db.calendar_assignments.delete_by_user")()
	_, err := r.pool.Exec(ctx, `DELETE FROM calendar_assignments WHERE user_id=$1`, userID)
	return err
}

// calendarConfigRepo implements CalendarConfigRepository.
type calendarConfigRepo struct {
	pool *pgxpool.Pool
}

const configColumns = `id, calendar_id, calendar_name, is_active, created_at`

func scanCalendarConfig(row pgx.Row) (*CalendarConfig, error) {
	var c CalendarConfig
	err := row.Scan(&c.ID, &c.CalendarID, &c.CalendarName, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan calendar config: %w", err)
	}
	return &c, nil
}

func (r *calendarConfigRepo) List(ctx context.Context) ([]CalendarConfig, error) {
	defer observeDB(ctx, "db.calendar_configs.list")()
	const q = `SELECT ` + configColumns + ` FROM calendar_configs ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list calendar configs: %w", err)
	}
	defer rows.Close()

	var configs []CalendarConfig
	for rows.Next() {
		c, err := scanCalendarConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *c)
	}
	return configs, rows.Err()
}

func (r *calendarConfigRepo) GetActive(ctx context.Context) (*CalendarConfig, error) {
	defer observeDB(ctx, "db.calendar_configs.get_active")()
	const q = `SELECT ` + configColumns + ` FROM calendar_configs WHERE is_active LIMIT 1`
	return scanCalendarConfig(r.pool.QueryRow(ctx, q))
}

func (r *calendarConfigRepo) Activate(ctx context.Context, cfg CalendarConfig) (*CalendarConfig, error) {
	defer observeDB(ctx, "db.calendar_configs.activate")()
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin activate config: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `UPDATE calendar_configs SET is_active=FALSE WHERE is_active`); err != nil {
		return nil, fmt.Errorf("deactivate configs: %w", err)
	}

	const q = `INSERT INTO calendar_configs (id, calendar_id, calendar_name, is_active)
VALUES ($1, $2, $3, TRUE)
ON CONFLICT (id) DO UPDATE SET calendar_name=EXCLUDED.calendar_name, is_active=TRUE
RETURNING ` + configColumns
	out, err := scanCalendarConfig(tx.QueryRow(ctx, q, cfg.ID, cfg.CalendarID, cfg.CalendarName))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit activate config: %w", err)
	}
	return out, nil
}

func (r *calendarConfigRepo) Deactivate(ctx context.Context, id string) error {
	defer observeDB(ctx, "db.calendar_configs.deactivate")()
	tag, err := r.pool.Exec(ctx, `UPDATE calendar_configs SET is_active=FALSE WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("deactivate config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *calendarConfigRepo) Delete(ctx context.Context, id string) error {
	defer observeDB(ctx, "db.calendar_configs.delete")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM calendar_configs WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete calendar config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
