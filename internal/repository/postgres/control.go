package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/smartcity/traffic/internal/domain"
)

// CreateLight registers a new traffic light
func (r *Repository) CreateLight(ctx context.Context, light domain.TrafficLight) (domain.TrafficLight, error) {
	query := `
		INSERT INTO traffic_lights (
			light_id, location_lat, location_lng, intersection_name,
			current_state, cycle_duration, is_active, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		light.LightID, light.Location.Lat, light.Location.Lng, light.Intersection,
		light.State, light.CycleSeconds, light.Active, light.UpdatedAt,
	).Scan(&light.ID)
	if err != nil {
		return domain.TrafficLight{}, fmt.Errorf("postgres: failed to save traffic light: %w", err)
	}

	return light, nil
}

const lightColumns = `id, light_id, location_lat, location_lng, intersection_name,
	current_state, cycle_duration, is_active, last_updated`

func scanLight(row pgx.Row) (domain.TrafficLight, error) {
	var light domain.TrafficLight
	err := row.Scan(
		&light.ID, &light.LightID, &light.Location.Lat, &light.Location.Lng,
		&light.Intersection, &light.State, &light.CycleSeconds, &light.Active, &light.UpdatedAt,
	)
	return light, err
}

// LightByID returns the light with the given external identifier
func (r *Repository) LightByID(ctx context.Context, lightID string) (domain.TrafficLight, error) {
	query := `SELECT ` + lightColumns + ` FROM traffic_lights WHERE light_id = $1`

	light, err := scanLight(r.pool.QueryRow(ctx, query, lightID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.TrafficLight{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.TrafficLight{}, fmt.Errorf("postgres: failed to query traffic light: %w", err)
	}
	return light, nil
}

// ActiveLights returns all lights with the active flag set
func (r *Repository) ActiveLights(ctx context.Context) ([]domain.TrafficLight, error) {
	query := `SELECT ` + lightColumns + ` FROM traffic_lights WHERE is_active ORDER BY light_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query traffic lights: %w", err)
	}
	defer rows.Close()

	var results []domain.TrafficLight
	for rows.Next() {
		light, err := scanLight(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan traffic light row: %w", err)
		}
		results = append(results, light)
	}

	return results, rows.Err()
}

// ApplyLightAction persists the updated light and its audit record in one
// transaction. The light row is locked for the duration so concurrent
// mutations of the same light serialize and each produces exactly one
// audit record.
func (r *Repository) ApplyLightAction(ctx context.Context, light domain.TrafficLight, action domain.ControlAction) (domain.ControlAction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.ControlAction{}, fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var lockedID int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM traffic_lights WHERE light_id = $1 FOR UPDATE`,
		light.LightID,
	).Scan(&lockedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ControlAction{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ControlAction{}, fmt.Errorf("postgres: failed to lock traffic light: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE traffic_lights
		 SET current_state = $2, cycle_duration = $3, last_updated = $4
		 WHERE light_id = $1`,
		light.LightID, light.State, light.CycleSeconds, light.UpdatedAt,
	)
	if err != nil {
		return domain.ControlAction{}, fmt.Errorf("postgres: failed to update traffic light: %w", err)
	}

	recorded, err := insertAction(ctx, tx, action)
	if err != nil {
		return domain.ControlAction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ControlAction{}, fmt.Errorf("postgres: failed to commit light action: %w", err)
	}
	return recorded, nil
}

// AppendAction records an audit entry without an entity mutation
func (r *Repository) AppendAction(ctx context.Context, action domain.ControlAction) (domain.ControlAction, error) {
	return insertAction(ctx, r.pool, action)
}

// execer covers both the pool and a transaction
type execer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertAction(ctx context.Context, db execer, action domain.ControlAction) (domain.ControlAction, error) {
	query := `
		INSERT INTO control_actions (
			action_type, target_id, action_data, status,
			created_at, executed_at, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := db.QueryRow(ctx, query,
		action.Type, action.TargetID, action.Payload, action.Status,
		action.CreatedAt, action.ExecutedAt, action.Actor,
	).Scan(&action.ID)
	if err != nil {
		return domain.ControlAction{}, fmt.Errorf("postgres: failed to save control action: %w", err)
	}

	return action, nil
}

// CreateSignal persists an advisory signal
func (r *Repository) CreateSignal(ctx context.Context, sig domain.AdvisorySignal) (domain.AdvisorySignal, error) {
	query := `
		INSERT INTO traffic_signals (
			signal_id, signal_type, location_lat, location_lng, message,
			priority, is_active, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		sig.SignalID, sig.Category, sig.Location.Lat, sig.Location.Lng, sig.Message,
		sig.Priority, sig.Active, sig.CreatedAt, sig.ExpiresAt,
	).Scan(&sig.ID)
	if err != nil {
		return domain.AdvisorySignal{}, fmt.Errorf("postgres: failed to save signal: %w", err)
	}

	return sig, nil
}

// ActiveSignals returns all signals with the active flag set
func (r *Repository) ActiveSignals(ctx context.Context) ([]domain.AdvisorySignal, error) {
	query := `
		SELECT id, signal_id, signal_type, location_lat, location_lng, message,
			   priority, is_active, created_at, expires_at
		FROM traffic_signals
		WHERE is_active
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query signals: %w", err)
	}
	defer rows.Close()

	var results []domain.AdvisorySignal
	for rows.Next() {
		var sig domain.AdvisorySignal
		err := rows.Scan(
			&sig.ID, &sig.SignalID, &sig.Category, &sig.Location.Lat, &sig.Location.Lng,
			&sig.Message, &sig.Priority, &sig.Active, &sig.CreatedAt, &sig.ExpiresAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan signal row: %w", err)
		}
		results = append(results, sig)
	}

	return results, rows.Err()
}

// RecentActions returns the newest audit records
func (r *Repository) RecentActions(ctx context.Context, limit int) ([]domain.ControlAction, error) {
	query := `
		SELECT id, action_type, target_id, action_data, status,
			   created_at, executed_at, created_by
		FROM control_actions
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query control actions: %w", err)
	}
	defer rows.Close()

	var results []domain.ControlAction
	for rows.Next() {
		var action domain.ControlAction
		err := rows.Scan(
			&action.ID, &action.Type, &action.TargetID, &action.Payload, &action.Status,
			&action.CreatedAt, &action.ExecutedAt, &action.Actor,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan control action row: %w", err)
		}
		results = append(results, action)
	}

	return results, rows.Err()
}
