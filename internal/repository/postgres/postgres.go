package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartcity/traffic/internal/domain"
)

// Repository implements the domain stores on PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Health checks database connectivity
func (r *Repository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

// CreateReading persists a sensor reading
func (r *Repository) CreateReading(ctx context.Context, reading domain.Reading) (domain.Reading, error) {
	query := `
		INSERT INTO traffic_readings (
			sensor_id, location_lat, location_lng, vehicle_count,
			average_speed, congestion_level, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		reading.SensorID, reading.Location.Lat, reading.Location.Lng,
		reading.VehicleCount, reading.AverageSpeed, reading.Congestion, reading.Timestamp,
	).Scan(&reading.ID)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("postgres: failed to save reading: %w", err)
	}

	return reading, nil
}

// RecentReadings retrieves readings newest first, optionally filtered by sensor
func (r *Repository) RecentReadings(ctx context.Context, limit int, sensorID string) ([]domain.Reading, error) {
	query := `
		SELECT id, sensor_id, location_lat, location_lng, vehicle_count,
			   average_speed, congestion_level, recorded_at
		FROM traffic_readings
		WHERE ($2 = '' OR sensor_id = $2)
		ORDER BY recorded_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit, sensorID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query readings: %w", err)
	}
	defer rows.Close()

	var results []domain.Reading
	for rows.Next() {
		var reading domain.Reading
		err := rows.Scan(
			&reading.ID, &reading.SensorID, &reading.Location.Lat, &reading.Location.Lng,
			&reading.VehicleCount, &reading.AverageSpeed, &reading.Congestion, &reading.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan reading row: %w", err)
		}
		results = append(results, reading)
	}

	return results, rows.Err()
}

// CreateIncident persists a reported incident
func (r *Repository) CreateIncident(ctx context.Context, inc domain.Incident) (domain.Incident, error) {
	query := `
		INSERT INTO traffic_incidents (
			incident_type, location_lat, location_lng, severity,
			description, status, reported_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		inc.Type, inc.Location.Lat, inc.Location.Lng, inc.Severity,
		inc.Description, inc.Status, inc.ReportedAt,
	).Scan(&inc.ID)
	if err != nil {
		return domain.Incident{}, fmt.Errorf("postgres: failed to save incident: %w", err)
	}

	return inc, nil
}

// IncidentsByStatus retrieves incidents with the given status, newest first
func (r *Repository) IncidentsByStatus(ctx context.Context, status domain.IncidentStatus, limit int) ([]domain.Incident, error) {
	query := `
		SELECT id, incident_type, location_lat, location_lng, severity,
			   description, status, reported_at, resolved_at
		FROM traffic_incidents
		WHERE status = $1
		ORDER BY reported_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query incidents: %w", err)
	}
	defer rows.Close()

	var results []domain.Incident
	for rows.Next() {
		var inc domain.Incident
		err := rows.Scan(
			&inc.ID, &inc.Type, &inc.Location.Lat, &inc.Location.Lng, &inc.Severity,
			&inc.Description, &inc.Status, &inc.ReportedAt, &inc.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan incident row: %w", err)
		}
		results = append(results, inc)
	}

	return results, rows.Err()
}

// ResolveIncident transitions an incident to RESOLVED and stamps the time.
// Already-resolved incidents are returned unchanged.
func (r *Repository) ResolveIncident(ctx context.Context, id int64) (domain.Incident, error) {
	query := `
		UPDATE traffic_incidents
		SET status = $2, resolved_at = COALESCE(resolved_at, now())
		WHERE id = $1
		RETURNING id, incident_type, location_lat, location_lng, severity,
				  description, status, reported_at, resolved_at
	`

	var inc domain.Incident
	err := r.pool.QueryRow(ctx, query, id, domain.IncidentResolved).Scan(
		&inc.ID, &inc.Type, &inc.Location.Lat, &inc.Location.Lng, &inc.Severity,
		&inc.Description, &inc.Status, &inc.ReportedAt, &inc.ResolvedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Incident{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Incident{}, fmt.Errorf("postgres: failed to resolve incident: %w", err)
	}

	return inc, nil
}
