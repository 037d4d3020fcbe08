package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/smartcity/streetlight/internal/telemetry"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS readings (
	id          UUID PRIMARY KEY,
	device      TEXT NOT NULL,
	ts          TIMESTAMPTZ NOT NULL,
	raw         INTEGER NOT NULL,
	smoothed    INTEGER NOT NULL,
	night       BOOLEAN NOT NULL,
	motion      BOOLEAN NOT NULL,
	duty        INTEGER NOT NULL,
	power_w     DOUBLE PRECISION NOT NULL,
	traffic_pct INTEGER NOT NULL,
	anomaly     TEXT NOT NULL DEFAULT '',
	simulated   BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS readings_device_ts_idx ON readings (device, ts DESC)`

// PostgresArchive implements Archive on a Postgres database.
type PostgresArchive struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgresArchive opens a connection pool for the given DSN. The
// database is not dialed until the first query; call Ping to verify
// connectivity at startup.
func NewPostgresArchive(dsn string, log *slog.Logger) (*PostgresArchive, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &PostgresArchive{db: db, log: log}, nil
}

// EnsureSchema creates the readings table and index when absent.
func (a *PostgresArchive) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// InsertReading appends one reading to the history.
func (a *PostgresArchive) InsertReading(ctx context.Context, r telemetry.Reading) error {
	const query = `
		INSERT INTO readings (
			id, device, ts, raw, smoothed, night, motion,
			duty, power_w, traffic_pct, anomaly, simulated
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := a.db.ExecContext(ctx, query,
		uuid.New(), r.DeviceID, r.Timestamp.UTC(), r.Raw, r.Smoothed,
		r.Night, r.Motion, r.Duty, r.PowerW, r.TrafficPct,
		string(r.Anomaly), r.Simulated)
	if err != nil {
		return fmt.Errorf("insert reading for %s: %w", r.DeviceID, err)
	}
	return nil
}

// Devices lists every device with readings, ordered by id.
func (a *PostgresArchive) Devices(ctx context.Context) ([]DeviceSummary, error) {
	const query = `
		SELECT device, MAX(ts), COUNT(*)
		FROM readings
		GROUP BY device
		ORDER BY device`

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var devices []DeviceSummary
	for rows.Next() {
		var d DeviceSummary
		if err := rows.Scan(&d.DeviceID, &d.LastSeen, &d.Readings); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}
	return devices, nil
}

// Energy aggregates duty and draw over the past hours window.
func (a *PostgresArchive) Energy(ctx context.Context, device string, hours int) (EnergyStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(AVG(duty), 0), COALESCE(AVG(power_w), 0)
		FROM readings
		WHERE ts >= $1`
	args := []interface{}{cutoff(hours)}
	if device != "" {
		query += " AND device = $2"
		args = append(args, device)
	}

	var stats EnergyStats
	err := a.db.QueryRowContext(ctx, query, args...).Scan(&stats.Samples, &stats.AvgDuty, &stats.AvgPowerW)
	if err != nil {
		return EnergyStats{}, fmt.Errorf("query energy: %w", err)
	}
	return stats, nil
}

// Traffic returns hourly traffic buckets over the past hours window.
func (a *PostgresArchive) Traffic(ctx context.Context, device string, hours int) ([]TrafficBucket, error) {
	where := "WHERE ts >= $1"
	args := []interface{}{cutoff(hours)}
	if device != "" {
		where += " AND device = $2"
		args = append(args, device)
	}
	query := fmt.Sprintf(`
		SELECT date_trunc('hour', ts) AS hour,
		       COALESCE(AVG(traffic_pct), 0),
		       COUNT(*) FILTER (WHERE motion),
		       COUNT(*)
		FROM readings
		%s
		GROUP BY hour
		ORDER BY hour`, where)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query traffic: %w", err)
	}
	defer rows.Close()

	var buckets []TrafficBucket
	for rows.Next() {
		var b TrafficBucket
		if err := rows.Scan(&b.Hour, &b.AvgTrafficPct, &b.MotionCount, &b.Samples); err != nil {
			return nil, fmt.Errorf("scan traffic bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traffic buckets: %w", err)
	}
	return buckets, nil
}

// Modes splits readings by operating mode over the past hours window.
func (a *PostgresArchive) Modes(ctx context.Context, device string, hours int) (ModeSplit, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE duty = 0),
		       COUNT(*) FILTER (WHERE duty > 0 AND duty < 50),
		       COUNT(*) FILTER (WHERE duty >= 50)
		FROM readings
		WHERE ts >= $1`
	args := []interface{}{cutoff(hours)}
	if device != "" {
		query += " AND device = $2"
		args = append(args, device)
	}

	var split ModeSplit
	err := a.db.QueryRowContext(ctx, query, args...).Scan(&split.Samples, &split.Off, &split.Eco, &split.Active)
	if err != nil {
		return ModeSplit{}, fmt.Errorf("query modes: %w", err)
	}
	return split, nil
}

// Ping tests the database connection.
func (a *PostgresArchive) Ping(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (a *PostgresArchive) Close() error {
	return a.db.Close()
}

func cutoff(hours int) time.Time {
	if hours <= 0 {
		hours = 24
	}
	return time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
}
