package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartcity/streetlight/internal/logic"
	"github.com/smartcity/streetlight/internal/telemetry"
)

// RedisLive implements Live on a Redis instance. The latest state per
// device lives in a hash, the recent history in a capped list of JSON
// blobs; both expire after liveTTL so vanished devices age out.
type RedisLive struct {
	rdb *redis.Client
	log *slog.Logger
}

// NewRedisLive creates a live store on the given Redis instance.
func NewRedisLive(addr, password string, db int, log *slog.Logger) *RedisLive {
	if log == nil {
		log = slog.Default()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisLive{rdb: rdb, log: log}
}

// SetLast replaces the device's latest state hash and refreshes its TTL.
func (s *RedisLive) SetLast(ctx context.Context, r telemetry.Reading) error {
	key := LastKey(r.DeviceID)
	if err := s.rdb.HSet(ctx, key, hashFromReading(r)).Err(); err != nil {
		return fmt.Errorf("set last state for %s: %w", r.DeviceID, err)
	}
	if err := s.rdb.Expire(ctx, key, liveTTL).Err(); err != nil {
		return fmt.Errorf("expire last state for %s: %w", r.DeviceID, err)
	}
	return nil
}

// Last returns the device's latest state. A device that never reported
// (or aged out) comes back with found false and no error.
func (s *RedisLive) Last(ctx context.Context, device string) (telemetry.Reading, bool, error) {
	fields, err := s.rdb.HGetAll(ctx, LastKey(device)).Result()
	if err != nil {
		return telemetry.Reading{}, false, fmt.Errorf("get last state for %s: %w", device, err)
	}
	if len(fields) == 0 {
		return telemetry.Reading{}, false, nil
	}

	r, err := readingFromHash(fields)
	if err != nil {
		return telemetry.Reading{}, false, fmt.Errorf("decode last state for %s: %w", device, err)
	}
	return r, true, nil
}

// PushRecent prepends the reading to the device's recent list, trims it
// to RecentCap, and refreshes the TTL.
func (s *RedisLive) PushRecent(ctx context.Context, r telemetry.Reading) error {
	blob, err := json.Marshal(NewReadingJSON(r))
	if err != nil {
		return fmt.Errorf("marshal reading for %s: %w", r.DeviceID, err)
	}

	key := RecentKey(r.DeviceID)
	if err := s.rdb.LPush(ctx, key, blob).Err(); err != nil {
		return fmt.Errorf("push recent for %s: %w", r.DeviceID, err)
	}
	if err := s.rdb.LTrim(ctx, key, 0, RecentCap-1).Err(); err != nil {
		return fmt.Errorf("trim recent for %s: %w", r.DeviceID, err)
	}
	if err := s.rdb.Expire(ctx, key, liveTTL).Err(); err != nil {
		return fmt.Errorf("expire recent for %s: %w", r.DeviceID, err)
	}
	return nil
}

// Recent returns up to n recent readings for the device, newest first.
func (s *RedisLive) Recent(ctx context.Context, device string, n int) ([]telemetry.Reading, error) {
	if n <= 0 || n > RecentCap {
		n = RecentCap
	}

	blobs, err := s.rdb.LRange(ctx, RecentKey(device), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("range recent for %s: %w", device, err)
	}

	readings := make([]telemetry.Reading, 0, len(blobs))
	for _, blob := range blobs {
		var sr ReadingJSON
		if err := json.Unmarshal([]byte(blob), &sr); err != nil {
			s.log.Warn("skipping undecodable recent entry", "device", device, "error", err)
			continue
		}
		r, err := sr.Reading()
		if err != nil {
			s.log.Warn("skipping undecodable recent entry", "device", device, "error", err)
			continue
		}
		readings = append(readings, r)
	}
	return readings, nil
}

// Ping checks the Redis connection.
func (s *RedisLive) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisLive) Close() error {
	return s.rdb.Close()
}

func hashFromReading(r telemetry.Reading) map[string]string {
	return map[string]string{
		"device_id":   r.DeviceID,
		"timestamp":   r.Timestamp.UTC().Format(time.RFC3339),
		"raw":         strconv.Itoa(r.Raw),
		"smoothed":    strconv.Itoa(r.Smoothed),
		"night":       strconv.FormatBool(r.Night),
		"motion":      strconv.FormatBool(r.Motion),
		"countdown_s": strconv.Itoa(r.CountdownS),
		"duty":        strconv.Itoa(r.Duty),
		"power_w":     strconv.FormatFloat(r.PowerW, 'f', -1, 64),
		"traffic_pct": strconv.Itoa(r.TrafficPct),
		"anomaly":     string(r.Anomaly),
		"simulated":   strconv.FormatBool(r.Simulated),
		"reason":      string(r.Reason),
	}
}

func readingFromHash(fields map[string]string) (telemetry.Reading, error) {
	var r telemetry.Reading
	r.DeviceID = fields["device_id"]
	r.Anomaly = logic.Anomaly(fields["anomaly"])
	r.Reason = telemetry.Reason(fields["reason"])

	if v := fields["timestamp"]; v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return r, fmt.Errorf("parse timestamp %q: %w", v, err)
		}
		r.Timestamp = ts
	}

	var err error
	if r.Raw, err = hashInt(fields, "raw"); err != nil {
		return r, err
	}
	if r.Smoothed, err = hashInt(fields, "smoothed"); err != nil {
		return r, err
	}
	if r.CountdownS, err = hashInt(fields, "countdown_s"); err != nil {
		return r, err
	}
	if r.Duty, err = hashInt(fields, "duty"); err != nil {
		return r, err
	}
	if r.TrafficPct, err = hashInt(fields, "traffic_pct"); err != nil {
		return r, err
	}
	if r.Night, err = hashBool(fields, "night"); err != nil {
		return r, err
	}
	if r.Motion, err = hashBool(fields, "motion"); err != nil {
		return r, err
	}
	if r.Simulated, err = hashBool(fields, "simulated"); err != nil {
		return r, err
	}
	if r.PowerW, err = hashFloat(fields, "power_w"); err != nil {
		return r, err
	}
	return r, nil
}

func hashInt(fields map[string]string, name string) (int, error) {
	v := fields[name]
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, v, err)
	}
	return n, nil
}

func hashBool(fields map[string]string, name string) (bool, error) {
	v := fields[name]
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s %q: %w", name, v, err)
	}
	return b, nil
}

func hashFloat(fields map[string]string, name string) (float64, error) {
	v := fields[name]
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, v, err)
	}
	return f, nil
}
