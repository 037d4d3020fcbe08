package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/smartcity/streetlight/internal/store"
)

// Power figures behind the savings estimate. Duty cycles are projected
// onto a 20 W LED street fixture and compared against a 100 W sodium
// lamp that burns at full drive all night.
const (
	smartFixtureWatts = 20.0
	traditionalWatts  = 100.0
)

// defaultHours bounds analytics queries when the client does not say.
const defaultHours = 24

// defaultRecent bounds the recent-readings endpoint when the client
// does not say.
const defaultRecent = 50

// injectDeviceID names readings injected by hand through the API.
const injectDeviceID = "http_local"

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Redis    string `json:"redis"`
	Postgres string `json:"postgres"`
}

type statusEntry struct {
	DeviceID         string    `json:"device_id"`
	LastSeen         time.Time `json:"last_seen"`
	SecondsSinceSeen int64     `json:"seconds_since_seen"`
	Online           bool      `json:"online"`
}

type energyResponse struct {
	Device           string  `json:"device,omitempty"`
	Hours            int     `json:"hours"`
	Samples          int64   `json:"samples"`
	AvgDuty          float64 `json:"avg_duty"`
	AvgPowerW        float64 `json:"avg_power_w"`
	SmartWatts       float64 `json:"smart_watts"`
	TraditionalWatts float64 `json:"traditional_watts"`
	SavingsPct       float64 `json:"savings_pct"`
}

type trafficResponse struct {
	Device  string                `json:"device,omitempty"`
	Hours   int                   `json:"hours"`
	Buckets []store.TrafficBucket `json:"buckets"`
}

type modesResponse struct {
	Device    string  `json:"device,omitempty"`
	Hours     int     `json:"hours"`
	Samples   int64   `json:"samples"`
	Off       int64   `json:"off"`
	Eco       int64   `json:"eco"`
	Active    int64   `json:"active"`
	OffPct    float64 `json:"off_pct"`
	EcoPct    float64 `json:"eco_pct"`
	ActivePct float64 `json:"active_pct"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := healthResponse{Status: "ok", Redis: "ok", Postgres: "ok"}
	code := http.StatusOK

	if err := s.live.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Redis = err.Error()
		code = http.StatusServiceUnavailable
	}
	if err := s.archive.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Postgres = err.Error()
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, resp)
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.archive.Devices(r.Context())
	if err != nil {
		s.serverError(w, "list devices", err)
		return
	}
	if devices == nil {
		devices = []store.DeviceSummary{}
	}
	s.writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	device := r.URL.Query().Get("device")
	if device == "" {
		s.writeError(w, http.StatusBadRequest, "device parameter required")
		return
	}

	reading, found, err := s.live.Last(r.Context(), device)
	if err != nil {
		s.serverError(w, "load latest state", err)
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, "no state for device "+device)
		return
	}
	s.writeJSON(w, http.StatusOK, store.NewReadingJSON(reading))
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	device := r.URL.Query().Get("device")
	if device == "" {
		s.writeError(w, http.StatusBadRequest, "device parameter required")
		return
	}
	n := defaultRecent
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("n must be a positive integer, got %q", v))
			return
		}
		n = parsed
	}

	readings, err := s.live.Recent(r.Context(), device, n)
	if err != nil {
		s.serverError(w, "load recent readings", err)
		return
	}
	out := make([]store.ReadingJSON, 0, len(readings))
	for _, reading := range readings {
		out = append(out, store.NewReadingJSON(reading))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	devices, err := s.archive.Devices(r.Context())
	if err != nil {
		s.serverError(w, "list devices", err)
		return
	}

	now := s.now()
	entries := make([]statusEntry, 0, len(devices))
	for _, d := range devices {
		age := now.Sub(d.LastSeen)
		entries = append(entries, statusEntry{
			DeviceID:         d.DeviceID,
			LastSeen:         d.LastSeen,
			SecondsSinceSeen: int64(age.Seconds()),
			Online:           age <= staleAfter,
		})
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleEnergy(w http.ResponseWriter, r *http.Request) {
	device := r.URL.Query().Get("device")
	hours, err := hoursParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := s.archive.Energy(r.Context(), device, hours)
	if err != nil {
		s.serverError(w, "aggregate energy", err)
		return
	}

	smart := stats.AvgDuty / 100 * smartFixtureWatts
	savings := (traditionalWatts - smart) / traditionalWatts * 100
	s.writeJSON(w, http.StatusOK, energyResponse{
		Device:           device,
		Hours:            hours,
		Samples:          stats.Samples,
		AvgDuty:          round1(stats.AvgDuty),
		AvgPowerW:        round1(stats.AvgPowerW),
		SmartWatts:       round1(smart),
		TraditionalWatts: traditionalWatts,
		SavingsPct:       round1(savings),
	})
}

func (s *Server) handleTraffic(w http.ResponseWriter, r *http.Request) {
	device := r.URL.Query().Get("device")
	hours, err := hoursParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	buckets, err := s.archive.Traffic(r.Context(), device, hours)
	if err != nil {
		s.serverError(w, "aggregate traffic", err)
		return
	}
	if buckets == nil {
		buckets = []store.TrafficBucket{}
	}
	s.writeJSON(w, http.StatusOK, trafficResponse{
		Device:  device,
		Hours:   hours,
		Buckets: buckets,
	})
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	device := r.URL.Query().Get("device")
	hours, err := hoursParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	split, err := s.archive.Modes(r.Context(), device, hours)
	if err != nil {
		s.serverError(w, "aggregate modes", err)
		return
	}

	pct := func(n int64) float64 {
		if split.Samples == 0 {
			return 0
		}
		return round1(float64(n) / float64(split.Samples) * 100)
	}
	s.writeJSON(w, http.StatusOK, modesResponse{
		Device:    device,
		Hours:     hours,
		Samples:   split.Samples,
		Off:       split.Off,
		Eco:       split.Eco,
		Active:    split.Active,
		OffPct:    pct(split.Off),
		EcoPct:    pct(split.Eco),
		ActivePct: pct(split.Active),
	})
}

func (s *Server) handleInject(w http.ResponseWriter, r *http.Request) {
	var body store.ReadingJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "decode body: "+err.Error())
		return
	}
	if body.DeviceID == "" {
		body.DeviceID = injectDeviceID
	}
	if body.Timestamp == "" {
		body.Timestamp = s.now().UTC().Format(time.RFC3339)
	}

	reading, err := body.Reading()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Injected readings never masquerade as real ones.
	reading.Simulated = true

	ctx := r.Context()
	if err := s.live.SetLast(ctx, reading); err != nil {
		s.serverError(w, "store reading", err)
		return
	}
	if err := s.live.PushRecent(ctx, reading); err != nil {
		s.serverError(w, "store reading", err)
		return
	}
	if err := s.archive.InsertReading(ctx, reading); err != nil {
		s.serverError(w, "archive reading", err)
		return
	}

	s.log.Info("injected reading", "device", reading.DeviceID, "duty", reading.Duty)
	s.writeJSON(w, http.StatusCreated, store.NewReadingJSON(reading))
}

func hoursParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("hours")
	if v == "" {
		return defaultHours, nil
	}
	hours, err := strconv.Atoi(v)
	if err != nil || hours <= 0 {
		return 0, fmt.Errorf("hours must be a positive integer, got %q", v)
	}
	return hours, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, errorResponse{Error: msg})
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.log.Error(op+" failed", "error", err)
	s.writeError(w, http.StatusInternalServerError, op+": "+err.Error())
}
