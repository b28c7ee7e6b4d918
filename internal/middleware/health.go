package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// HealthChecker is one dependency the service cannot work without.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to HealthChecker
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// PingChecker pings a database/sql backend.
type PingChecker struct {
	DB *sql.DB
}

func (p *PingChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.DB.PingContext(ctx)
}

// HealthReport is the /health body. Status is "ok" when every check passed
// and "degraded" otherwise.
type HealthReport struct {
	Status    string                 `json:"status"`
	CheckedAt string                 `json:"checkedAt"`
	Checks    map[string]CheckResult `json:"checks"`
}

type CheckResult struct {
	OK        bool   `json:"ok"`
	LatencyMS int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// HealthHandler runs the checks one after another in name order, sharing a
// 5s budget. Any failure answers 503.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	names := make([]string, 0, len(checkers))
	for name := range checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		report := HealthReport{
			Status:    "ok",
			CheckedAt: time.Now().UTC().Format(time.RFC3339),
			Checks:    make(map[string]CheckResult, len(names)),
		}
		for _, name := range names {
			start := time.Now()
			err := checkers[name].Check(ctx)
			res := CheckResult{OK: err == nil, LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				res.Error = err.Error()
				report.Status = "degraded"
			}
			report.Checks[name] = res
		}

		code := http.StatusOK
		if report.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		writeStatus(w, code, report)
	}
}

// ReadinessHandler reports "ready" once the first load finished and
// "loading" before that.
func ReadinessHandler(ready func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ready", http.StatusOK
		if !ready() {
			status, code = "loading", http.StatusServiceUnavailable
		}
		writeStatus(w, code, map[string]string{"status": status})
	}
}

// LivenessHandler only proves the process answers.
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeStatus(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
