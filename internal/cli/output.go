package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"todo_alarm_notifier/internal/app"
)

type failureView struct {
	AlarmID int64  `json:"alarm_id"`
	TaskID  int64  `json:"task_id"`
	Error   string `json:"error"`
}

type reportView struct {
	StartedAt  string        `json:"started_at"`
	DurationMS int64         `json:"duration_ms"`
	Attempted  int           `json:"attempted"`
	Succeeded  int           `json:"succeeded"`
	ClaimLost  int           `json:"claim_lost"`
	Failed     int           `json:"failed"`
	Failures   []failureView `json:"failures,omitempty"`
}

func newReportView(r *app.CycleReport) reportView {
	v := reportView{
		StartedAt:  r.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		DurationMS: r.Duration.Milliseconds(),
		Attempted:  r.Attempted,
		Succeeded:  r.Succeeded,
		ClaimLost:  r.ClaimLost,
		Failed:     r.Failed,
	}
	for _, f := range r.Failures {
		v.Failures = append(v.Failures, failureView{AlarmID: f.AlarmID, TaskID: f.TaskID, Error: f.Err.Error()})
	}
	return v
}

type statsView struct {
	TakenAt         string  `json:"taken_at"`
	Eligible        int     `json:"eligible"`
	AverageDelaySec float64 `json:"average_delay_seconds"`
	Orphaned        int     `json:"orphaned"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeReport(w io.Writer, format string, r *app.CycleReport) error {
	if format == "json" {
		return writeJSON(w, newReportView(r))
	}
	_, err := fmt.Fprintf(w, "cycle: %s duration=%s\n", r.String(), r.Duration)
	if err != nil {
		return err
	}
	for _, f := range r.Failures {
		if _, err := fmt.Fprintf(w, "  alarm %d (task %d): %v\n", f.AlarmID, f.TaskID, f.Err); err != nil {
			return err
		}
	}
	return nil
}

func writeStats(w io.Writer, format string, s *app.Stats) error {
	if format == "json" {
		return writeJSON(w, statsView{
			TakenAt:         s.TakenAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Eligible:        s.Eligible,
			AverageDelaySec: s.AverageDelay.Seconds(),
			Orphaned:        s.Orphaned,
		})
	}
	_, err := fmt.Fprintf(w, "eligible=%d average_delay=%s orphaned=%d\n", s.Eligible, s.AverageDelay, s.Orphaned)
	return err
}
