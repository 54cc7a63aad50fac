package app

import (
	"context"

	"github.com/sirupsen/logrus"
)

// AlertKind classifies conditions worth an operator's attention.
type AlertKind string

const (
	AlertTemplateMissing  AlertKind = "TEMPLATE_MISSING"   // Recurs every cycle until templates are fixed
	AlertStoreQueryFailed AlertKind = "STORE_QUERY_FAILED" // Whole cycle aborted
)

// Alert is a single operator-facing message.
type Alert struct {
	Kind    AlertKind
	Message string
}

// Alerter delivers alerts to operators. Implementations must not block for long;
// a failed alert is logged by the caller and never affects a cycle.
type Alerter interface {
	Alert(ctx context.Context, a Alert) error
}

// LogAlerter writes alerts to the log. It is the default when no channel is configured.
type LogAlerter struct {
	logger *logrus.Entry
}

func NewLogAlerter(logger *logrus.Entry) *LogAlerter {
	return &LogAlerter{logger: logger}
}

func (a *LogAlerter) Alert(_ context.Context, alert Alert) error {
	a.logger.WithField("alert_kind", alert.Kind).Warn(alert.Message)
	return nil
}
