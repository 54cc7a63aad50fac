package app

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"todo_alarm_notifier/internal/domain/alarm"
)

// Placeholder keys available to alarm templates.
const (
	PlaceholderTitle    = "todo_title"
	PlaceholderDateTime = "alarm_datetime"
	PlaceholderDate     = "alarm_date"
	PlaceholderTime     = "alarm_time"
	PlaceholderNote     = "todo_note"
	PlaceholderTaskID   = "todo_id"
	PlaceholderOrderID  = "order_id"
)

// Fallback texts for optional task fields.
const (
	FallbackTitle   = "untitled"
	FallbackNote    = "no note"
	FallbackMissing = "-"
)

const (
	dateLayout     = "02. 01. 2006"
	timeLayout     = "15:04"
	dateTimeLayout = dateLayout + " " + timeLayout
)

var placeholderMarker = regexp.MustCompile(`\{[a-z0-9_]+\}`)

// RenderPlaceholders builds the substitution values for a candidate. It never fails:
// missing optional fields degrade to the fallback texts.
func RenderPlaceholders(c *alarm.Candidate, loc *time.Location) map[string]string {
	if loc == nil {
		loc = time.UTC
	}

	title := strings.TrimSpace(c.Task.Title)
	if title == "" {
		title = FallbackTitle
	}

	note := FallbackNote
	if c.Task.Note.Valid && strings.TrimSpace(c.Task.Note.String) != "" {
		note = c.Task.Note.String
	}

	orderID := FallbackMissing
	if c.Task.OrderID.Valid {
		orderID = strconv.FormatInt(c.Task.OrderID.Int64, 10)
	}

	values := map[string]string{
		PlaceholderTitle:    title,
		PlaceholderNote:     note,
		PlaceholderTaskID:   strconv.FormatInt(c.Task.ID, 10),
		PlaceholderOrderID:  orderID,
		PlaceholderDateTime: FallbackMissing,
		PlaceholderDate:     FallbackMissing,
		PlaceholderTime:     FallbackMissing,
	}

	if !c.Alarm.Deadline.IsZero() {
		deadline := c.Alarm.Deadline.In(loc)
		values[PlaceholderDateTime] = deadline.Format(dateTimeLayout)
		values[PlaceholderDate] = deadline.Format(dateLayout)
		values[PlaceholderTime] = deadline.Format(timeLayout)
	}

	return values
}

// Substitute replaces {key} markers in text with HTML-escaped values in a single pass.
// Markers without a value are replaced with "-".
func Substitute(text string, values map[string]string) string {
	if text == "" {
		return text
	}

	return placeholderMarker.ReplaceAllStringFunc(text, func(marker string) string {
		value, ok := values[marker[1:len(marker)-1]]
		if !ok {
			return FallbackMissing
		}
		return html.EscapeString(value)
	})
}
