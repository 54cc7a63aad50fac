package templates

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"todo_alarm_notifier/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
templates:
  alarm_todo_normal:
    title: "Reminder: {todo_title}"
    body: "Due {alarm_datetime}"
  alarm_todo_high:
    title: "Due soon: {todo_title}"
    body: "Due at {alarm_time}"
`

func TestParse(t *testing.T) {
	store, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	tpl, err := store.Resolve(context.Background(), notification.TemplateAlarmHigh)
	require.NoError(t, err)
	assert.Equal(t, notification.Template{
		Type:  notification.TemplateAlarmHigh,
		Title: "Due soon: {todo_title}",
		Body:  "Due at {alarm_time}",
	}, *tpl)

	_, err = store.Resolve(context.Background(), notification.TemplateAlarmExpired)
	assert.ErrorIs(t, err, notification.ErrTemplateNotFound)

	all := store.All()
	require.Len(t, all, 2)
	assert.Equal(t, notification.TemplateAlarmHigh, all[0].Type)
	assert.Equal(t, notification.TemplateAlarmNormal, all[1].Type)
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("templates:\n  alarm_todo_normal:\n    titel: typo\n"))
	assert.ErrorContains(t, err, "failed to parse template YAML")
}

func TestParse_RejectsEmptyTitle(t *testing.T) {
	_, err := Parse([]byte("templates:\n  alarm_todo_normal:\n    body: only a body\n"))
	assert.ErrorContains(t, err, "empty title")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	store, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, store.All(), 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read template file")
}

func TestLoadFile_ShippedTemplates(t *testing.T) {
	store, err := LoadFile(filepath.Join("..", "..", "..", "configs", "templates.yaml"))
	require.NoError(t, err)

	for _, tt := range []notification.TemplateType{
		notification.TemplateAlarmNormal,
		notification.TemplateAlarmHigh,
		notification.TemplateAlarmExpired,
	} {
		_, err := store.Resolve(context.Background(), tt)
		assert.NoError(t, err, tt)
	}
}
