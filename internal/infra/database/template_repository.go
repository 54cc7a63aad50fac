package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"todo_alarm_notifier/internal/domain/notification"

	"github.com/jmoiron/sqlx"
)

type templateRow struct {
	Type    string `db:"type"`
	Title   string `db:"app_title"`
	Message string `db:"app_message"`
}

// TemplateRepository resolves alarm templates from the notification_templates table.
type TemplateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Resolve(ctx context.Context, t notification.TemplateType) (*notification.Template, error) {
	var row templateRow
	query := `SELECT type, app_title, app_message FROM notification_templates WHERE type = ?`
	err := r.db.GetContext(ctx, &row, r.db.Rebind(query), string(t))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", notification.ErrTemplateNotFound, t)
		}
		return nil, fmt.Errorf("error resolving template %s: %w", t, err)
	}
	return &notification.Template{
		Type:  notification.TemplateType(row.Type),
		Title: row.Title,
		Body:  row.Message,
	}, nil
}

// Upsert stores or replaces a template.
func (r *TemplateRepository) Upsert(ctx context.Context, tpl notification.Template) error {
	query := `INSERT INTO notification_templates (type, app_title, app_message) VALUES (?, ?, ?)
	          ON CONFLICT (type) DO UPDATE SET app_title = excluded.app_title, app_message = excluded.app_message`
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), string(tpl.Type), tpl.Title, tpl.Body); err != nil {
		return fmt.Errorf("error saving template %s: %w", tpl.Type, err)
	}
	return nil
}
