package templates

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"todo_alarm_notifier/internal/domain/notification"

	"gopkg.in/yaml.v3"
)

type templateEntry struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

type templateFile struct {
	Templates map[string]templateEntry `yaml:"templates"`
}

// FileStore serves templates loaded once from a YAML file.
type FileStore struct {
	templates map[notification.TemplateType]notification.Template
}

// LoadFile reads a template file. Unknown fields are rejected so typos surface at start-up
// rather than as missing templates at cycle time.
func LoadFile(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	return Parse(data)
}

// Parse builds a store from YAML of the form:
//
//	templates:
//	  alarm_todo_normal:
//	    title: "Reminder: {todo_title}"
//	    body: "Due {alarm_datetime}"
func Parse(data []byte) (*FileStore, error) {
	var file templateFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse template YAML: %w", err)
	}

	store := &FileStore{templates: make(map[notification.TemplateType]notification.Template, len(file.Templates))}
	for key, entry := range file.Templates {
		if strings.TrimSpace(entry.Title) == "" {
			return nil, fmt.Errorf("template %s has an empty title", key)
		}
		t := notification.TemplateType(key)
		store.templates[t] = notification.Template{Type: t, Title: entry.Title, Body: entry.Body}
	}
	return store, nil
}

func (s *FileStore) Resolve(_ context.Context, t notification.TemplateType) (*notification.Template, error) {
	tpl, ok := s.templates[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", notification.ErrTemplateNotFound, t)
	}
	return &tpl, nil
}

// All returns the loaded templates ordered by type.
func (s *FileStore) All() []notification.Template {
	out := make([]notification.Template, 0, len(s.templates))
	for _, tpl := range s.templates {
		out = append(out, tpl)
	}
	slices.SortFunc(out, func(a, b notification.Template) int { return strings.Compare(string(a.Type), string(b.Type)) })
	return out
}
