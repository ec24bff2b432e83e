package settings

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/birkolabs/vitrin/internal/database"
	"github.com/birkolabs/vitrin/internal/entity"
)

var repoTracer = otel.Tracer("github.com/birkolabs/vitrin/repository/settings")

// ErrNotFound is returned when a settings section has no stored row.
var ErrNotFound = errors.New("settings section not found")

// Repository stores site settings as one JSON document per section key.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Get returns the raw JSON document for a section key.
func (r *Repository) Get(ctx context.Context, key string) (string, error) {
	ctx, span := repoTracer.Start(ctx, "SettingsRepository.Get", trace.WithAttributes(attribute.String("settings.key", key)))
	defer span.End()

	setting := new(entity.Setting)
	err := r.reader.NewSelect().Model(setting).
		Where("setting_key = ?", key).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return "", err
	}
	return setting.Value, nil
}

// GetAll returns every stored section keyed by its section name.
func (r *Repository) GetAll(ctx context.Context) (map[string]string, error) {
	ctx, span := repoTracer.Start(ctx, "SettingsRepository.GetAll")
	defer span.End()

	var rows []entity.Setting
	err := r.reader.NewSelect().Model(&rows).Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Upsert writes the JSON document for a section key, replacing any
// previous value.
func (r *Repository) Upsert(ctx context.Context, key, value string) error {
	ctx, span := repoTracer.Start(ctx, "SettingsRepository.Upsert", trace.WithAttributes(attribute.String("settings.key", key)))
	defer span.End()

	setting := &entity.Setting{Key: key, Value: value}
	_, err := r.writer.NewInsert().Model(setting).
		On("CONFLICT (setting_key) DO UPDATE").
		Set("setting_value = EXCLUDED.setting_value").
		Set("updated_at = CURRENT_TIMESTAMP").
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
	}
	return err
}
