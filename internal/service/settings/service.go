package settings

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/birkolabs/vitrin/internal/entity"
	repo "github.com/birkolabs/vitrin/internal/repository/settings"
	"github.com/birkolabs/vitrin/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/birkolabs/vitrin/service/settings")

// Service manages the site settings singleton: one JSON document per
// section, mutated only through merge-by-section under a single
// writer path.
type Service struct {
	repo   *repo.Repository
	logger *zap.Logger

	// writeMu serializes all settings mutations so concurrent admin
	// edits can't interleave a read-merge-write cycle.
	writeMu sync.Mutex
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:   p.Repository,
		logger: p.Logger,
	}
}

func validSection(page string) bool {
	switch page {
	case entity.SettingsGeneral, entity.SettingsHome, entity.SettingsNavbar, entity.SettingsFooter:
		return true
	}
	return false
}

// Get returns one section of the settings document as stored. The
// root-level lift of the general keys happens only in GetAll.
func (s *Service) Get(ctx context.Context, page string) (map[string]any, error) {
	ctx, span := serviceTracer.Start(ctx, "SettingsService.Get", trace.WithAttributes(attribute.String("settings.page", page)))
	defer span.End()

	if !validSection(page) {
		return nil, errorbank.NotFound("unknown settings page")
	}

	raw, err := s.repo.Get(ctx, page)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return map[string]any{}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load settings", errorbank.WithCause(err))
	}

	doc := map[string]any{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "corrupt document")
			return nil, errorbank.Internal("settings document is corrupt", errorbank.WithCause(err))
		}
	}
	return doc, nil
}

// GetAll returns the full settings document keyed by section, with
// the general section additionally merged into the root.
func (s *Service) GetAll(ctx context.Context) (map[string]any, error) {
	ctx, span := serviceTracer.Start(ctx, "SettingsService.GetAll")
	defer span.End()

	sections, err := s.repo.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load settings", errorbank.WithCause(err))
	}

	out := map[string]any{}
	for key, raw := range sections {
		doc := map[string]any{}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &doc); err != nil {
				if s.logger != nil {
					s.logger.Warn("skipping corrupt settings section", zap.String("key", key), zap.Error(err))
				}
				continue
			}
		}
		out[key] = doc
		if key == entity.SettingsGeneral {
			for k, v := range doc {
				out[k] = v
			}
		}
	}
	return out, nil
}

// Update merges the patch into one section and stores the result.
// Keys present in the patch overwrite stored keys; absent keys are
// kept. A null value removes the key.
func (s *Service) Update(ctx context.Context, page string, patch map[string]any) (map[string]any, error) {
	ctx, span := serviceTracer.Start(ctx, "SettingsService.Update", trace.WithAttributes(attribute.String("settings.page", page)))
	defer span.End()

	if !validSection(page) {
		return nil, errorbank.NotFound("unknown settings page")
	}
	if len(patch) == 0 {
		return nil, errorbank.BadRequest("settings patch is empty")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.Get(ctx, page)
	if err != nil {
		return nil, err
	}

	for k, v := range patch {
		if v == nil {
			delete(current, k)
			continue
		}
		current[k] = v
	}

	raw, err := json.Marshal(current)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "marshal failed")
		return nil, errorbank.Internal("failed to encode settings", errorbank.WithCause(err))
	}
	if err := s.repo.Upsert(ctx, page, string(raw)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to store settings", errorbank.WithCause(err))
	}
	return current, nil
}
