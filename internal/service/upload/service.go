package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/birkolabs/vitrin/internal/config"
	"github.com/birkolabs/vitrin/internal/dto"
	"github.com/birkolabs/vitrin/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/birkolabs/vitrin/service/upload")

// allowedTypes maps permitted extensions to their MIME types. Both
// the filename extension and the declared content type must match.
var allowedTypes = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Service stores product images on local disk under uuid names and
// hands back their public URLs.
type Service struct {
	dir        string
	publicPath string
	maxBytes   int64
	logger     *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Config config.Config
	Logger *zap.Logger
}

// NewService wires a new Service instance and makes sure the upload
// directory exists.
func NewService(p Params) (*Service, error) {
	if err := os.MkdirAll(p.Config.Upload.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Service{
		dir:        p.Config.Upload.Dir,
		publicPath: p.Config.Upload.PublicPath,
		maxBytes:   p.Config.Upload.MaxBytes,
		logger:     p.Logger,
	}, nil
}

// Dir returns the on-disk upload directory, for the static route.
func (s *Service) Dir() string { return s.dir }

// PublicPath returns the URL prefix uploads are served under.
func (s *Service) PublicPath() string { return s.publicPath }

// MaxBytes returns the size cap for a single upload.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Save validates and stores one uploaded image.
func (s *Service) Save(ctx context.Context, header *multipart.FileHeader) (*dto.UploadResponse, error) {
	_, span := serviceTracer.Start(ctx, "UploadService.Save")
	defer span.End()

	if header == nil {
		return nil, errorbank.BadRequest("image file is required")
	}
	if header.Size > s.maxBytes {
		return nil, errorbank.BadRequest(fmt.Sprintf("file exceeds the %dMB limit", s.maxBytes/(1024*1024)))
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	wantMIME, ok := allowedTypes[ext]
	if !ok {
		return nil, errorbank.BadRequest("only jpeg, jpg, png, gif and webp images are accepted")
	}
	if declared := header.Header.Get("Content-Type"); declared != "" && declared != wantMIME {
		return nil, errorbank.BadRequest("file content type does not match its extension")
	}

	src, err := header.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return nil, errorbank.Internal("failed to read upload", errorbank.WithCause(err))
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dstPath := filepath.Join(s.dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, errorbank.Internal("failed to store upload", errorbank.WithCause(err))
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	if err != nil {
		os.Remove(dstPath)
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return nil, errorbank.Internal("failed to store upload", errorbank.WithCause(err))
	}
	if written > s.maxBytes {
		os.Remove(dstPath)
		return nil, errorbank.BadRequest(fmt.Sprintf("file exceeds the %dMB limit", s.maxBytes/(1024*1024)))
	}

	if s.logger != nil {
		s.logger.Info("image stored", zap.String("file", name), zap.Int64("bytes", written))
	}
	return &dto.UploadResponse{
		Filename: name,
		URL:      path.Join(s.publicPath, name),
		Size:     written,
	}, nil
}
