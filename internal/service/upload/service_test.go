package upload

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/birkolabs/vitrin/internal/config"
	"github.com/birkolabs/vitrin/pkg/errorbank"
)

func newTestService(t *testing.T, maxBytes int64) *Service {
	t.Helper()

	cfg := config.Config{}
	cfg.Upload.Dir = t.TempDir()
	cfg.Upload.PublicPath = "/uploads"
	cfg.Upload.MaxBytes = maxBytes

	svc, err := NewService(Params{Config: cfg, Logger: zap.NewNop()})
	require.NoError(t, err)
	return svc
}

// fileHeader builds a real multipart.FileHeader the way echo would
// hand it to the handler.
func fileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	files := req.MultipartForm.File["image"]
	require.Len(t, files, 1)
	return files[0]
}

func TestSaveStoresImageUnderUUIDName(t *testing.T) {
	svc := newTestService(t, 5*1024*1024)

	resp, err := svc.Save(context.Background(), fileHeader(t, "ring.png", "image/png", []byte("png-bytes")))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(resp.Filename, ".png"))
	assert.NotEqual(t, "ring.png", resp.Filename)
	assert.Equal(t, "/uploads/"+resp.Filename, resp.URL)
	assert.Equal(t, int64(len("png-bytes")), resp.Size)

	stored, err := os.ReadFile(filepath.Join(svc.Dir(), resp.Filename))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), stored)
}

func TestSaveRejectsOversizeFile(t *testing.T) {
	svc := newTestService(t, 16)

	_, err := svc.Save(context.Background(), fileHeader(t, "big.jpg", "image/jpeg", bytes.Repeat([]byte("x"), 64)))
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
}

func TestSaveRejectsWrongExtension(t *testing.T) {
	svc := newTestService(t, 5*1024*1024)

	_, err := svc.Save(context.Background(), fileHeader(t, "script.svg", "image/svg+xml", []byte("<svg/>")))
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
}

func TestSaveRejectsMismatchedContentType(t *testing.T) {
	svc := newTestService(t, 5*1024*1024)

	_, err := svc.Save(context.Background(), fileHeader(t, "sneaky.png", "application/octet-stream", []byte("not png")))
	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
}
