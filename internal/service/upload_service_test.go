package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/storage"
)

const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

func newUploadFixture(t *testing.T, max int64) *UploadService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	return NewUploadService(store, signer, UploadPolicy{
		MaxFileSize:  max,
		AllowedMIMEs: []string{"image/png", "application/pdf", "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
		DownloadPath: "/api/files",
	}, nil)
}

func TestUploadPosterRoundTrip(t *testing.T) {
	svc := newUploadFixture(t, 1024)
	body := pngHeader + strings.Repeat("x", 100)

	result, err := svc.Upload(context.Background(), claims("u1", models.RoleClubAdmin), models.UploadPoster, "../poster.PNG", "image/png", int64(len(body)), strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "image/png", result.ContentType)
	assert.Equal(t, "poster.PNG", result.FileName)
	assert.EqualValues(t, len(body), result.Size)
	assert.True(t, strings.HasPrefix(result.Key, "poster/"))
	assert.True(t, strings.HasSuffix(result.Key, ".png"))
	require.True(t, strings.HasPrefix(result.URL, "/api/files/"))

	file, grant, err := svc.Open(context.Background(), strings.TrimPrefix(result.URL, "/api/files/"))
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, result.Key, grant.Key)
	stored, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, body, string(stored))
}

func TestUploadRejectsWrongType(t *testing.T) {
	svc := newUploadFixture(t, 1024)
	_, err := svc.Upload(context.Background(), nil, models.UploadPoster, "notes.txt", "image/png", 5, strings.NewReader("hello"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Upload(context.Background(), nil, models.UploadSlides, "poster.png", "image/png", int64(len(pngHeader)), strings.NewReader(pngHeader))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUploadSlidesAcceptsZipContainer(t *testing.T) {
	svc := newUploadFixture(t, 1024)
	body := "PK\x03\x04" + strings.Repeat("\x00", 40)
	result, err := svc.Upload(context.Background(), nil, models.UploadSlides, "deck.pptx",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation", int64(len(body)), strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.presentationml.presentation", result.ContentType)

	pdf := "%PDF-1.4\n%..."
	result, err = svc.Upload(context.Background(), nil, models.UploadSlides, "deck.pdf", "", int64(len(pdf)), strings.NewReader(pdf))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
}

func TestUploadEnforcesSizeLimit(t *testing.T) {
	svc := newUploadFixture(t, 32)
	body := pngHeader + strings.Repeat("x", 64)

	_, err := svc.Upload(context.Background(), nil, models.UploadPoster, "big.png", "image/png", int64(len(body)), strings.NewReader(body))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPayloadTooLarge.Code, appErrors.FromError(err).Code)

	// Declared size understated: the stream is still capped.
	_, err = svc.Upload(context.Background(), nil, models.UploadPoster, "big.png", "image/png", 10, strings.NewReader(body))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPayloadTooLarge.Code, appErrors.FromError(err).Code)
}

func TestUploadOpenRejectsTamperedToken(t *testing.T) {
	svc := newUploadFixture(t, 0)
	_, _, err := svc.Open(context.Background(), "bogus.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
