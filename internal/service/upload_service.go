package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/storage"
)

const sniffLength = 512

type fileStore interface {
	Put(key string, r io.Reader, limit int64) (int64, error)
	Open(key string) (*os.File, error)
}

type urlSigner interface {
	Sign(key string) (string, time.Time, error)
	Verify(token string) (storage.Grant, error)
}

// UploadPolicy bounds what uploads are accepted.
type UploadPolicy struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	// DownloadPath prefixes the signed token in returned URLs, e.g. "/api/files".
	DownloadPath string
}

// UploadService stores posters and slide decks and hands out signed download links.
type UploadService struct {
	store   fileStore
	signer  urlSigner
	policy  UploadPolicy
	allowed map[string]struct{}
	logger  *zap.Logger
	now     func() time.Time
}

func NewUploadService(store fileStore, signer urlSigner, policy UploadPolicy, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.DownloadPath == "" {
		policy.DownloadPath = "/files"
	}
	allowed := make(map[string]struct{}, len(policy.AllowedMIMEs))
	for _, mime := range policy.AllowedMIMEs {
		allowed[strings.ToLower(mime)] = struct{}{}
	}
	return &UploadService{store: store, signer: signer, policy: policy, allowed: allowed, logger: logger, now: time.Now}
}

// Upload validates and stores one file. declared is the client supplied Content-Type.
func (s *UploadService) Upload(ctx context.Context, actor *models.JWTClaims, kind models.UploadKind, fileName, declared string, size int64, r io.Reader) (*models.UploadResult, error) {
	if s.policy.MaxFileSize > 0 && size > s.policy.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, "file exceeds the upload limit")
	}

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, appErrors.Internal(err, "failed to read upload")
	}
	head = head[:n]
	if n == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}

	contentType, ok := s.accept(kind, http.DetectContentType(head), declared)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file type is not allowed for "+string(kind))
	}

	key := s.objectKey(kind, fileName)
	written, err := s.store.Put(key, io.MultiReader(bytes.NewReader(head), r), s.policy.MaxFileSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, "file exceeds the upload limit")
		}
		return nil, appErrors.Internal(err, "failed to store upload")
	}

	token, expiresAt, err := s.signer.Sign(key)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign download url")
	}
	s.logger.Info("file uploaded", zap.String("key", key), zap.String("user_id", actorID(actor)), zap.String("content_type", contentType), zap.Int64("size", written))

	return &models.UploadResult{
		Key:         key,
		FileName:    filepath.Base(fileName),
		ContentType: contentType,
		Size:        written,
		URL:         strings.TrimRight(s.policy.DownloadPath, "/") + "/" + token,
		ExpiresAt:   expiresAt,
	}, nil
}

// Open resolves a signed token to the stored file. The caller closes it.
func (s *UploadService) Open(ctx context.Context, token string) (*os.File, storage.Grant, error) {
	grant, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, storage.Grant{}, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, storage.Grant{}, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	file, err := s.store.Open(grant.Key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.Grant{}, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, storage.Grant{}, appErrors.Internal(err, "failed to open file")
	}
	return file, grant, nil
}

// accept picks the content type to record, or reports false when the file is not allowed.
func (s *UploadService) accept(kind models.UploadKind, detected, declared string) (string, bool) {
	detected = normaliseMIME(detected)
	declared = normaliseMIME(declared)

	switch kind {
	case models.UploadPoster:
		if strings.HasPrefix(detected, "image/") && s.allows(detected) {
			return detected, true
		}
	case models.UploadSlides:
		switch detected {
		case "application/pdf":
			return detected, s.allows(detected)
		case "application/zip", "application/octet-stream":
			// pptx is a zip container and legacy ppt sniffs as octet-stream.
			if isSlideDeck(declared) && s.allows(declared) {
				return declared, true
			}
			if detected == "application/zip" && s.allows(detected) {
				return detected, true
			}
		}
	}
	return "", false
}

func (s *UploadService) allows(mime string) bool {
	if len(s.allowed) == 0 {
		return true
	}
	_, ok := s.allowed[mime]
	return ok
}

func (s *UploadService) objectKey(kind models.UploadKind, fileName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(fileName)))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	now := s.now().UTC()
	return path.Join(string(kind), now.Format("2006"), now.Format("01"), uuid.NewString()+ext)
}

func normaliseMIME(value string) string {
	if idx := strings.IndexByte(value, ';'); idx >= 0 {
		value = value[:idx]
	}
	return strings.ToLower(strings.TrimSpace(value))
}

func isSlideDeck(mime string) bool {
	switch mime {
	case "application/vnd.ms-powerpoint", "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return true
	}
	return false
}
