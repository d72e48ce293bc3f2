package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/sumire/identity/internal/domain"
	"github.com/sumire/identity/internal/provider"
)

// DefaultAvatarMaxBytes caps the size of an ingested avatar.
const DefaultAvatarMaxBytes int64 = 1 << 20

// AvatarConfig bounds avatar ingestion.
type AvatarConfig struct {
	Timeout  time.Duration
	MaxBytes int64
}

// AvatarIngestor copies provider avatars into the binary store.
// It never fails: any problem is logged and reported as "no new photo".
type AvatarIngestor struct {
	store    BinaryStore
	timeout  time.Duration
	maxBytes int64
	logger   *slog.Logger
}

// NewAvatarIngestor creates a new AvatarIngestor.
func NewAvatarIngestor(store BinaryStore, cfg AvatarConfig, logger *slog.Logger) *AvatarIngestor {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultAvatarMaxBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AvatarIngestor{
		store:    store,
		timeout:  cfg.Timeout,
		maxBytes: cfg.MaxBytes,
		logger:   logger,
	}
}

// Ingest downloads ref through client and stores it. It returns the new blob
// id, or "" when ref is empty or anything went wrong.
func (a *AvatarIngestor) Ingest(ctx context.Context, client provider.Client, login, ref string) string {
	if ref == "" {
		return ""
	}
	id, err := a.ingest(ctx, client, ref)
	if err != nil {
		a.logger.Error("unable to load photo", "login", login, "error", err)
		return ""
	}
	return id
}

// Discard deletes a stored photo. Failures only leave an orphaned blob behind.
func (a *AvatarIngestor) Discard(ctx context.Context, id string) {
	if err := a.store.Delete(ctx, id); err != nil {
		a.logger.Warn("unable to delete photo", "photo_id", id, "error", err)
	}
}

func (a *AvatarIngestor) ingest(ctx context.Context, client provider.Client, ref string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	res, err := client.DownloadResource(ctx, ref)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.Length > a.maxBytes {
		return "", fmt.Errorf("photo is %d bytes, limit is %d", res.Length, a.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, a.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if int64(len(data)) > a.maxBytes {
		return "", fmt.Errorf("photo exceeds %d bytes", a.maxBytes)
	}

	contentType := mimetype.Detect(data).String()
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("photo content type %q (declared %q) is not an image", contentType, res.ContentType)
	}

	id, err := a.store.Store(ctx, domain.BinaryData{
		ContentType: contentType,
		Length:      int64(len(data)),
		Body:        bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}
	return id, nil
}
