package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/xid"

	"listingboard/internal/apperr"
	"listingboard/internal/config"
	"listingboard/internal/logging"
	"listingboard/internal/storage"
)

const (
	DefaultMaxUploadFiles = 5
	DefaultMaxUploadSize  = 5 << 20
)

// UploadFile is one image part of an upload request. Content must be
// positioned at the start of the file.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.ReadSeeker
}

type MediaService interface {
	UploadImages(ctx context.Context, ownerID int64, files []UploadFile) ([]string, error)
	DeleteImage(ctx context.Context, imageURL string) error
}

type mediaService struct {
	store    storage.ObjectStore
	maxFiles int
	maxSize  int64
	now      func() time.Time
}

func NewMediaService(store storage.ObjectStore, cfg *config.Config) MediaService {
	s := &mediaService{
		store:    store,
		maxFiles: cfg.MaxUploadFiles,
		maxSize:  cfg.MaxUploadSize,
		now:      time.Now,
	}
	if s.maxFiles <= 0 {
		s.maxFiles = DefaultMaxUploadFiles
	}
	if s.maxSize <= 0 {
		s.maxSize = DefaultMaxUploadSize
	}
	return s
}

// UploadImages validates every file before the first upload and returns the
// public URLs in input order. A failed upload removes the objects already
// stored by this call.
func (s *mediaService) UploadImages(ctx context.Context, ownerID int64, files []UploadFile) ([]string, error) {
	if len(files) == 0 {
		return nil, apperr.Invalid("No images provided")
	}
	if len(files) > s.maxFiles {
		return nil, apperr.Invalid(fmt.Sprintf("At most %d images can be uploaded at once", s.maxFiles))
	}

	for i := range files {
		if err := s.checkFile(&files[i]); err != nil {
			return nil, err
		}
	}

	log := logging.Ctx(ctx)
	urls := make([]string, 0, len(files))
	uploaded := make([]string, 0, len(files))

	for _, f := range files {
		key := s.objectKey(ownerID, f.Filename)

		url, err := s.store.Upload(ctx, key, f.Content, f.Size, f.ContentType)
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("image upload failed")
			s.rollback(ctx, uploaded)

			if errors.Is(err, storage.ErrObjectExists) {
				return nil, apperr.Wrap(apperr.Conflict, "An image with this name already exists", err)
			}
			return nil, apperr.Wrap(apperr.UpstreamFailure, "Failed to upload images", err)
		}

		uploaded = append(uploaded, key)
		urls = append(urls, url)
	}

	log.Info().Int64("user_id", ownerID).Int("count", len(urls)).Msg("images uploaded")

	return urls, nil
}

func (s *mediaService) DeleteImage(ctx context.Context, imageURL string) error {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return apperr.Invalid("imageUrl is required")
	}

	key, ok := s.store.KeyFromURL(imageURL)
	if !ok {
		return apperr.Invalid("Invalid image URL")
	}

	if err := s.store.Remove(ctx, key); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("key", key).Msg("image delete failed")
		return apperr.Wrap(apperr.UpstreamFailure, "Failed to delete image", err)
	}

	return nil
}

// checkFile enforces the size limit and the image/ content type. A missing or
// generic declared type is replaced by the sniffed one.
func (s *mediaService) checkFile(f *UploadFile) error {
	if f.Content == nil {
		return apperr.Invalid("Empty file")
	}

	if f.Size > s.maxSize {
		return apperr.New(apperr.TooLarge, fmt.Sprintf("%s exceeds the %s limit",
			displayName(f.Filename), humanize.IBytes(uint64(s.maxSize))))
	}

	contentType := strings.ToLower(strings.TrimSpace(f.ContentType))
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		mtype, err := mimetype.DetectReader(f.Content)
		if err != nil {
			return apperr.Wrap(apperr.InvalidInput, "Could not read file", err)
		}
		if _, err := f.Content.Seek(0, io.SeekStart); err != nil {
			return apperr.Wrap(apperr.InvalidInput, "Could not read file", err)
		}
		contentType = mtype.String()
	}

	if !strings.HasPrefix(contentType, "image/") {
		return apperr.New(apperr.InvalidFileType, fmt.Sprintf("%s is not an image", displayName(f.Filename)))
	}

	f.ContentType = contentType
	return nil
}

func (s *mediaService) objectKey(ownerID int64, filename string) string {
	return fmt.Sprintf("listings/%d/%d-%s-%s", ownerID, s.now().UnixMilli(), xid.New().String(), displayName(filename))
}

func (s *mediaService) rollback(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.store.Remove(context.WithoutCancel(ctx), key); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("rollback of uploaded image failed")
		}
	}
}

// displayName strips any client-side directory from a file name.
func displayName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "image"
	}
	return name
}
