package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"listingboard/internal/apperr"
	"listingboard/internal/config"
	"listingboard/internal/storage"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func imageFile(name, contentType string, data []byte) UploadFile {
	return UploadFile{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Content:     bytes.NewReader(data),
	}
}

func newTestMedia(store storage.ObjectStore) *mediaService {
	s := NewMediaService(store, &config.Config{}).(*mediaService)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s
}

func TestMediaService_UploadImages(t *testing.T) {
	ctx := context.Background()

	t.Run("urls come back in input order", func(t *testing.T) {
		store := storage.NewMemoryStore("http://localhost:9000", "listing-images")
		s := newTestMedia(store)

		urls, err := s.UploadImages(ctx, 7, []UploadFile{
			imageFile("front.jpg", "image/jpeg", []byte("a")),
			imageFile(`C:\photos\back.png`, "image/png", []byte("b")),
		})
		require.NoError(t, err)
		require.Len(t, urls, 2)

		keyPattern := regexp.MustCompile(`^http://localhost:9000/listing-images/listings/7/1700000000000-[0-9a-v]{20}-`)
		assert.Regexp(t, keyPattern, urls[0])
		assert.True(t, strings.HasSuffix(urls[0], "-front.jpg"))
		assert.Contains(t, urls[1], "-back.png")
		assert.Equal(t, 2, store.Len())
	})

	t.Run("octet-stream is sniffed", func(t *testing.T) {
		store := storage.NewMemoryStore("http://localhost:9000", "b")
		s := newTestMedia(store)

		urls, err := s.UploadImages(ctx, 7, []UploadFile{imageFile("x", "application/octet-stream", pngHeader)})
		require.NoError(t, err)

		key, ok := store.KeyFromURL(urls[0])
		require.True(t, ok)
		data, contentType, ok := store.Object(key)
		require.True(t, ok)
		assert.Equal(t, "image/png", contentType)
		assert.Equal(t, pngHeader, data)
	})

	t.Run("validation rejects before any upload", func(t *testing.T) {
		tooBig := UploadFile{Filename: "big.jpg", ContentType: "image/jpeg", Size: DefaultMaxUploadSize + 1, Content: bytes.NewReader(nil)}
		six := make([]UploadFile, 6)
		for i := range six {
			six[i] = imageFile(fmt.Sprintf("%d.jpg", i), "image/jpeg", []byte("x"))
		}

		tests := []struct {
			name    string
			files   []UploadFile
			kind    apperr.Kind
			message string
		}{
			{"none", nil, apperr.InvalidInput, "No images provided"},
			{"six", six, apperr.InvalidInput, "At most 5 images can be uploaded at once"},
			{"pdf", []UploadFile{imageFile("ok.jpg", "image/jpeg", []byte("x")), imageFile("doc.pdf", "application/pdf", []byte("%PDF"))}, apperr.InvalidFileType, "doc.pdf is not an image"},
			{"sniffed text", []UploadFile{imageFile("notes", "", []byte("plain text"))}, apperr.InvalidFileType, "notes is not an image"},
			{"too large", []UploadFile{imageFile("ok.jpg", "image/jpeg", []byte("x")), tooBig}, apperr.TooLarge, "big.jpg exceeds the 5.0 MiB limit"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				store := new(MockObjectStore)
				s := newTestMedia(store)

				_, err := s.UploadImages(ctx, 7, tt.files)
				require.Error(t, err)
				assert.True(t, apperr.Is(err, tt.kind), err)
				assert.Equal(t, tt.message, apperr.Message(err, ""))
				store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("failed upload rolls back earlier ones", func(t *testing.T) {
		store := new(MockObjectStore)
		s := newTestMedia(store)

		var firstKey string
		store.On("Upload", ctx, mock.MatchedBy(func(k string) bool { return regexp.MustCompile(`-one\.jpg$`).MatchString(k) }),
			mock.Anything, int64(1), "image/jpeg").
			Run(func(args mock.Arguments) { firstKey = args.String(1) }).
			Return("http://x/b/one", nil)
		store.On("Upload", ctx, mock.MatchedBy(func(k string) bool { return regexp.MustCompile(`-two\.jpg$`).MatchString(k) }),
			mock.Anything, int64(1), "image/jpeg").
			Return("", errors.New("connection reset"))
		store.On("Remove", mock.Anything, mock.Anything).Return(nil)

		_, err := s.UploadImages(ctx, 7, []UploadFile{
			imageFile("one.jpg", "image/jpeg", []byte("1")),
			imageFile("two.jpg", "image/jpeg", []byte("2")),
		})
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.UpstreamFailure))
		assert.Equal(t, "Failed to upload images", apperr.Message(err, ""))
		store.AssertCalled(t, "Remove", mock.Anything, firstKey)
		store.AssertNumberOfCalls(t, "Remove", 1)
	})

	t.Run("existing key is a conflict", func(t *testing.T) {
		store := new(MockObjectStore)
		s := newTestMedia(store)
		store.On("Upload", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", fmt.Errorf("k: %w", storage.ErrObjectExists))

		_, err := s.UploadImages(ctx, 7, []UploadFile{imageFile("one.jpg", "image/jpeg", []byte("1"))})
		assert.True(t, apperr.Is(err, apperr.Conflict))
	})
}

func TestMediaService_DeleteImage(t *testing.T) {
	ctx := context.Background()

	t.Run("removes key after bucket marker", func(t *testing.T) {
		store := storage.NewMemoryStore("http://localhost:9000", "listing-images")
		s := newTestMedia(store)

		urls, err := s.UploadImages(ctx, 1, []UploadFile{imageFile("a.jpg", "image/jpeg", []byte("a"))})
		require.NoError(t, err)

		require.NoError(t, s.DeleteImage(ctx, urls[0]))
		assert.Equal(t, 0, store.Len())

		// already gone
		assert.NoError(t, s.DeleteImage(ctx, urls[0]))
	})

	t.Run("bad urls", func(t *testing.T) {
		s := newTestMedia(storage.NewMemoryStore("http://localhost:9000", "listing-images"))

		err := s.DeleteImage(ctx, "  ")
		assert.True(t, apperr.Is(err, apperr.InvalidInput))

		err = s.DeleteImage(ctx, "http://elsewhere.example.com/img.jpg")
		assert.True(t, apperr.Is(err, apperr.InvalidInput))
		assert.Equal(t, "Invalid image URL", apperr.Message(err, ""))
	})

	t.Run("storage failure", func(t *testing.T) {
		store := new(MockObjectStore)
		s := newTestMedia(store)
		store.On("KeyFromURL", "http://x/b/k").Return("k", true)
		store.On("Remove", ctx, "k").Return(errors.New("503"))

		err := s.DeleteImage(ctx, "http://x/b/k")
		assert.True(t, apperr.Is(err, apperr.UpstreamFailure))
	})
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "a.jpg", displayName("../../a.jpg"))
	assert.Equal(t, "b.png", displayName(`dir\b.png`))
	assert.Equal(t, "image", displayName(""))
}

func TestHealthService_Check(t *testing.T) {
	ctx := context.Background()

	repo := new(MockHealthRepository)
	repo.On("Ping", ctx).Return(nil).Once()
	repo.On("CountTables", ctx).Return(2, nil).Once()

	status, err := NewHealthService(repo).Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, HealthStatus{Status: "ok", Database: "up", Tables: 2}, status)

	repo.On("Ping", ctx).Return(errors.New("refused")).Once()

	status, err = NewHealthService(repo).Check(ctx)
	require.Error(t, err)
	assert.Equal(t, "down", status.Database)
}
