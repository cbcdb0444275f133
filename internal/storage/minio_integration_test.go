//go:build integration

package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"listingboard/internal/config"
)

const (
	minioUser     = "minioadmin"
	minioPassword = "minioadmin-secret"
)

func startMinIO(t *testing.T) *MinIOClient {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			Cmd:          []string{"server", "/data"},
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioPassword,
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").
				WithPort("9000/tcp").
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)
	endpoint := host + ":" + port.Port()

	client, err := NewMinIOClient(ctx, config.MinIO{
		Endpoint:   endpoint,
		AccessKey:  minioUser,
		SecretKey:  minioPassword,
		BucketName: "listing-images",
		Region:     "us-east-1",
		PublicURL:  "http://" + endpoint,
	})
	require.NoError(t, err)
	return client
}

func TestMinIOClient(t *testing.T) {
	store := startMinIO(t)
	ctx := context.Background()
	key := "listings/1/1700000000000-abc-front.png"

	url, err := store.Upload(ctx, key, strings.NewReader("png-bytes"), 9, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "/listing-images/"+key))

	t.Run("object is publicly readable", func(t *testing.T) {
		resp, err := http.Get(url)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "png-bytes", string(body))
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	})

	t.Run("existing key is not overwritten", func(t *testing.T) {
		_, err := store.Upload(ctx, key, strings.NewReader("other"), 5, "image/png")
		assert.True(t, errors.Is(err, ErrObjectExists))

		resp, err := http.Get(url)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "png-bytes", string(body))
	})

	t.Run("remove by url", func(t *testing.T) {
		got, ok := store.KeyFromURL(url)
		require.True(t, ok)
		assert.Equal(t, key, got)

		require.NoError(t, store.Remove(ctx, got))
		require.NoError(t, store.Remove(ctx, got), "missing key")

		_, err := store.Upload(ctx, key, strings.NewReader("again"), 5, "image/png")
		assert.NoError(t, err)
	})

	t.Run("bucket setup is idempotent", func(t *testing.T) {
		assert.NoError(t, store.EnsureBucket(ctx))
	})
}
