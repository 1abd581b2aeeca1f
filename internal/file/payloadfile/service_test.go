package payloadfile

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/devcircularity/commerce-backend/internal/config"
	"github.com/devcircularity/commerce-backend/internal/file/domain"
	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const cmsHost = "http://payload.local"

func newTestService(t *testing.T) *Service {
	t.Helper()

	httpClient := &http.Client{}
	gock.InterceptClient(httpClient)
	t.Cleanup(func() { gock.Off() })

	return NewService(config.Payload{
		URL:        cmsHost,
		APIKey:     "key-1",
		Collection: "media",
	}, httpClient, zap.NewNop())
}

func TestUpload(t *testing.T) {
	svc := newTestService(t)

	gock.New(cmsHost).
		Post("/api/media").
		MatchHeader("Authorization", "users API-Key key-1").
		Reply(201).
		JSON(map[string]any{
			"doc": map[string]string{
				"id":  "doc-1",
				"url": "https://cdn.example.com/media/doc-1.png",
			},
		})

	result, err := svc.Upload(context.Background(), domain.File{
		Content:  []byte("png-bytes"),
		Filename: "logo.png",
		MimeType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", result.Key)
	assert.Equal(t, "https://cdn.example.com/media/doc-1.png", result.URL)
	assert.True(t, gock.IsDone())
}

func TestUploadErrorWrapsResponseBody(t *testing.T) {
	svc := newTestService(t)

	gock.New(cmsHost).
		Post("/api/media").
		Reply(403).
		JSON(map[string]string{"error": "invalid api key"})

	_, err := svc.Upload(context.Background(), domain.File{
		Content:  []byte("data"),
		Filename: "doc.txt",
	})
	require.Error(t, err)

	var storage *domain.StorageError
	require.True(t, errors.As(err, &storage))
	assert.Contains(t, storage.Body, "invalid api key")
}

func TestUploadMissingDocumentID(t *testing.T) {
	svc := newTestService(t)

	gock.New(cmsHost).
		Post("/api/media").
		Reply(201).
		JSON(map[string]any{"doc": map[string]string{}})

	_, err := svc.Upload(context.Background(), domain.File{Filename: "doc.txt"})
	require.Error(t, err)

	var storage *domain.StorageError
	assert.True(t, errors.As(err, &storage))
}

func TestDelete(t *testing.T) {
	svc := newTestService(t)

	gock.New(cmsHost).
		Delete("/api/media/doc-1").
		MatchHeader("Authorization", "users API-Key key-1").
		Reply(200).
		JSON(map[string]string{"id": "doc-1"})

	require.NoError(t, svc.Delete(context.Background(), "doc-1"))
	assert.True(t, gock.IsDone())
}

func TestDeleteFailure(t *testing.T) {
	svc := newTestService(t)

	gock.New(cmsHost).
		Delete("/api/media/doc-1").
		Reply(404).
		JSON(map[string]string{"error": "not found"})

	err := svc.Delete(context.Background(), "doc-1")
	require.Error(t, err)

	var storage *domain.StorageError
	require.True(t, errors.As(err, &storage))
	assert.Contains(t, storage.Body, "not found")
}

func TestGetPresignedDownloadURL(t *testing.T) {
	svc := newTestService(t)

	gock.New(cmsHost).
		Get("/api/media/doc-1").
		Reply(200).
		JSON(map[string]string{
			"id":  "doc-1",
			"url": "https://cdn.example.com/media/doc-1.png",
		})

	url, err := svc.GetPresignedDownloadURL(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/media/doc-1.png", url)
}

func TestGetDownloadStream(t *testing.T) {
	svc := newTestService(t)

	gock.New(cmsHost).
		Get("/api/media/doc-1").
		Reply(200).
		JSON(map[string]string{
			"id":  "doc-1",
			"url": "https://cdn.example.com/media/doc-1.png",
		})
	gock.New("https://cdn.example.com").
		Get("/media/doc-1.png").
		Reply(200).
		BodyString("png-bytes")

	stream, err := svc.GetDownloadStream(context.Background(), "doc-1")
	require.NoError(t, err)
	defer stream.Close()

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.True(t, gock.IsDone())
}

func TestGetDownloadStreamUnknownKey(t *testing.T) {
	svc := newTestService(t)

	gock.New(cmsHost).
		Get("/api/media/missing").
		Reply(404).
		JSON(map[string]string{"error": "not found"})

	_, err := svc.GetDownloadStream(context.Background(), "missing")
	require.Error(t, err)

	var storage *domain.StorageError
	assert.True(t, errors.As(err, &storage))
}

func TestUploadStreamDescriptor(t *testing.T) {
	svc := newTestService(t)

	gock.New(cmsHost).
		Post("/api/media").
		Reply(201).
		JSON(map[string]any{
			"doc": map[string]string{
				"id":  "doc-2",
				"url": "https://cdn.example.com/media/doc-2.csv",
			},
		})

	descriptor := svc.GetUploadStreamDescriptor(domain.StreamMeta{
		Name:     "export.csv",
		MimeType: "text/csv",
	})

	_, err := descriptor.WriteCloser.Write([]byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.NoError(t, descriptor.WriteCloser.Close())

	result, err := descriptor.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "doc-2", result.Key)
}

func TestUploadStreamWriteAfterClose(t *testing.T) {
	svc := newTestService(t)

	descriptor := svc.GetUploadStreamDescriptor(domain.StreamMeta{Name: "x"})
	require.NoError(t, descriptor.WriteCloser.Close())

	_, err := descriptor.WriteCloser.Write([]byte("late"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestUploadStreamResultHonorsContext(t *testing.T) {
	svc := newTestService(t)

	descriptor := svc.GetUploadStreamDescriptor(domain.StreamMeta{Name: "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := descriptor.Result(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
