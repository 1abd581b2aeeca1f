package payloadfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/devcircularity/commerce-backend/internal/config"
	"github.com/devcircularity/commerce-backend/internal/file/domain"
	"go.uber.org/zap"
)

// Identifier is the provider id the host framework dispatches on.
const Identifier = "payload-file"

// Service proxies file operations to a Payload CMS instance, which stores
// the actual assets in a CDN and serves public URLs.
type Service struct {
	httpClient *http.Client
	cfg        config.Payload
	log        *zap.Logger
}

func NewService(cfg config.Payload, httpClient *http.Client, log *zap.Logger) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	collection := strings.TrimSpace(cfg.Collection)
	if collection == "" {
		cfg.Collection = "media"
	}
	return &Service{
		httpClient: httpClient,
		cfg:        cfg,
		log:        log.Named("file.payload"),
	}
}

func (s *Service) Identifier() string {
	return Identifier
}

type uploadResponse struct {
	Doc struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"doc"`
}

type document struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Upload multipart-encodes the file and posts it to the configured
// collection. The response document's URL is already a public CDN URL.
func (s *Service) Upload(ctx context.Context, file domain.File) (*domain.UploadResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Filename)}
	header["Content-Type"] = []string{mimeOrDefault(file.MimeType)}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, &domain.StorageError{Op: "upload", Err: err}
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, &domain.StorageError{Op: "upload", Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &domain.StorageError{Op: "upload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.collectionURL(), body)
	if err != nil {
		return nil, &domain.StorageError{Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	s.setAuth(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &domain.StorageError{Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.StorageError{Op: "upload", Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, &domain.StorageError{Op: "upload", Body: strings.TrimSpace(string(data))}
	}

	var parsed uploadResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &domain.StorageError{Op: "upload", Err: fmt.Errorf("decode response: %w", err)}
	}
	if parsed.Doc.ID == "" {
		return nil, &domain.StorageError{Op: "upload", Body: "response missing document id"}
	}

	s.log.Info("file uploaded",
		zap.String("key", parsed.Doc.ID),
		zap.String("filename", file.Filename),
		zap.Int("size", len(file.Content)),
	)

	return &domain.UploadResult{URL: parsed.Doc.URL, Key: parsed.Doc.ID}, nil
}

// UploadProtected currently behaves like Upload; differentiated access
// control is an extension point on the Payload side.
func (s *Service) UploadProtected(ctx context.Context, file domain.File) (*domain.UploadResult, error) {
	return s.Upload(ctx, file)
}

// Delete removes the document from the collection.
func (s *Service) Delete(ctx context.Context, fileKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.documentURL(fileKey), nil)
	if err != nil {
		return &domain.StorageError{Op: "delete", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	s.setAuth(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &domain.StorageError{Op: "delete", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &domain.StorageError{Op: "delete", Body: strings.TrimSpace(string(data))}
	}
	return nil
}

// GetUploadStreamDescriptor buffers all written bytes in memory and performs
// the upload when the stream is closed. Large files fully materialize in
// memory before the remote call.
func (s *Service) GetUploadStreamDescriptor(meta domain.StreamMeta) *domain.UploadStreamDescriptor {
	stream := newBufferStream()
	return &domain.UploadStreamDescriptor{
		WriteCloser: stream,
		Result: func(ctx context.Context) (*domain.UploadResult, error) {
			select {
			case <-stream.closed:
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			file := domain.File{
				Content:  stream.bytes(),
				Filename: meta.Name,
				MimeType: mimeOrDefault(meta.MimeType),
			}
			if meta.IsProtected {
				return s.UploadProtected(ctx, file)
			}
			return s.Upload(ctx, file)
		},
	}
}

// GetDownloadStream resolves the document's public URL and streams its body.
func (s *Service) GetDownloadStream(ctx context.Context, fileKey string) (io.ReadCloser, error) {
	doc, err := s.getDocument(ctx, fileKey)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.URL, nil)
	if err != nil {
		return nil, &domain.StorageError{Op: "download", Err: err}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &domain.StorageError{Op: "download", Err: err}
	}
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &domain.StorageError{Op: "download", Body: strings.TrimSpace(string(data))}
	}
	return resp.Body, nil
}

// GetPresignedDownloadURL returns the document's public URL directly; the
// CDN serves public URLs and no signing takes place.
func (s *Service) GetPresignedDownloadURL(ctx context.Context, fileKey string) (string, error) {
	doc, err := s.getDocument(ctx, fileKey)
	if err != nil {
		return "", err
	}
	return doc.URL, nil
}

func (s *Service) getDocument(ctx context.Context, fileKey string) (*document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.documentURL(fileKey), nil)
	if err != nil {
		return nil, &domain.StorageError{Op: "resolve document", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	s.setAuth(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &domain.StorageError{Op: "resolve document", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.StorageError{Op: "resolve document", Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, &domain.StorageError{Op: "resolve document", Body: strings.TrimSpace(string(data))}
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &domain.StorageError{Op: "resolve document", Err: fmt.Errorf("decode response: %w", err)}
	}
	if doc.URL == "" {
		return nil, &domain.StorageError{Op: "resolve document", Body: "document missing url"}
	}
	return &doc, nil
}

func (s *Service) collectionURL() string {
	return fmt.Sprintf("%s/api/%s", strings.TrimSuffix(s.cfg.URL, "/"), s.cfg.Collection)
}

func (s *Service) documentURL(fileKey string) string {
	return fmt.Sprintf("%s/%s", s.collectionURL(), fileKey)
}

func (s *Service) setAuth(req *http.Request) {
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "users API-Key "+s.cfg.APIKey)
	}
}

func mimeOrDefault(mimeType string) string {
	if strings.TrimSpace(mimeType) == "" {
		return "application/octet-stream"
	}
	return mimeType
}

type bufferStream struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed chan struct{}
	once   sync.Once
}

func newBufferStream() *bufferStream {
	return &bufferStream{closed: make(chan struct{})}
}

func (b *bufferStream) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case <-b.closed:
		return 0, io.ErrClosedPipe
	default:
	}
	return b.buf.Write(p)
}

func (b *bufferStream) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

func (b *bufferStream) bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}
