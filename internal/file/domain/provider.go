package domain

import (
	"context"
	"fmt"
	"io"
)

// File is an asset handed over by the host framework for upload.
type File struct {
	Content  []byte
	Filename string
	MimeType string
}

// UploadResult points at the stored asset.
type UploadResult struct {
	URL string
	Key string
}

// UploadStreamDescriptor exposes a write destination whose bytes are uploaded
// once the stream is closed. Result blocks until the upload settles.
type UploadStreamDescriptor struct {
	WriteCloser io.WriteCloser
	Result      func(ctx context.Context) (*UploadResult, error)
}

// StreamMeta describes a streamed upload before its bytes arrive.
type StreamMeta struct {
	Name        string
	MimeType    string
	IsProtected bool
}

// Provider is the file-provider contract the host framework drives.
type Provider interface {
	Identifier() string

	Upload(ctx context.Context, file File) (*UploadResult, error)
	UploadProtected(ctx context.Context, file File) (*UploadResult, error)
	Delete(ctx context.Context, fileKey string) error
	GetUploadStreamDescriptor(meta StreamMeta) *UploadStreamDescriptor
	GetDownloadStream(ctx context.Context, fileKey string) (io.ReadCloser, error)
	GetPresignedDownloadURL(ctx context.Context, fileKey string) (string, error)
}

// StorageError marks a failed call against the file backend. It is always
// propagated to the caller.
type StorageError struct {
	Op   string
	Body string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Body)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
