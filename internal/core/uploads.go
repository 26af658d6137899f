package core

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"smartcare/pkg"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Upload limits.
const (
	MaxUploadFiles = 5
	MaxUploadSize  = 10 << 20
)

var allowedUploadTypes = map[string]bool{
	"image/jpeg":         true,
	"image/jpg":          true,
	"image/png":          true,
	"image/gif":          true,
	"application/pdf":    true,
	"text/plain":         true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// Upload is one file received from a client.
type Upload struct {
	OriginalName string
	ContentType  string
	Size         int64
	Open         func() (io.ReadCloser, error)
}

// UploadService stores medical files attached to chat sessions.
type UploadService struct {
	Store  FileStore
	Blobs  BlobStorage
	Logger *zap.Logger
}

// NewUploadService constructs a new UploadService.
func NewUploadService(store FileStore, blobs BlobStorage, logger *zap.Logger) *UploadService {
	return &UploadService{Store: store, Blobs: blobs, Logger: logger}
}

// ValidateUploads checks the batch limits and the type of every file.
func ValidateUploads(files []Upload) error {
	if len(files) == 0 {
		return pkg.Validationf("No files uploaded")
	}
	if len(files) > MaxUploadFiles {
		return pkg.Validationf("Too many files. Maximum is 5 files.")
	}
	for _, f := range files {
		if f.Size > MaxUploadSize {
			return pkg.Validationf("File too large. Maximum size is 10MB.")
		}
		if !allowedUploadTypes[mediaType(f.ContentType)] {
			return pkg.Validationf("Invalid file type. Only images, PDFs, and documents are allowed.")
		}
	}
	return nil
}

// mediaType drops parameters such as "; charset=utf-8".
func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// Save validates and stores a batch of files for sessionID. The batch is all
// or nothing: when one file fails, the files already stored are removed again
// and only the error is returned.
func (s *UploadService) Save(ctx context.Context, sessionID string, files []Upload) ([]pkg.UploadedFile, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkg.Validationf("Session ID is required")
	}
	if err := ValidateUploads(files); err != nil {
		return nil, err
	}
	if _, err := s.Store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	saved := make([]pkg.UploadedFile, 0, len(files))
	for _, f := range files {
		uf, err := s.store(ctx, sessionID, f)
		if err != nil {
			s.discard(context.WithoutCancel(ctx), saved)
			return nil, err
		}
		saved = append(saved, *uf)
	}
	return saved, nil
}

func (s *UploadService) store(ctx context.Context, sessionID string, f Upload) (*pkg.UploadedFile, error) {
	name := "files-" + uuid.NewString() + strings.ToLower(filepath.Ext(f.OriginalName))
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	size, err := s.Blobs.Save(name, rc)
	if err != nil {
		return nil, err
	}
	uf := &pkg.UploadedFile{
		SessionID:    sessionID,
		Filename:     name,
		OriginalName: f.OriginalName,
		FileType:     mediaType(f.ContentType),
		FileSize:     size,
		UploadPath:   "/uploads/" + name,
	}
	if err := s.Store.CreateFile(ctx, uf); err != nil {
		if rmErr := s.Blobs.Remove(name); rmErr != nil {
			s.Logger.Warn("orphaned upload", zap.String("filename", name), zap.Error(rmErr))
		}
		return nil, err
	}
	return uf, nil
}

// discard undoes the part of a batch stored before a failure.
func (s *UploadService) discard(ctx context.Context, files []pkg.UploadedFile) {
	for _, f := range files {
		if err := s.Delete(ctx, f.ID); err != nil {
			s.Logger.Warn("discard partial upload", zap.Int64("file_id", f.ID), zap.String("filename", f.Filename), zap.Error(err))
		}
	}
}

// Files returns a session's files, newest first.
func (s *UploadService) Files(ctx context.Context, sessionID string) ([]pkg.UploadedFile, error) {
	return s.Store.ListFiles(ctx, sessionID)
}

// File returns one file's metadata.
func (s *UploadService) File(ctx context.Context, id int64) (*pkg.UploadedFile, error) {
	return s.Store.GetFile(ctx, id)
}

// Delete removes the stored bytes, then the metadata row. A file already
// missing from disk is not an error.
func (s *UploadService) Delete(ctx context.Context, id int64) error {
	f, err := s.Store.GetFile(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Blobs.Remove(f.Filename); err != nil {
		return err
	}
	return s.Store.DeleteFile(ctx, id)
}
