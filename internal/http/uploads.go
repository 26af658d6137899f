package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"smartcare/internal/core"
	"smartcare/pkg"

	"github.com/gin-gonic/gin"
)

type uploadedFile struct {
	ID           int64  `json:"id"`
	OriginalName string `json:"originalName"`
	FileType     string `json:"fileType"`
	FileSize     int64  `json:"fileSize"`
	UploadPath   string `json:"uploadPath"`
}

func toUpload(fh *multipart.FileHeader) core.Upload {
	return core.Upload{
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// handleUpload accepts multipart field "sessionId" and up to five "files".
func (s *Server) handleUpload(c *gin.Context) {
	var (
		sessionID string
		files     []core.Upload
	)
	form, err := c.MultipartForm()
	switch {
	case err == nil:
		defer func() { _ = form.RemoveAll() }()
		if v := form.Value["sessionId"]; len(v) > 0 {
			sessionID = v[0]
		}
		for _, fh := range form.File["files"] {
			files = append(files, toUpload(fh))
		}
	case isTooLarge(err):
		s.fail(c, pkg.Validationf("File too large. Maximum size is 10MB."))
		return
	}

	saved, err := s.Uploads.Save(c.Request.Context(), sessionID, files)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]uploadedFile, 0, len(saved))
	for _, f := range saved {
		out = append(out, uploadedFile{
			ID:           f.ID,
			OriginalName: f.OriginalName,
			FileType:     f.FileType,
			FileSize:     f.FileSize,
			UploadPath:   f.UploadPath,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "uploadedFiles": out, "message": "Files uploaded successfully"})
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge)
}

func (s *Server) handleSessionFiles(c *gin.Context) {
	sessionID := c.Param("sessionId")
	files, err := s.Uploads.Files(c.Request.Context(), sessionID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "files": files, "message": "Uploaded files retrieved successfully"})
}

func (s *Server) handleGetFile(c *gin.Context) {
	id, ok := s.idParam(c, "fileId", "file")
	if !ok {
		return
	}
	f, err := s.Uploads.File(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": f, "message": "File retrieved successfully"})
}

func (s *Server) handleDeleteFile(c *gin.Context) {
	id, ok := s.idParam(c, "fileId", "file")
	if !ok {
		return
	}
	if err := s.Uploads.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}
