package server

import (
	"io"
	"net/http"
	"strings"

	filedomain "github.com/devcircularity/commerce-backend/internal/file/domain"
	"github.com/gin-gonic/gin"
)

// UploadFile accepts a multipart upload and forwards it to the file provider.
func (s *Server) UploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	opened, err := fileHeader.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer opened.Close()

	content, err := io.ReadAll(opened)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.fileSvc.Upload(c.Request.Context(), filedomain.File{
		Content:  content,
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"url": result.URL, "key": result.Key}})
}

// DeleteFile removes an uploaded asset by key.
func (s *Server) DeleteFile(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.fileSvc.Delete(c.Request.Context(), key); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"key": key, "deleted": true}})
}

// GetFileDownloadURL resolves an asset's public URL.
func (s *Server) GetFileDownloadURL(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	url, err := s.fileSvc.GetPresignedDownloadURL(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"url": url}})
}
