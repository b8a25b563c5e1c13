package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//
// --- Image Upload Handler ---
//

const maxUploadSize = 5 << 20 // 5 MB

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// UploadImage is the handler for POST /v1/upload. Stores the file on local
// disk under a random name and returns the public URL to attach to a listing.
func (h *Handlers) UploadImage(c *gin.Context) {
	// 1. --- Read the File ---
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An image file is required"})
		return
	}
	if file.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image must be 5 MB or smaller"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only jpg, jpeg, png and webp images are allowed"})
		return
	}

	// 2. --- Save Under a Random Name ---
	if err := os.MkdirAll(h.Config.Upload.Dir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare upload directory"})
		return
	}

	filename := uuid.New().String() + ext
	dst := filepath.Join(h.Config.Upload.Dir, filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"url": h.Config.Server.PublicBaseURL + "/uploads/" + filename,
	})
}
