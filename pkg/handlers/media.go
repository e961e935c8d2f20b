package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"sitecms/pkg/models"
)

func (h *Handler) ListMedia(c *gin.Context) {
	files, err := h.Media.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list media: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, files)
}

func (h *Handler) UploadMedia(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "Unreadable upload")
		return
	}
	defer f.Close()

	url, err := h.Media.Upload(c.Request.Context(), fh.Filename, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UploadResponse{URL: url})
}

func (h *Handler) DeleteMedia(c *gin.Context) {
	var req models.DeleteMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON")
		return
	}

	if err := h.Media.Delete(req.Name); err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No such file: " + req.Name})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to delete: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
