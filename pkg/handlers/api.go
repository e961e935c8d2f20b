package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sitecms/pkg/content"
	"sitecms/pkg/models"
)

// knownPage reports whether page may be edited. Without configured pages
// every page is allowed.
func (h *Handler) knownPage(page, key string) bool {
	if h.CMS == nil || len(h.CMS.Pages) == 0 {
		return true
	}
	p, ok := h.CMS.FindPage(page)
	if !ok {
		return false
	}
	return key == "" || p.HasSection(key)
}

func (h *Handler) GetContent(c *gin.Context) {
	page := c.Param("page")
	if !h.knownPage(page, "") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown page: " + page})
		return
	}
	pc, err := h.Store.Fetch(c.Request.Context(), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pc)
}

// PersistContent writes one locale of one section directly. Store failures
// are reported in the body, not the status.
func (h *Handler) PersistContent(c *gin.Context) {
	var req models.PersistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON: "+err.Error())
		return
	}
	locale, err := content.ParseLocale(req.Locale)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if !h.knownPage(req.Page, req.Key) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown section: " + req.Page + "/" + req.Key})
		return
	}

	if err := h.Sessions.Persist(c.Request.Context(), req.Page, req.Key, locale, req.Content); err != nil {
		h.Log.Warn("persist failed", zap.String("page", req.Page), zap.String("section", req.Key), zap.Error(err))
		c.JSON(http.StatusOK, models.PersistResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.PersistResponse{Success: true})
}

func (h *Handler) ListPages(c *gin.Context) {
	stored, err := h.Store.ListPages(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	seen := map[string]bool{}
	pages := []string{}
	for _, p := range stored {
		if !seen[p] {
			seen[p] = true
			pages = append(pages, p)
		}
	}
	if h.CMS != nil {
		for _, p := range h.CMS.Pages {
			if !seen[p.Name] {
				seen[p.Name] = true
				pages = append(pages, p.Name)
			}
		}
	}
	sort.Strings(pages)
	c.JSON(http.StatusOK, gin.H{"pages": pages})
}

func (h *Handler) GetConfig(c *gin.Context) {
	cfg := models.CMSConfig{}
	if h.CMS != nil {
		cfg = *h.CMS
	}
	cfg.Locales = make([]string, 0, len(h.Locales))
	for _, l := range h.Locales {
		cfg.Locales = append(cfg.Locales, string(l))
	}
	if cfg.PublicFolder == "" {
		cfg.PublicFolder = h.MediaPublicPath
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) HandleSync(c *gin.Context) {
	if h.Git == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Content is not in a git repository"})
		return
	}
	log, err := h.Git.Sync(c.Request.Context(), accessToken(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "log": log})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "log": log})
}

func (h *Handler) HandlePublish(c *gin.Context) {
	if h.Git == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Content is not in a git repository"})
		return
	}
	log, err := h.Git.Publish(c.Request.Context(), accessToken(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "log": log})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "log": log})
}
