package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sitecms/pkg/content"
	"sitecms/pkg/models"
	"sitecms/pkg/services"
)

func (h *Handler) OpenSession(c *gin.Context) {
	var req models.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON: "+err.Error())
		return
	}
	if !h.knownPage(req.Page, req.Key) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown section: " + req.Page + "/" + req.Key})
		return
	}
	s, err := h.Sessions.Open(c.Request.Context(), req.Page, req.Key)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.OpenSessionResponse{
		ID:      s.ID,
		Page:    req.Page,
		Key:     req.Key,
		Locales: s.Controller.Locales(),
	})
}

func (h *Handler) CloseSession(c *gin.Context) {
	if err := h.Sessions.Close(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

func (h *Handler) ResyncSession(c *gin.Context) {
	s, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := s.Controller.Resync(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// sessionLocale resolves the :id and :locale parameters. It writes the
// error response itself.
func (h *Handler) sessionLocale(c *gin.Context) (*services.Session, content.Locale, bool) {
	s, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return nil, "", false
	}
	locale, err := content.ParseLocale(c.Param("locale"))
	if err != nil {
		badRequest(c, err.Error())
		return nil, "", false
	}
	return s, locale, true
}

func (h *Handler) draftResponse(c *gin.Context, s *services.Session, locale content.Locale) {
	d, err := s.Controller.Draft(locale)
	if err != nil {
		h.fail(c, err)
		return
	}
	w, err := s.Controller.Render(locale)
	if err != nil {
		h.fail(c, err)
		return
	}
	dirty, err := s.Controller.Dirty(locale)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DraftResponse{Locale: locale, Dirty: dirty, Root: d.Root, Widget: w})
}

func (h *Handler) GetDraft(c *gin.Context) {
	s, locale, ok := h.sessionLocale(c)
	if !ok {
		return
	}
	h.draftResponse(c, s, locale)
}

func (h *Handler) PatchDraft(c *gin.Context) {
	s, locale, ok := h.sessionLocale(c)
	if !ok {
		return
	}
	var req models.PatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON: "+err.Error())
		return
	}
	if _, err := s.Controller.Patch(locale, req.Path, req.Value); err != nil {
		h.fail(c, err)
		return
	}
	h.draftResponse(c, s, locale)
}

// widgetAt renders locale's draft and finds the widget at path.
func (h *Handler) widgetAt(c *gin.Context, s *services.Session, locale content.Locale, path content.Path) (*content.Widget, bool) {
	root, err := s.Controller.Render(locale)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	w, found := root.Find(path)
	if !found {
		h.fail(c, content.ErrNotFound)
		return nil, false
	}
	return w, true
}

func (h *Handler) AddItem(c *gin.Context) {
	s, locale, ok := h.sessionLocale(c)
	if !ok {
		return
	}
	var req models.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON: "+err.Error())
		return
	}
	w, ok := h.widgetAt(c, s, locale, req.Path)
	if !ok {
		return
	}
	if err := w.AddItem(); err != nil {
		h.fail(c, err)
		return
	}
	h.draftResponse(c, s, locale)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	s, locale, ok := h.sessionLocale(c)
	if !ok {
		return
	}
	var req models.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON: "+err.Error())
		return
	}
	w, ok := h.widgetAt(c, s, locale, req.Path)
	if !ok {
		return
	}
	if err := w.Remove(); err != nil {
		h.fail(c, err)
		return
	}
	h.draftResponse(c, s, locale)
}

// UploadImage stores the uploaded file and writes its URL into the image
// field at path. A failed upload leaves the draft unchanged.
func (h *Handler) UploadImage(c *gin.Context) {
	s, locale, ok := h.sessionLocale(c)
	if !ok {
		return
	}
	path, err := content.ParsePath(c.PostForm("path"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
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

	w, ok := h.widgetAt(c, s, locale, path)
	if !ok {
		return
	}
	url, err := w.Upload(c.Request.Context(), fh.Filename, f)
	if err != nil {
		h.Log.Warn("image upload failed", zap.String("session", s.ID), zap.String("path", path.String()), zap.Error(err))
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UploadResponse{URL: url})
}

func (h *Handler) GetChanges(c *gin.Context) {
	s, locale, ok := h.sessionLocale(c)
	if !ok {
		return
	}
	changes, err := s.Controller.Changes(locale)
	if err != nil {
		h.fail(c, err)
		return
	}
	raw, err := s.Controller.MergePatch(locale)
	if err != nil {
		h.fail(c, err)
		return
	}
	var patch content.Node
	if err := json.Unmarshal(raw, &patch); err != nil {
		h.fail(c, err)
		return
	}
	if changes == nil {
		changes = []content.Change{}
	}
	c.JSON(http.StatusOK, models.ChangesResponse{Locale: locale, Changes: changes, MergePatch: patch})
}

func (h *Handler) SaveDraft(c *gin.Context) {
	s, locale, ok := h.sessionLocale(c)
	if !ok {
		return
	}
	if err := h.Sessions.Save(c.Request.Context(), s, locale); err != nil {
		if statusOf(err) == http.StatusNotFound {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, models.PersistResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.PersistResponse{Success: true})
}
