package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sitecms/pkg/content"
	"sitecms/pkg/models"
	"sitecms/pkg/services"
)

// Handler holds what the HTTP API serves from.
type Handler struct {
	Store    services.Store
	Sessions *services.SessionManager
	Media    *services.MediaStore
	// Git is nil unless the content directory is a git work tree.
	Git     *services.GitRepo
	CMS     *models.CMSConfig
	Locales []content.Locale
	Log     *zap.Logger

	AuthDisabled bool
	// SessionSecret signs the auth cookie.
	SessionSecret string
	// MediaPublicPath is where Media.Dir is served.
	MediaPublicPath string
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(h *Handler) *gin.Engine {
	if h.Log == nil {
		h.Log = zap.NewNop()
	}
	r := gin.New()
	r.Use(RequestLogger(h.Log), gin.Recovery())

	store := cookie.NewStore([]byte(h.SessionSecret))
	r.Use(sessions.Sessions("sitecms", store))

	if h.Media != nil && h.MediaPublicPath != "" {
		r.Static(h.MediaPublicPath, h.Media.Dir)
	}

	// --- Auth Routes ---
	r.GET("/login/github", GithubLogin)
	r.GET("/auth/callback", AuthCallback)
	r.GET("/logout", Logout)

	api := r.Group("/api")
	api.Use(h.AuthRequired)
	{
		api.GET("/content/:page", h.GetContent)
		api.PATCH("/content", h.PersistContent)
		api.GET("/pages", h.ListPages)
		api.GET("/config", h.GetConfig)

		api.POST("/upload", h.UploadMedia)
		api.GET("/media", h.ListMedia)
		api.DELETE("/media", h.DeleteMedia)

		api.POST("/sessions", h.OpenSession)
		api.DELETE("/sessions/:id", h.CloseSession)
		api.POST("/sessions/:id/resync", h.ResyncSession)
		api.GET("/sessions/:id/:locale", h.GetDraft)
		api.PATCH("/sessions/:id/:locale", h.PatchDraft)
		api.POST("/sessions/:id/:locale/items", h.AddItem)
		api.DELETE("/sessions/:id/:locale/items", h.RemoveItem)
		api.POST("/sessions/:id/:locale/upload", h.UploadImage)
		api.GET("/sessions/:id/:locale/changes", h.GetChanges)
		api.POST("/sessions/:id/:locale/save", h.SaveDraft)

		api.POST("/sync", h.HandleSync)
		api.POST("/publish", h.HandlePublish)
	}
	return r
}

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Debug("request", fields...)
		}
	}
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, content.ErrUnknownLocale),
		errors.Is(err, content.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, content.ErrNotEditable):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidName),
		errors.Is(err, services.ErrUnsupportedMedia),
		errors.Is(err, content.ErrIndexOutOfRange):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusOf(err)
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
