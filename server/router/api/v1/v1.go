// Package v1 exposes the chat JSON API.
package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/sagechat/ai/llm"
	"github.com/hrygo/sagechat/ai/metrics"
	"github.com/hrygo/sagechat/ai/summary"
	"github.com/hrygo/sagechat/internal/profile"
	"github.com/hrygo/sagechat/plugin/docextract"
	"github.com/hrygo/sagechat/store"
)

// sessionCookie identifies the browser session owning a conversation.
const sessionCookie = "sagechat_session"

// APIV1Service wires the chat service and session management into echo.
type APIV1Service struct {
	Profile  *profile.Profile
	Chat     *ChatService
	Sessions *store.SessionManager
}

// NewAPIV1Service assembles the chat service from its parts.
func NewAPIV1Service(p *profile.Profile, llmService llm.Service, sessions *store.SessionManager) *APIV1Service {
	return &APIV1Service{
		Profile:  p,
		Sessions: sessions,
		Chat: &ChatService{
			Profile:    p,
			LLM:        llmService,
			Extractor:  docextract.New(p.ExcerptLimit),
			Summarizer: summary.NewSummarizer(llmService),
			QueryLog:   store.NewQueryLog(p.Data),
			Exporter:   store.NewExporter(p.Data),
			Metrics:    metrics.NewExporter(),
		},
	}
}

// RegisterRoutes mounts the API under /api/v1.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1", s.sessionMiddleware)
	g.POST("/chat/message", s.handleSendMessage)
	g.POST("/chat/files", s.handleUploadFiles)
	g.POST("/chat/files/preview", s.handlePreviewFiles)
	g.POST("/chat/summary", s.handleSummarize)
	g.POST("/chat/export", s.handleExport)
	g.POST("/chat/reset", s.handleReset)
	g.GET("/chat/history", s.handleHistory)

	e.GET("/metrics", echo.WrapHandler(s.Chat.Metrics.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

// sessionMiddleware resolves the session cookie, creating a session on
// first contact. The resolved session is stashed in the request context.
func (s *APIV1Service) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var session *store.Session
		if cookie, err := c.Cookie(sessionCookie); err == nil {
			session = s.Sessions.Get(cookie.Value)
		}
		if session == nil {
			session = s.Sessions.Create()
			c.SetCookie(&http.Cookie{
				Name:     sessionCookie,
				Value:    session.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Expires:  time.Now().Add(24 * time.Hour),
			})
		}
		c.Set("session", session)
		return next(c)
	}
}

func (s *APIV1Service) session(c echo.Context) *store.Session {
	return c.Get("session").(*store.Session)
}
