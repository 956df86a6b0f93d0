package v1

import (
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/sagechat/ai/prompt"
	"github.com/hrygo/sagechat/store"
)

type sendMessageRequest struct {
	Text   string `json:"text"`
	Mood   string `json:"mood"`
	Detail int    `json:"detail"`
}

type sendMessageResponse struct {
	Turn   store.Turn `json:"turn"`
	Failed bool       `json:"failed"`
}

type uploadResponse struct {
	Turns []store.Turn `json:"turns"`
	Error string       `json:"error,omitempty"`
}

type previewResponse struct {
	Preview string `json:"preview"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

type historyResponse struct {
	SessionID string       `json:"session_id"`
	Turns     []store.Turn `json:"turns"`
}

func (s *APIV1Service) handleSendMessage(c echo.Context) error {
	start := time.Now()

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	session := s.session(c)
	session.Lock()
	defer session.Unlock()

	turn := s.Chat.SendMessage(c.Request().Context(), session, req.Text, prompt.Persona{
		Mood:   prompt.Mood(req.Mood),
		Detail: req.Detail,
	})

	s.Chat.Metrics.ObserveRequest("send_message", statusLabel(turn.Failed), time.Since(start))
	return c.JSON(http.StatusOK, sendMessageResponse{Turn: turn, Failed: turn.Failed})
}

func (s *APIV1Service) handleUploadFiles(c echo.Context) error {
	start := time.Now()

	files, persona, err := s.uploadForm(c)
	if err != nil {
		return err
	}

	session := s.session(c)
	session.Lock()
	defer session.Unlock()

	turns, uploadErr := s.Chat.UploadFiles(c.Request().Context(), session, files, persona)
	resp := uploadResponse{Turns: turns}
	if uploadErr != nil {
		// Batch aborted on a hard read failure; the error text is the reply.
		resp.Error = "Error reading file(s): " + uploadErr.Error()
	}

	s.Chat.Metrics.ObserveRequest("upload_files", statusLabel(uploadErr != nil), time.Since(start))
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) handlePreviewFiles(c echo.Context) error {
	start := time.Now()

	files, _, err := s.uploadForm(c)
	if err != nil {
		return err
	}

	preview := s.Chat.PreviewFiles(files)
	s.Chat.Metrics.ObserveRequest("preview_files", "ok", time.Since(start))
	return c.JSON(http.StatusOK, previewResponse{Preview: preview})
}

func (s *APIV1Service) handleSummarize(c echo.Context) error {
	start := time.Now()

	session := s.session(c)
	session.Lock()
	defer session.Unlock()

	summaryText, err := s.Chat.Summarize(c.Request().Context(), session)
	if err != nil {
		// Same fail-soft presentation as chat replies.
		summaryText = "OpenAI API Error: " + err.Error()
	}

	s.Chat.Metrics.ObserveRequest("summarize", statusLabel(err != nil), time.Since(start))
	return c.JSON(http.StatusOK, summaryResponse{Summary: summaryText})
}

func (s *APIV1Service) handleExport(c echo.Context) error {
	start := time.Now()

	session := s.session(c)
	session.Lock()
	defer session.Unlock()

	path, err := s.Chat.Export(session)
	if err != nil {
		s.Chat.Metrics.ObserveRequest("export", "error", time.Since(start))
		return echo.NewHTTPError(http.StatusInternalServerError, "export failed")
	}

	s.Chat.Metrics.ObserveRequest("export", "ok", time.Since(start))
	return c.Attachment(path, filepath.Base(path))
}

func (s *APIV1Service) handleReset(c echo.Context) error {
	start := time.Now()

	session := s.session(c)
	session.Lock()
	defer session.Unlock()

	s.Chat.Reset(session)
	s.Chat.Metrics.ObserveRequest("reset", "ok", time.Since(start))
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) handleHistory(c echo.Context) error {
	session := s.session(c)
	session.Lock()
	defer session.Unlock()

	return c.JSON(http.StatusOK, historyResponse{
		SessionID: session.ID,
		Turns:     session.Conversation.Turns(),
	})
}

// uploadForm extracts the multipart file batch and persona controls.
func (s *APIV1Service) uploadForm(c echo.Context) ([]UploadedFile, prompt.Persona, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, prompt.Persona{}, echo.NewHTTPError(http.StatusBadRequest, "multipart form required")
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return nil, prompt.Persona{}, echo.NewHTTPError(http.StatusBadRequest, "no files uploaded")
	}

	files := make([]UploadedFile, 0, len(headers))
	for _, header := range headers {
		files = append(files, uploadedFile(header))
	}

	detail, _ := strconv.Atoi(c.FormValue("detail"))
	persona := prompt.Persona{
		Mood:   prompt.Mood(c.FormValue("mood")),
		Detail: detail,
	}
	return files, persona, nil
}

func uploadedFile(header *multipart.FileHeader) UploadedFile {
	return UploadedFile{
		Name: header.Filename,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}

func statusLabel(failed bool) string {
	if failed {
		return "error"
	}
	return "ok"
}
