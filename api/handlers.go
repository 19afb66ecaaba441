package api

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/papercomputeco/voiceagent/pkg/agent"
	"github.com/papercomputeco/voiceagent/pkg/uploads"
)

// upload is a multipart file that has been read and staged on disk.
type upload struct {
	contentType string
	data        []byte
	file        *uploads.File
}

// readUpload reads the "file" form field and stages it.
func (s *Server) readUpload(c *fiber.Ctx) (*upload, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "file is required")
	}

	f, err := fh.Open()
	if err != nil {
		s.logger.Error("failed to open upload", zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not read upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.logger.Error("failed to read upload", zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not read upload")
	}

	staged, err := s.stager.Save(fh.Filename, data)
	if err != nil {
		s.logger.Error("failed to stage upload", zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not save upload")
	}

	return &upload{
		contentType: fh.Header.Get("Content-Type"),
		data:        data,
		file:        staged,
	}, nil
}

// fail writes the error response for an agent error. InvalidInput maps to 400
// and everything else to 500. With hideUpstream set, provider details are
// replaced by a generic message; they are always logged.
func (s *Server) fail(c *fiber.Ctx, err error, hideUpstream bool) error {
	kind := agent.KindOf(err)
	status := fiber.StatusInternalServerError
	detail := "Internal server error."

	var agentErr *agent.Error
	if errors.As(err, &agentErr) {
		switch {
		case kind == agent.InvalidInput:
			status = fiber.StatusBadRequest
			detail = agentErr.Detail
		case kind.IsUpstream() && !hideUpstream:
			detail = agentErr.Detail
		}
	}

	fields := []zap.Field{
		zap.String("path", c.Path()),
		zap.Stringer("kind", kind),
		zap.Error(err),
	}
	if status < fiber.StatusInternalServerError {
		s.logger.Warn("request rejected", fields...)
	} else {
		s.logger.Error("request failed", fields...)
	}

	return c.Status(status).JSON(ErrorResponse{Detail: detail})
}

// handleGenerateAudio synthesizes JSON text with the generate-audio voice.
func (s *Server) handleGenerateAudio(c *fiber.Ctx) error {
	var in TextInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Detail: "invalid request body"})
	}

	urls, err := s.agent.SpeakWithVoice(c.Context(), in.Text, s.config.GenerateAudioVoice)
	if err != nil {
		return s.fail(c, err, false)
	}

	var resp AudioResponse
	resp.AudioURL, resp.AudioURLs = audioFields(urls)
	return c.JSON(resp)
}

// handleUploadEcho stages the upload and describes it.
func (s *Server) handleUploadEcho(c *fiber.Ctx) error {
	up, err := s.readUpload(c)
	if err != nil {
		return err
	}

	return c.JSON(UploadEchoResponse{
		Filename:    up.file.Name,
		ContentType: up.contentType,
		Size:        up.file.Size,
	})
}

// handleTranscribeFile returns the transcript of the upload.
func (s *Server) handleTranscribeFile(c *fiber.Ctx) error {
	up, err := s.readUpload(c)
	if err != nil {
		return err
	}

	text, err := s.agent.Transcribe(c.Context(), up.data)
	if err != nil {
		return s.fail(c, err, false)
	}

	return c.JSON(TranscribeResponse{Text: text})
}

// handleTTSEcho reads the transcript of the upload back as speech.
func (s *Server) handleTTSEcho(c *fiber.Ctx) error {
	up, err := s.readUpload(c)
	if err != nil {
		return err
	}

	res, err := s.agent.Echo(c.Context(), up.data)
	if err != nil {
		return s.fail(c, err, false)
	}

	resp := TTSEchoResponse{Transcript: res.Transcript}
	resp.AudioURL, resp.AudioURLs = audioFields(res.AudioURLs)
	return c.JSON(resp)
}

// handleLLMQuery answers one utterance with no session history.
func (s *Server) handleLLMQuery(c *fiber.Ctx) error {
	up, err := s.readUpload(c)
	if err != nil {
		return err
	}

	res, err := s.agent.Query(c.Context(), up.data)
	if err != nil {
		return s.fail(c, err, false)
	}

	resp := QueryResponse{Transcript: res.Transcript, LLMText: res.Reply}
	resp.AudioURL, resp.AudioURLs = audioFields(res.AudioURLs)
	return c.JSON(resp)
}

// handleAgentChat runs one conversational turn for the session in the path.
// Upstream failures are reported with a generic message.
func (s *Server) handleAgentChat(c *fiber.Ctx) error {
	// The store keeps the id; c.Params aliases a buffer fiber reuses.
	sessionID := utils.CopyString(c.Params("session_id"))

	up, err := s.readUpload(c)
	if err != nil {
		return err
	}

	s.logger.Debug("agent chat request",
		zap.String("session_id", sessionID),
		zap.String("file", up.file.Path),
		zap.Int64("size", up.file.Size),
	)

	res, err := s.agent.HandleTurn(c.Context(), sessionID, up.data)
	if err != nil {
		return s.fail(c, err, true)
	}

	s.logger.Debug("agent chat reply",
		zap.String("session_id", sessionID),
		zap.String("transcript_preview", truncate(res.Transcript, 50)),
		zap.String("reply_preview", truncate(res.Reply, 100)),
	)

	resp := ChatResponse{
		Transcript:  res.Transcript,
		LLMText:     res.Reply,
		ChatHistory: res.History,
	}
	resp.AudioURL, resp.AudioURLs = audioFields(res.AudioURLs)
	return c.JSON(resp)
}

// handleListSessions lists every session with its depth.
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	summaries, err := s.agent.Sessions(c.Context())
	if err != nil {
		return s.fail(c, err, true)
	}

	return c.JSON(SessionsResponse{
		Count:    len(summaries),
		Sessions: summaries,
	})
}

// handleGetHistory returns the transcript of one session.
func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	sessionID := utils.CopyString(c.Params("session_id"))

	turns, ok := s.agent.History(c.Context(), sessionID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Detail: "session not found"})
	}

	return c.JSON(HistoryResponse{
		SessionID:   sessionID,
		ChatHistory: turns,
		Depth:       len(turns),
	})
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
