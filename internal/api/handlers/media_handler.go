package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/intervuehq/intervue/internal/providers/stt"
	"github.com/intervuehq/intervue/internal/providers/tts"
	"github.com/intervuehq/intervue/internal/utils"
	"github.com/sirupsen/logrus"
)

// MediaHandler fronts the speech collaborators. Transcription failures never
// surface as errors to the interview loop: the client gets an empty
// transcript and decides whether to retry.
type MediaHandler struct {
	stt stt.Provider
	tts tts.Provider
	log *logrus.Logger
}

func NewMediaHandler(sttP stt.Provider, ttsP tts.Provider, log *logrus.Logger) *MediaHandler {
	if log == nil {
		log = logrus.New()
	}
	return &MediaHandler{stt: sttP, tts: ttsP, log: log}
}

type TranscribeRequest struct {
	AudioBase64 string `json:"audio_base64" binding:"required"`
	Language    string `json:"language"`
}

func (h *MediaHandler) Transcribe(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	if h.stt == nil {
		writeError(c, utils.E(utils.CodeUnavailable, "MediaHandler.Transcribe", "transcription is not configured", nil))
		return
	}

	var req TranscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "MediaHandler.Transcribe", "invalid request body", err))
		return
	}

	raw := req.AudioBase64
	if i := strings.Index(raw, ","); i >= 0 {
		raw = raw[i+1:]
	}
	audio, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "MediaHandler.Transcribe", "invalid audio_base64", err))
		return
	}

	text, conf, err := h.stt.Transcribe(c.Request.Context(), audio, req.Language)
	if err != nil {
		h.log.WithError(err).Warn("transcription failed, returning empty transcript")
		c.JSON(http.StatusOK, gin.H{"text": "", "confidence": 0, "transcription_failed": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text, "confidence": conf})
}

type SpeakRequest struct {
	Text     string `json:"text" binding:"required"`
	Language string `json:"language"`
}

func (h *MediaHandler) Speak(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	if h.tts == nil {
		writeError(c, utils.E(utils.CodeUnavailable, "MediaHandler.Speak", "speech synthesis is not configured", nil))
		return
	}

	var req SpeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "MediaHandler.Speak", "invalid request body", err))
		return
	}

	audio, err := h.tts.Synthesize(c.Request.Context(), req.Text, req.Language)
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, "MediaHandler.Speak", "speech synthesis failed", err))
		return
	}

	c.Data(http.StatusOK, "audio/mpeg", audio)
}
