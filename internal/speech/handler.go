package speech

import (
	"net/http"

	"github.com/wellbot/wellbot-api/internal/http/respond"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

type ttsRequest struct {
	Text      string `json:"text"`
	VoiceType string `json:"voiceType"`
}

// Handler serves POST /tts.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Synthesize answers with base64 MP3 audio. Provider failures return 502 with
// fallback set so the client can use on-device speech.
func (h *Handler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if req.Text == "" {
		respond.JSON(w, http.StatusBadRequest, map[string]any{"error": "Missing text"})
		return
	}

	audio, err := h.service.Speak(r.Context(), req.Text, req.VoiceType)
	if err != nil {
		h.logger.Error("tts synthesis failed", "error", err)
		respond.JSON(w, http.StatusBadGateway, map[string]any{"error": "TTS service error", "fallback": true})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"audioContent": audio, "format": "mp3"})
}
