package speech

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveTTS(t *testing.T, synth Synthesizer, body string) (int, map[string]any) {
	t.Helper()
	h := NewHandler(NewService(synth, nil), nil)
	rec := httptest.NewRecorder()
	h.Synthesize(rec, httptest.NewRequest(http.MethodPost, "/tts", strings.NewReader(body)))
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec.Code, out
}

func TestSynthesizeOK(t *testing.T) {
	code, body := serveTTS(t, &stubSynth{audio: "QUJD"}, `{"text":"xin chào","voiceType":"warm"}`)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "QUJD", body["audioContent"])
	assert.Equal(t, "mp3", body["format"])
}

func TestSynthesizeMissingText(t *testing.T) {
	synth := &stubSynth{}
	code, body := serveTTS(t, synth, `{"voiceType":"warm"}`)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Missing text", body["error"])
	assert.Empty(t, synth.texts)
}

func TestSynthesizeProviderFailureIsSanitized(t *testing.T) {
	code, body := serveTTS(t, &stubSynth{err: errors.New("googleapi: Error 403: API key not valid")}, `{"text":"hi"}`)

	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "TTS service error", body["error"])
	assert.Equal(t, true, body["fallback"])
	assert.NotContains(t, body["error"], "API key")
}
