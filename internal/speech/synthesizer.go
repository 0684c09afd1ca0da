package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"
)

// Synthesizer turns text into base64-encoded MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice Voice) (string, error)
}

// GoogleSynthesizer calls the Google Cloud Text-to-Speech REST API.
type GoogleSynthesizer struct {
	svc *texttospeech.Service
}

// NewGoogleSynthesizer creates a synthesizer authenticated with an API key.
// Extra options are appended after the key.
func NewGoogleSynthesizer(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GoogleSynthesizer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("speech: tts api key is required")
	}
	svc, err := texttospeech.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("speech: create tts service: %w", err)
	}
	return &GoogleSynthesizer{svc: svc}, nil
}

func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string, voice Voice) (string, error) {
	resp, err := g.svc.Text.Synthesize(&texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: languageCode,
			Name:         voice.Name,
			SsmlGender:   voice.Gender,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding:    "MP3",
			Pitch:            voice.Pitch,
			SpeakingRate:     voice.SpeakingRate,
			VolumeGainDb:     voice.VolumeGainDb,
			EffectsProfileId: []string{effectProfile},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("speech: synthesize: %w", err)
	}
	if resp.AudioContent == "" {
		return "", errors.New("speech: synthesize returned no audio")
	}
	return resp.AudioContent, nil
}
