package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

const defaultGoogleTTSURL = "https://texttospeech.googleapis.com/v1/text:synthesize"

// GoogleCloud is the preferred TTS provider, using the Cloud
// Text-to-Speech REST API with an API key. A random voice is picked per
// synthesis from the configured voice types.
type GoogleCloud struct {
	BaseURL    string
	apiKey     string
	voiceTypes []string
	hc         *http.Client
	rng        *rand.Rand
}

// NewGoogleCloud creates the provider. voiceTypes defaults to standard
// voices when empty.
func NewGoogleCloud(apiKey string, voiceTypes []string) *GoogleCloud {
	return &GoogleCloud{
		BaseURL:    defaultGoogleTTSURL,
		apiKey:     apiKey,
		voiceTypes: voiceTypes,
		hc:         &http.Client{Timeout: 2 * time.Minute},
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *GoogleCloud) Name() string { return "google-cloud-tts" }

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Synthesize produces MP3 audio at a slightly faster speaking rate.
func (g *GoogleCloud) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("tts: google api key not configured")
	}

	voice, err := RandomVoice(g.voiceTypes, g.rng)
	if err != nil {
		return nil, err
	}

	var reqBody synthesizeRequest
	reqBody.Input.Text = text
	reqBody.Voice.LanguageCode = languageCode(voice)
	reqBody.Voice.Name = voice
	reqBody.AudioConfig.AudioEncoding = "MP3"
	reqBody.AudioConfig.SpeakingRate = 1.1

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("tts: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"?key="+g.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tts: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts: google request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts: read google response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts: google status %d", resp.StatusCode)
	}

	var out synthesizeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("tts: parse google response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("tts: google: %s", out.Error.Message)
	}
	audio, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("tts: decode audio content: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts: google returned empty audio")
	}
	return audio, nil
}
