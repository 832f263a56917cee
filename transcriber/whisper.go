package transcriber

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"murmur/dictation"
	"murmur/encoder"
	"murmur/log"
)

// Whisper talks to a whisper.cpp-compatible server. Model loading is a
// server-side operation; the engine tracks which model the server last
// confirmed.
type Whisper struct {
	baseURL string
	client  *TracedClient

	mu     sync.Mutex
	loaded string // model id confirmed by the server, empty when none
}

func NewWhisper(baseURL string) *Whisper {
	return &Whisper{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  NewTracedClient(),
	}
}

func (w *Whisper) IsModelLoaded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loaded != ""
}

// LoadedModel names the model the server last confirmed, or "".
func (w *Whisper) LoadedModel() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loaded
}

// LoadModel asks the server to switch models and records the confirmed
// id. A failed load leaves the previous model in place server-side, so
// the engine keeps its prior loaded id on error.
func (w *Whisper) LoadModel(id string) error {
	payload, _ := json.Marshal(map[string]string{"model": id})
	req, err := http.NewRequest("POST", w.baseURL+"/load", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whisper load error %d: %s", resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	w.mu.Lock()
	w.loaded = id
	w.mu.Unlock()
	return nil
}

type whisperSegment struct {
	Text         string  `json:"text"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	NoSpeechProb float64 `json:"no_speech_prob"`
	AvgLogProb   float64 `json:"avg_logprob"`
}

type whisperResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
}

// Transcribe compresses the buffer to FLAC and posts it for inference.
// Confidence is exp(mean avg_logprob) over the returned segments.
func (w *Whisper) Transcribe(samples []int16, language string) (dictation.Transcription, error) {
	model := w.LoadedModel()
	if model == "" {
		return dictation.Transcription{}, dictation.Errf(dictation.KindModelNotFound, "no model loaded")
	}

	start := time.Now()
	flacData, err := encodeFlac(samples)
	if err != nil {
		return dictation.Transcription{}, dictation.Wrap(dictation.KindInvalidAudioData, "encoding audio", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "audio.flac")
	if err != nil {
		return dictation.Transcription{}, err
	}
	if _, err := part.Write(flacData); err != nil {
		return dictation.Transcription{}, err
	}
	writer.WriteField("response_format", "verbose_json")
	if language != "" {
		writer.WriteField("language", language)
	}
	writer.Close()

	req, err := http.NewRequest("POST", w.baseURL+"/inference", &body)
	if err != nil {
		return dictation.Transcription{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return dictation.Transcription{}, classifyTransport(err)
	}
	if resp.StatusCode != http.StatusOK {
		return dictation.Transcription{}, fmt.Errorf("whisper inference error %d: %s",
			resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	var wResp whisperResponse
	if err := json.Unmarshal(resp.Body, &wResp); err != nil {
		return dictation.Transcription{}, fmt.Errorf("whisper response parse error: %w", err)
	}

	text := strings.TrimSpace(wResp.Text)
	confidence := confidenceFromSegments(wResp, text)
	audioS := float64(len(samples)) / float64(encoder.SampleRate)
	log.Transcription(model, audioS, confidence, float64(time.Since(start).Milliseconds()))

	return dictation.Transcription{Text: text, Confidence: confidence}, nil
}

// confidenceFromSegments folds per-segment avg_logprob into one score in
// [0,1]. A response without segments is scored only on whether it
// produced text.
func confidenceFromSegments(resp whisperResponse, text string) float64 {
	if len(resp.Segments) == 0 {
		if text == "" {
			return 0
		}
		return 1
	}
	var sum float64
	for _, seg := range resp.Segments {
		sum += seg.AvgLogProb
	}
	conf := math.Exp(sum / float64(len(resp.Segments)))
	if conf > 1 {
		conf = 1
	}
	return conf
}

// encodeFlac feeds the sample buffer through the block encoder.
func encodeFlac(samples []int16) ([]byte, error) {
	enc, err := encoder.NewFlac()
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(samples); i += encoder.BlockSize {
		end := i + encoder.BlockSize
		if end > len(samples) {
			end = len(samples)
		}
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}
