package whisper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModel is used when no transcription model is configured.
const DefaultModel = openai.AudioModelWhisper1

// OpenAITranscriber transcribes audio files with the OpenAI audio API.
type OpenAITranscriber struct {
	client openai.Client
	model  openai.AudioModel
}

// NewOpenAITranscriber creates a transcriber. An empty model selects DefaultModel.
func NewOpenAITranscriber(apiKey, model string, opts ...option.RequestOption) *OpenAITranscriber {
	if model == "" {
		model = string(DefaultModel)
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAITranscriber{
		client: openai.NewClient(opts...),
		model:  openai.AudioModel(model),
	}
}

// Transcribe uploads the file and returns its transcript. lang is a BCP 47
// tag; only its primary subtag is sent.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, path string, lang string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer func() { _ = f.Close() }()

	params := openai.AudioTranscriptionNewParams{
		File:  f,
		Model: t.model,
	}
	if code := primaryLanguage(lang); code != "" {
		params.Language = openai.String(code)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) &&
			(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func primaryLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
