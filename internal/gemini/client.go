package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	defaultTextModel   = "gemini-3-pro-preview"
	defaultImageModel  = "gemini-3-pro-image-preview"
	defaultAspectRatio = "4:5"
)

type Options struct {
	APIKey      string
	BaseURL     string
	APIVersion  string
	TextModel   string
	ImageModel  string
	AspectRatio string
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client talks to the generateContent endpoint directly. It is created
// once at startup and injected into every consumer.
type Client struct {
	apiKey      string
	baseURL     string
	apiVersion  string
	textModel   string
	imageModel  string
	aspectRatio string
	httpClient  *http.Client
	logger      *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = defaultTextModel
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = defaultImageModel
	}
	aspectRatio := strings.TrimSpace(opts.AspectRatio)
	if aspectRatio == "" {
		aspectRatio = defaultAspectRatio
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:      opts.APIKey,
		baseURL:     baseURL,
		apiVersion:  apiVersion,
		textModel:   textModel,
		imageModel:  imageModel,
		aspectRatio: aspectRatio,
		httpClient:  opts.HTTPClient,
		logger:      logger,
	}
}

// GenerateText sends a prompt plus image attachments to the text model
// and returns the concatenated text parts of the first candidate.
func (c *Client) GenerateText(ctx context.Context, prompt string, images []ImageInput) (string, Usage, error) {
	req := generateContentRequest{
		Contents: []content{{Role: "user", Parts: buildParts(prompt, images)}},
	}

	resp, err := c.generateContent(ctx, c.textModel, req)
	if err != nil {
		return "", Usage{}, err
	}

	text, _ := extractParts(resp)
	return text, extractUsage(resp), nil
}

// GenerateImage sends a prompt plus image attachments to the image
// model and returns the first inline image payload of the response.
// A successful call with no image part fails with ErrNoImagePayload.
func (c *Client) GenerateImage(ctx context.Context, prompt string, images []ImageInput) ([]byte, Usage, error) {
	req := generateContentRequest{
		Contents: []content{{Role: "user", Parts: buildParts(prompt, images)}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        &imageConfig{AspectRatio: c.aspectRatio},
		},
	}

	resp, err := c.generateContent(ctx, c.imageModel, req)
	if err != nil && req.GenerationConfig.ImageConfig != nil && isUnknownFieldError(err, "imageConfig") {
		req.GenerationConfig.ImageConfig = nil
		resp, err = c.generateContent(ctx, c.imageModel, req)
	}
	if err != nil {
		return nil, Usage{}, err
	}

	usage := extractUsage(resp)

	_, inline := extractParts(resp)
	if inline == nil {
		return nil, usage, ErrNoImagePayload
	}

	data, err := base64.StdEncoding.DecodeString(inline.Data)
	if err != nil {
		return nil, usage, fmt.Errorf("decode inline image: %w", err)
	}
	return data, usage, nil
}

func buildParts(prompt string, images []ImageInput) []part {
	parts := []part{{Text: prompt}}
	for _, img := range images {
		parts = append(parts, part{
			InlineData: &blob{
				Data:     base64.StdEncoding.EncodeToString(img.Data),
				MimeType: img.MimeType,
			},
		})
	}
	return parts
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (generateContentResponse, error) {
	if c.httpClient == nil {
		return generateContentResponse{}, &UpstreamError{Model: model, Err: errors.New("http client is nil")}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return generateContentResponse{}, &UpstreamError{Model: model, Err: err}
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return generateContentResponse{}, &UpstreamError{Model: model, Status: httpResp.Status, Err: err}
	}

	if httpResp.StatusCode >= 400 {
		return generateContentResponse{}, &UpstreamError{
			Model:  model,
			Status: httpResp.Status,
			Err:    errors.New(strings.TrimSpace(string(rawBody))),
		}
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return generateContentResponse{}, &UpstreamError{Model: model, Status: httpResp.Status, Err: fmt.Errorf("decode response: %w", err)}
	}

	c.logger.Debug("generateContent ok", "model", model, "bytes", len(rawBody))
	return decoded, nil
}

// extractParts returns the concatenated text of the first candidate and
// the first inline image blob, if any.
func extractParts(resp generateContentResponse) (string, *blob) {
	if len(resp.Candidates) == 0 {
		return "", nil
	}

	var textBuilder strings.Builder
	var inline *blob

	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			textBuilder.WriteString(p.Text)
		}
		if inline == nil && p.InlineData != nil && p.InlineData.Data != "" {
			found := *p.InlineData
			inline = &found
		}
	}

	return textBuilder.String(), inline
}

// extractUsage tolerates both the usageMetadata and the usage response
// shapes, and defaults every missing count to zero.
func extractUsage(resp generateContentResponse) Usage {
	meta := resp.UsageMetadata
	if meta == nil {
		meta = resp.Usage
	}
	if meta == nil {
		return Usage{}
	}
	return Usage{
		InputTokens:  meta.PromptTokenCount,
		OutputTokens: meta.CandidatesTokenCount,
	}
}

func isUnknownFieldError(err error, field string) bool {
	message := err.Error()
	return strings.Contains(message, "Unknown name") && strings.Contains(message, field)
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates    []candidate `json:"candidates"`
	UsageMetadata *usageBlock `json:"usageMetadata"`
	Usage         *usageBlock `json:"usage"`
}

type candidate struct {
	Content content `json:"content"`
}

type usageBlock struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}
