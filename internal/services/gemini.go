package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"portfolio-backend/internal/models"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	maxOutputTokens = 300
	temperature     = 0.7

	// DefaultHTTPTimeout bounds one generateContent call on the default client.
	DefaultHTTPTimeout = 60 * time.Second
)

// Generator turns a composed prompt into reply text.
type Generator interface {
	Configured() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

type GeneratorOptions struct {
	Transport string // "rest" or "sdk"
	APIKey    string
	Model     string
	BaseURL   string
}

// NewGenerator builds the generator for the configured transport. The returned
// close func is never nil.
func NewGenerator(ctx context.Context, opts GeneratorOptions) (Generator, func(), error) {
	switch opts.Transport {
	case "", "rest":
		return NewRESTGenerator(opts.BaseURL, opts.APIKey, opts.Model, nil), func() {}, nil
	case "sdk":
		g, err := NewSDKGenerator(ctx, opts.APIKey, opts.Model)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown Gemini transport %q", opts.Transport)
	}
}

// ComposePrompt renders the system prompt, the recent-turns block and the new
// user text into the single prompt string sent upstream.
func ComposePrompt(systemPrompt string, window []models.TranscriptEntry, userText string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	if len(window) > 0 {
		lines := make([]string, len(window))
		for i, e := range window {
			lines[i] = e.Role + ": " + e.Text
		}
		b.WriteString("\n\nRecent:\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n\n")
	} else {
		b.WriteString("\n\n")
	}

	b.WriteString("User: ")
	b.WriteString(userText)
	return b.String()
}

// ──── REST transport ────

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content *content `json:"content"`
	} `json:"candidates"`
}

type upstreamErrorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// RESTGenerator calls generateContent over plain HTTPS.
type RESTGenerator struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewRESTGenerator(baseURL, apiKey, model string, httpClient *http.Client) *RESTGenerator {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &RESTGenerator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
	}
}

func (g *RESTGenerator) Configured() bool { return g.apiKey != "" }

func (g *RESTGenerator) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
}

func (g *RESTGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if !g.Configured() {
		return "", &ConfigurationError{}
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: models.RoleUser, Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			MaxOutputTokens: maxOutputTokens,
			Temperature:     temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode Gemini request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build Gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the request URL, which carries the key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return "", &UpstreamError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UpstreamError{Status: resp.StatusCode, Message: fmt.Sprintf("failed to read Gemini response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody upstreamErrorBody
		upErr := &UpstreamError{Status: resp.StatusCode}
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error != nil {
			upErr.Message = errBody.Error.Message
		}
		log.Printf("Gemini returned HTTP %d (model=%s)", resp.StatusCode, g.model)
		return "", upErr
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &EmptyResponseError{}
	}

	if len(out.Candidates) == 0 || out.Candidates[0].Content == nil ||
		len(out.Candidates[0].Content.Parts) == 0 || out.Candidates[0].Content.Parts[0].Text == "" {
		return "", &EmptyResponseError{}
	}

	return out.Candidates[0].Content.Parts[0].Text, nil
}

// ──── SDK transport ────

// SDKGenerator goes through the official generative-ai-go client.
type SDKGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewSDKGenerator returns an unconfigured generator when apiKey is empty so the
// missing credential surfaces at send time rather than at startup.
func NewSDKGenerator(ctx context.Context, apiKey, modelName string) (*SDKGenerator, error) {
	if apiKey == "" {
		return &SDKGenerator{}, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(maxOutputTokens)

	return &SDKGenerator{client: client, model: model}, nil
}

func (g *SDKGenerator) Configured() bool { return g.model != nil }

func (g *SDKGenerator) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func (g *SDKGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if !g.Configured() {
		return "", &ConfigurationError{}
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{Status: apiErr.Code, Message: apiErr.Message}
		}
		return "", &UpstreamError{Message: err.Error()}
	}

	text := firstCandidateText(resp)
	if text == "" {
		return "", &EmptyResponseError{}
	}
	return text, nil
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return ""
	}
	t, ok := cand.Content.Parts[0].(genai.Text)
	if !ok {
		return ""
	}
	return string(t)
}
