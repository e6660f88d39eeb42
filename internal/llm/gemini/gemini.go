// Package gemini implements llm.Client against the Google Generative Language
// API (Gemini and Gemma models).
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/torosent/freehit/internal/httpclient"
	"github.com/torosent/freehit/internal/llm"
	"github.com/torosent/freehit/internal/tracing"
)

// DefaultBaseURL is the public Generative Language endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

const responseDescription = "Generate content based on the input & Instructions provided."

// jsonInstruction is appended to prompts for models without JSON mode.
const jsonInstruction = "\n\nReply with only a JSON object of the form {\"response\": \"<your answer>\"}."

// Options configure a Factory.
type Options struct {
	BaseURL    string
	APIVersion string // defaults to v1beta
	HTTPClient *http.Client
	Auth       httpclient.AuthProvider
	Timeout    time.Duration // used when HTTPClient is nil; 0 means no timeout
}

// Factory creates clients bound to one model each.
type Factory struct {
	baseURL    string
	apiVersion string
	client     *http.Client
	auth       httpclient.AuthProvider
}

// NewFactory validates opts and returns a Factory.
func NewFactory(opts Options) (*Factory, error) {
	if opts.Auth == nil {
		return nil, errors.New("gemini: auth provider is required")
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("gemini: invalid base URL %q: %w", opts.BaseURL, err)
	}
	version := strings.Trim(strings.TrimSpace(opts.APIVersion), "/")
	if version == "" {
		version = "v1beta"
	}
	client := opts.HTTPClient
	if client == nil {
		client = httpclient.NewClient(opts.Timeout)
	}
	return &Factory{
		baseURL:    base,
		apiVersion: version,
		client:     client,
		auth:       opts.Auth,
	}, nil
}

// NewClient implements llm.Factory.
func (f *Factory) NewClient(model string) (llm.Client, error) {
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	if model == "" {
		return nil, errors.New("gemini: model name is required")
	}
	if strings.ContainsAny(model, "/?#: ") {
		return nil, fmt.Errorf("gemini: invalid model name %q", model)
	}
	return &Client{
		factory:    f,
		model:      model,
		structured: SupportsJSONMode(model),
	}, nil
}

// SupportsJSONMode reports whether the model accepts a response schema.
// Gemma models on the hosted API reject responseSchema.
func SupportsJSONMode(model string) bool {
	return !strings.HasPrefix(model, "gemma-")
}

// Client invokes one model.
type Client struct {
	factory    *Factory
	model      string
	structured bool
}

// Model returns the bound model name.
func (c *Client) Model() string {
	return c.model
}

// Invoke sends prompt and returns the structured answer.
func (c *Client) Invoke(ctx context.Context, prompt string) (llm.Result, error) {
	endpoint := fmt.Sprintf("%s/%s/models/%s:generateContent", c.factory.baseURL, c.factory.apiVersion, url.PathEscape(c.model))
	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, endpoint, c.buildPayload(prompt), c.factory.auth)
	if err != nil {
		return llm.Result{}, &llm.Error{Kind: llm.KindOther, Model: c.model, Cause: err}
	}
	tracing.InjectHTTPHeaders(ctx, req.Header)

	resp, err := c.factory.client.Do(req)
	if err != nil {
		return llm.Result{}, &llm.Error{Kind: llm.KindOther, Model: c.model, Cause: err}
	}
	defer resp.Body.Close()

	body, err := httpclient.ReadSnippet(resp.Body, maxResponseBytes)
	if err != nil {
		return llm.Result{}, &llm.Error{Kind: llm.KindOther, Model: c.model, Status: resp.StatusCode, Cause: err}
	}
	if resp.StatusCode >= 400 {
		return llm.Result{}, statusError(c.model, resp.StatusCode, body)
	}

	text, err := candidateText(body)
	if err != nil {
		return llm.Result{}, &llm.Error{Kind: llm.KindOther, Model: c.model, Status: resp.StatusCode, Cause: err}
	}
	result, err := llm.ParseResponse(text)
	if err != nil {
		if c.structured {
			return llm.Result{}, &llm.Error{Kind: llm.KindOther, Model: c.model, Status: resp.StatusCode, Cause: err}
		}
		// Without JSON mode the model may ignore the format request.
		result = llm.Result{Response: strings.TrimSpace(text)}
	}
	return result, nil
}

// maxResponseBytes bounds a generateContent body; answers are under 500 words.
const maxResponseBytes = 1 << 20

func (c *Client) buildPayload(prompt string) map[string]interface{} {
	text := prompt
	config := map[string]interface{}{}
	if c.structured {
		config["responseMimeType"] = "application/json"
		config["responseSchema"] = map[string]interface{}{
			"type": "OBJECT",
			"properties": map[string]interface{}{
				"response": map[string]interface{}{
					"type":        "STRING",
					"description": responseDescription,
				},
			},
			"required": []string{"response"},
		}
	} else {
		text += jsonInstruction
	}
	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": []map[string]interface{}{{"text": text}},
			},
		},
	}
	if len(config) > 0 {
		payload["generationConfig"] = config
	}
	return payload
}

func candidateText(body string) (string, error) {
	if !gjson.Valid(body) {
		return "", errors.New("response body is not valid JSON")
	}
	candidates := gjson.Get(body, "candidates")
	if !candidates.IsArray() || len(candidates.Array()) == 0 {
		if reason := gjson.Get(body, "promptFeedback.blockReason").String(); reason != "" {
			return "", fmt.Errorf("prompt blocked: %s", reason)
		}
		return "", errors.New("response has no candidates")
	}
	var b strings.Builder
	for _, part := range gjson.Get(body, "candidates.0.content.parts.#.text").Array() {
		b.WriteString(part.String())
	}
	if b.Len() == 0 {
		reason := gjson.Get(body, "candidates.0.finishReason").String()
		return "", fmt.Errorf("candidate has no text (finishReason=%s)", reason)
	}
	return b.String(), nil
}

func statusError(model string, status int, body string) *llm.Error {
	code := ""
	message := body
	if gjson.Valid(body) {
		code = gjson.Get(body, "error.status").String()
		if msg := gjson.Get(body, "error.message").String(); msg != "" {
			message = msg
		}
	}
	return &llm.Error{
		Kind:    llm.ClassifyStatus(status, code),
		Model:   model,
		Status:  status,
		Code:    code,
		Message: message,
	}
}
