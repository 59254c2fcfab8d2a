package people

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kairoshq/kairos/internal/version"
)

// OracleClient asks an OpenAI-compatible chat endpoint to pick the best
// candidate when fuzzy scoring cannot. Implements Oracle.
type OracleClient struct {
	baseURL string
	apiKey  string
	model   string
	logger  *slog.Logger
	http    *http.Client
}

func NewOracleClient(log *slog.Logger, baseURL, apiKey, model string, timeout time.Duration) (*OracleClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("oracle client: base url is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("oracle client: api key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("oracle client: model is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OracleClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		logger:  log.With(slog.String("client", "oracle")),
		http: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type selectionResponse struct {
	Index      *int   `json:"index"`
	Confidence string `json:"confidence"`
	Reason     string `json:"reason"`
	Error      string `json:"error"`
}

// SelectBestMatch picks one candidate for the term. A single candidate is
// returned with high confidence without a model call. The model answers with
// a 0-based index into the candidate list plus a confidence level; an out of
// range index or an explicit no-match answer is an error.
func (c *OracleClient) SelectBestMatch(ctx context.Context, term string, candidates []Identity) (OracleChoice, error) {
	if len(candidates) == 0 {
		return OracleChoice{}, fmt.Errorf("candidates is required")
	}
	if len(candidates) == 1 {
		return OracleChoice{Identity: candidates[0], Confidence: ConfidenceHigh}, nil
	}

	systemPrompt, userPrompt := getSelectionMessages(term, candidates)
	content, err := c.callChat(ctx, []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return OracleChoice{}, err
	}

	var parsed selectionResponse
	if err := json.Unmarshal([]byte(removeCodeBlocks(content)), &parsed); err != nil {
		return OracleChoice{}, fmt.Errorf("failed to parse selection response: %w", err)
	}
	if parsed.Error != "" {
		return OracleChoice{}, fmt.Errorf("oracle declined: %s", parsed.Error)
	}
	if parsed.Index == nil || *parsed.Index < 0 || *parsed.Index >= len(candidates) {
		return OracleChoice{}, fmt.Errorf("oracle returned invalid index")
	}
	return OracleChoice{
		Identity:   candidates[*parsed.Index],
		Confidence: normalizeConfidence(parsed.Confidence),
		Reason:     parsed.Reason,
	}, nil
}

func normalizeConfidence(raw string) Confidence {
	switch Confidence(strings.ToLower(strings.TrimSpace(raw))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceLow:
		return ConfidenceLow
	default:
		return ConfidenceMedium
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Temperature    float32           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
	Messages       []chatMessage     `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OracleClient) callChat(ctx context.Context, messages []chatMessage) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("oracle api key is required")
	}
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Temperature: 0,
		ResponseFormat: map[string]string{
			"type": "json_object",
		},
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("oracle error: %s", strings.TrimSpace(string(b)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("oracle response missing content")
	}
	return parsed.Choices[0].Message.Content, nil
}
