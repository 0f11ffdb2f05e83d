package fastgpt

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
	"github.com/kirillkom/medical-query-assistant/internal/infrastructure/resilience"
)

const (
	DefaultEndpoint = "https://api.fastgpt.cn/api/v1/chat/completions"
	DefaultTimeout  = 30 * time.Second

	maxTitleRunes = 48
)

type Options struct {
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	Executor   *resilience.Executor
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client fetches answers from a FastGPT chat-completions endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	timeout    time.Duration
	executor   *resilience.Executor
	httpClient *http.Client
	logger     *slog.Logger
	clock      func() time.Time
}

func New(opts Options) *Client {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     strings.TrimSpace(opts.APIKey),
		timeout:    timeout,
		executor:   opts.Executor,
		httpClient: httpClient,
		logger:     logger,
		clock:      time.Now,
	}
}

type chatRequest struct {
	ChatID   string        `json:"chatId"`
	Stream   bool          `json:"stream"`
	Detail   bool          `json:"detail"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	ResponseData []struct {
		ModuleType string  `json:"moduleType"`
		QuoteList  []quote `json:"quoteList"`
	} `json:"responseData"`
}

type quote struct {
	ID         string `json:"id"`
	Q          string `json:"q"`
	SourceName string `json:"sourceName"`
	Score      []struct {
		Type  string  `json:"type"`
		Value float64 `json:"value"`
	} `json:"score"`
}

func (c *Client) FetchAnswer(ctx context.Context, sanitizedQuery string) (*domain.QueryResponse, error) {
	if c.apiKey == "" {
		return nil, domain.WrapError(domain.ErrConfig, "fastgpt chat", errors.New("API key is not configured"))
	}

	start := c.clock()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	request := chatRequest{
		ChatID: uuid.NewString(),
		Stream: false,
		Detail: true,
		Messages: []chatMessage{
			{Role: "user", Content: sanitizedQuery},
		},
	}

	call := func(ctx context.Context) (chatResponse, error) {
		var response chatResponse
		err := c.postJSON(ctx, request, &response)
		return response, err
	}

	var (
		response chatResponse
		err      error
	)
	if c.executor != nil {
		response, err = resilience.Call(ctx, c.executor, "fastgpt.chat", call, classifyFastGPTError)
	} else {
		response, err = call(ctx)
	}
	if err != nil {
		return nil, toDomainError(err)
	}

	if len(response.Choices) == 0 {
		return nil, errors.New("fastgpt chat: response has no choices")
	}

	refs := collectReferences(response)
	c.logger.Debug("fastgpt_answer_received", "chat_id", request.ChatID, "references", len(refs))

	return &domain.QueryResponse{
		Answer:         strings.TrimSpace(response.Choices[0].Message.Content),
		References:     refs,
		QueryTime:      c.clock().UTC(),
		ProcessingTime: c.clock().Sub(start),
	}, nil
}

func collectReferences(response chatResponse) []domain.Reference {
	var quotes []quote
	seen := map[string]bool{}
	for _, node := range response.ResponseData {
		for _, q := range node.QuoteList {
			if q.ID != "" && seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			quotes = append(quotes, q)
		}
	}
	sort.SliceStable(quotes, func(i, j int) bool {
		return bestScore(quotes[i]) > bestScore(quotes[j])
	})

	refs := make([]domain.Reference, 0, len(quotes))
	for i, q := range quotes {
		refs = append(refs, domain.Reference{
			ID:         i + 1,
			Title:      quoteTitle(q),
			Source:     q.SourceName,
			Confidence: bestScore(q),
		})
	}
	return refs
}

func bestScore(q quote) float64 {
	best := 0.0
	for _, s := range q.Score {
		if s.Value > best {
			best = s.Value
		}
	}
	return min(best, 1.0)
}

func quoteTitle(q quote) string {
	text := strings.TrimSpace(q.Q)
	if line, _, ok := strings.Cut(text, "\n"); ok {
		text = strings.TrimSpace(line)
	}
	if text == "" {
		return q.SourceName
	}
	if utf8.RuneCountInString(text) > maxTitleRunes {
		runes := []rune(text)
		text = string(runes[:maxTitleRunes]) + "…"
	}
	return text
}
