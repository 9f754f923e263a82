package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/team-sakkal/caoscan/internal/cache"
	"github.com/team-sakkal/caoscan/internal/model"
	"github.com/team-sakkal/caoscan/internal/util"
)

// ErrUnparsableReply signals that the endpoint answered, but no usable
// JSON object with a 'verhogingen' list could be recovered from the reply.
// Not retried: a malformed reply at temperature 0 stays malformed.
var ErrUnparsableReply = errors.New("unparsable classifier reply")

// Client is the OpenRouter-backed Classifier. One request per sentence:
// fixed system instruction, fixed few-shot pairs, target sentence last.
type Client struct {
	api    *openai.Client
	cfg    model.LLMConfig
	store  cache.Cache
	logger zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewClient creates a classifier client. store may be nil to disable
// caching.
func NewClient(cfg model.LLMConfig, store cache.Cache, logger zerolog.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: &attributionTransport{
			base: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			referer: cfg.Referer,
			title:   cfg.Title,
		},
	}

	return &Client{
		api:    openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
		store:  store,
		logger: logger.With().Str("component", "classifier").Logger(),
		sleep:  sleepCtx,
	}
}

type classifierReply struct {
	// Pointer to tell "key absent" apart from "empty list": a reply
	// without 'verhogingen' is a contract violation, not a clean miss.
	Verhogingen *[]model.RawClaim `json:"verhogingen"`
}

// Classify sends one candidate sentence to the endpoint and returns the
// raw claims recovered from its reply. Transient transport failures are
// retried up to the attempt budget with a fixed delay; request timeouts
// count as transient. Reply-parsing failures are not retried.
func (c *Client) Classify(ctx context.Context, sentence string) ([]model.RawClaim, error) {
	rid := uuid.New().String()
	logger := c.logger.With().Str("req_id", rid).Logger()

	key := cache.Key(c.cfg.Model, sentence)
	if c.store != nil {
		if raw, ok := c.store.Get(key); ok {
			var claims []model.RawClaim
			if err := json.Unmarshal(raw, &claims); err == nil {
				logger.Debug().Int("claims", len(claims)).Msg("classification cache hit")
				return claims, nil
			}
			_ = c.store.Delete(key)
		}
	}

	req := openai.ChatCompletionRequest{
		Model:     c.cfg.Model,
		Messages:  buildMessages(sentence),
		MaxTokens: c.cfg.MaxTokens,
		// Effectively zero. The zero value itself would be omitted from
		// the request body, silently falling back to the API default.
		Temperature: math.SmallestNonzeroFloat32,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	var resp openai.ChatCompletionResponse
	var err error
	for attempt := 1; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		resp, err = c.api.CreateChatCompletion(attemptCtx, req)
		cancel()
		if err == nil {
			break
		}

		logger.Warn().Err(err).Int("attempt", attempt).Msg("classification request failed")
		if attempt >= c.cfg.MaxRetries || ctx.Err() != nil {
			return nil, fmt.Errorf("classify after %d attempts: %w", attempt, err)
		}
		if serr := c.sleep(ctx, c.cfg.RetryDelay); serr != nil {
			return nil, serr
		}
	}

	if len(resp.Choices) == 0 {
		logger.Warn().Msg("classifier reply has no choices")
		return nil, ErrUnparsableReply
	}
	content := resp.Choices[0].Message.Content

	span, ok := lastJSONObject(content)
	if !ok {
		logger.Warn().Str("content", truncate(content, 400)).Msg("no JSON object in classifier reply")
		return nil, ErrUnparsableReply
	}

	var reply classifierReply
	if err := json.Unmarshal([]byte(span), &reply); err != nil {
		logger.Warn().Err(err).Str("span", truncate(span, 400)).Msg("recovered span is not valid JSON")
		return nil, fmt.Errorf("%w: %v", ErrUnparsableReply, err)
	}
	if reply.Verhogingen == nil {
		logger.Warn().Str("span", truncate(span, 400)).Msg("classifier reply misses 'verhogingen' list")
		return nil, ErrUnparsableReply
	}
	claims := *reply.Verhogingen

	if c.store != nil {
		if raw, merr := json.Marshal(claims); merr == nil {
			_ = c.store.Set(key, raw, 0)
		}
	}

	logger.Info().Int("claims", len(claims)).Msg("sentence classified")
	return claims, nil
}

func buildMessages(sentence string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, 2*len(fewShots)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, shot := range fewShots {
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: shot.user},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: shot.assistant},
		)
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: sentence,
	})
}

// attributionTransport adds the OpenRouter attribution headers expected
// alongside the bearer token.
type attributionTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.referer != "" {
		clone.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		clone.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(clone)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
