package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"solana-wallet-risk/internal/cache"
	"solana-wallet-risk/internal/domain"
	"solana-wallet-risk/internal/observability"
)

// Supported LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderLlama  = "llama"
)

// Default LLM configuration values.
const (
	DefaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultLLMTimeout     = 30 * time.Second

	llmTemperature = 0.3
	llmMaxTokens   = 500
)

// LLMExplainer generates explanations through a chat-completion endpoint,
// falling back to the rule-based bands whenever the call or the response
// parse fails. Results are cached per wallet and rounded score.
type LLMExplainer struct {
	provider string
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	fallback *RuleBasedExplainer
	cache    *cache.Cache[*domain.RiskExplanation]
	logger   zerolog.Logger
}

var _ Explainer = (*LLMExplainer)(nil)

// Options for creating an LLMExplainer.
type Options struct {
	// Provider selects the request/response dialect: ProviderOpenAI or
	// ProviderLlama.
	Provider string

	// Endpoint overrides the provider default. Required for llama.
	Endpoint string

	// APIKey is sent as a bearer token. Required for openai.
	APIKey string

	// Model defaults to DefaultOpenAIModel for openai; unused by llama.
	Model string

	Timeout time.Duration

	// Cache holds finished explanations. A nil cache disables caching.
	Cache *cache.Cache[*domain.RiskExplanation]

	Logger zerolog.Logger
}

// NewLLMExplainer creates a new LLM explainer.
func NewLLMExplainer(opts Options) *LLMExplainer {
	e := &LLMExplainer{
		provider: opts.Provider,
		endpoint: opts.Endpoint,
		apiKey:   opts.APIKey,
		model:    opts.Model,
		fallback: NewRuleBasedExplainer(),
		cache:    opts.Cache,
		logger:   opts.Logger,
	}
	if e.provider == "" {
		e.provider = ProviderOpenAI
	}
	if e.endpoint == "" && e.provider == ProviderOpenAI {
		e.endpoint = DefaultOpenAIEndpoint
	}
	if e.model == "" {
		e.model = DefaultOpenAIModel
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultLLMTimeout
	}
	e.client = &http.Client{Timeout: timeout}

	return e
}

// Explain generates a narrative for the assessment. Never returns an error:
// any LLM failure degrades to the rule-based explanation.
func (e *LLMExplainer) Explain(ctx context.Context, a *domain.WalletRiskAssessment) (*domain.RiskExplanation, error) {
	key := cache.Key("explain", a.WalletAddress, fmt.Sprintf("%.0f", a.OverallRiskScore))
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			observability.RecordCacheHit("explain")
			return cached, nil
		}
		observability.RecordCacheMiss("explain")
	}

	explanation, err := e.generate(ctx, a)
	if err != nil {
		e.logger.Error().
			Err(err).
			Str("provider", e.provider).
			Str("wallet", a.WalletAddress).
			Msg("llm explanation failed, using rule-based fallback")
		explanation, _ = e.fallback.Explain(ctx, a)
	} else {
		observability.RecordExplanation(e.provider)
	}

	if e.cache != nil {
		e.cache.Set(key, explanation)
	}

	return explanation, nil
}

func (e *LLMExplainer) generate(ctx context.Context, a *domain.WalletRiskAssessment) (*domain.RiskExplanation, error) {
	if e.endpoint == "" {
		return nil, fmt.Errorf("provider %s: no endpoint configured", e.provider)
	}

	prompt := buildPrompt(a)

	var content string
	var err error
	switch e.provider {
	case ProviderOpenAI:
		content, err = e.callOpenAI(ctx, prompt)
	case ProviderLlama:
		content, err = e.callLlama(ctx, prompt)
	default:
		return nil, fmt.Errorf("unknown provider %q", e.provider)
	}
	if err != nil {
		return nil, err
	}

	var verdict llmVerdict
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return nil, fmt.Errorf("parse llm response: %w", err)
	}
	if verdict.Reason == "" {
		return nil, fmt.Errorf("llm response has no reason")
	}

	// Identity and score come from the assessment; the model only narrates.
	explanation := &domain.RiskExplanation{
		WalletAddress:    a.WalletAddress,
		OverallRiskScore: a.OverallRiskScore,
		Action:           string(a.RecommendedAction),
		AtRiskToken:      verdict.AtRiskToken,
		Reason:           verdict.Reason,
		Suggestions:      verdict.Suggestions,
		Confidence:       verdict.Confidence,
		Source:           e.provider,
	}
	if explanation.AtRiskToken == "" && len(a.AtRiskTokens) > 0 {
		explanation.AtRiskToken = a.AtRiskTokens[0].Symbol
	}

	return explanation, nil
}

// llmVerdict is the JSON object the prompt instructs the model to return.
type llmVerdict struct {
	AtRiskToken string   `json:"at_risk_token"`
	Confidence  float64  `json:"confidence"`
	Reason      string   `json:"reason"`
	Suggestions []string `json:"suggestions"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (e *LLMExplainer) callOpenAI(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a portfolio risk engine that explains crypto risk assessments in clear language."},
			{Role: "user", Content: prompt},
		},
		Temperature: llmTemperature,
		MaxTokens:   llmMaxTokens,
	}

	var resp chatResponse
	if err := e.post(ctx, reqBody, &resp, true); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

type llamaRequest struct {
	Prompt      string   `json:"prompt"`
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

type llamaResponse struct {
	Generation string `json:"generation"`
}

func (e *LLMExplainer) callLlama(ctx context.Context, prompt string) (string, error) {
	reqBody := llamaRequest{
		Prompt:      prompt,
		Temperature: llmTemperature,
		MaxTokens:   llmMaxTokens,
		Stop:        []string{"}"},
	}

	var resp llamaResponse
	if err := e.post(ctx, reqBody, &resp, false); err != nil {
		return "", err
	}

	// The stop token cuts the closing brace off the generation
	content := strings.TrimSpace(resp.Generation)
	if content != "" && !strings.HasSuffix(content, "}") {
		content += "}"
	}
	return content, nil
}

func (e *LLMExplainer) post(ctx context.Context, reqBody, result interface{}, auth bool) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if auth && e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// buildPrompt renders the assessment for the model: every at-risk position
// in full, plus up to three safe positions abbreviated.
func buildPrompt(a *domain.WalletRiskAssessment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Explain this crypto portfolio risk assessment to the wallet owner.\n\n")
	fmt.Fprintf(&b, "Wallet Address: %s\n", a.WalletAddress)
	fmt.Fprintf(&b, "Overall Risk Score: %.2f/100\n", a.OverallRiskScore)
	fmt.Fprintf(&b, "Recommended Action: %s\n\nToken Details:\n", a.RecommendedAction)

	for _, tok := range a.AtRiskTokens {
		fmt.Fprintf(&b, "\nToken: %s\n", tok.Symbol)
		fmt.Fprintf(&b, "Risk Score: %.2f/100\n", tok.RiskScore)
		fmt.Fprintf(&b, "Portfolio %%: %.2f%%\n", tok.PortfolioPercent)
		fmt.Fprintf(&b, "Value: $%.2f\n", tok.USDValue)
		fmt.Fprintf(&b, "Volatility (24h): %.2f%%\n", tok.Volatility24h)
		fmt.Fprintf(&b, "Liquidity: $%.2f\n", tok.LiquidityUSD)
		fmt.Fprintf(&b, "Token Age: %.1f days\n", tok.AgeDays)
		fmt.Fprintf(&b, "Centralization: %.2f/1.0\n", tok.CentralizedScore)
		fmt.Fprintf(&b, "Recommended Action: %s\n", tok.RecommendedAction)
	}

	safe := a.SafeTokens
	if len(safe) > 3 {
		safe = safe[:3]
	}
	for _, tok := range safe {
		fmt.Fprintf(&b, "\nToken: %s\n", tok.Symbol)
		fmt.Fprintf(&b, "Risk Score: %.2f/100\n", tok.RiskScore)
		fmt.Fprintf(&b, "Portfolio %%: %.2f%%\n", tok.PortfolioPercent)
		fmt.Fprintf(&b, "Recommended Action: %s\n", tok.RecommendedAction)
	}

	b.WriteString(`
Respond with a JSON object only:
{
  "at_risk_token": "symbol of the highest risk token",
  "confidence": confidence_between_0_and_1,
  "reason": "clear explanation of the risk assessment in 2-3 sentences",
  "suggestions": ["suggestion 1", "suggestion 2", "suggestion 3"]
}
`)

	return b.String()
}
