package model

import "time"

// Config is the full analyzer configuration. It is built once (defaults +
// config file + env + flags) and passed into constructors; there is no
// process-wide mutable configuration.
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Extract     ExtractConfig     `yaml:"extract"`
	PDF         PDFConfig         `yaml:"pdf"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Server      ServerConfig      `yaml:"server"`
}

// LLMConfig configures the classification endpoint client.
type LLMConfig struct {
	// BaseURL of the OpenAI-compatible chat completions API.
	BaseURL string `yaml:"base_url"`
	// APIKey is the bearer token. Usually set via CAOSCAN_API_KEY or
	// OPENROUTER_API_KEY rather than the config file.
	APIKey string `yaml:"api_key,omitempty"`
	// Model is the completion model name.
	Model string `yaml:"model"`
	// Timeout bounds one request round-trip; expiry counts as a
	// retryable transient failure.
	Timeout time.Duration `yaml:"timeout"`
	// MaxRetries is the attempt budget per sentence.
	MaxRetries int `yaml:"max_retries"`
	// RetryDelay is the fixed inter-attempt delay (not exponential).
	RetryDelay time.Duration `yaml:"retry_delay"`
	// RequestInterval paces consecutive classification calls.
	RequestInterval time.Duration `yaml:"request_interval"`
	// MaxTokens caps the completion length.
	MaxTokens int `yaml:"max_tokens"`

	// Referer and Title are forwarded as the HTTP-Referer and X-Title
	// attribution headers expected by OpenRouter.
	Referer string `yaml:"referer,omitempty"`
	Title   string `yaml:"title,omitempty"`

	// Proxy settings for the endpoint client.
	HTTPProxy  string `yaml:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty"`
	NoProxy    string `yaml:"no_proxy,omitempty"`
}

// ExtractConfig configures the candidate sentence filter.
type ExtractConfig struct {
	// Keywords is the wage-domain keyword set, matched case-insensitively.
	Keywords []string `yaml:"keywords"`
}

// PDFConfig configures the text extraction collaborator.
type PDFConfig struct {
	Pdftotext string `yaml:"pdftotext"` // binary name or absolute path
	Pdftoppm  string `yaml:"pdftoppm"`
	Tesseract string `yaml:"tesseract"`
	// Lang is the tesseract language pack; CAO documents are Dutch.
	Lang string `yaml:"lang"`
	// DPI is the rasterization resolution for scanned PDFs.
	DPI int `yaml:"dpi"`
	// MaxPages caps OCR work per document; 0 = no limit.
	MaxPages int `yaml:"max_pages"`
	// MinTextLength is the threshold below which digital extraction is
	// considered unusable and OCR is attempted.
	MinTextLength int `yaml:"min_text_length"`
}

// CacheConfig configures the classification result cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	// Dir enables a persistent disk layer when set.
	Dir string        `yaml:"dir,omitempty"`
	TTL time.Duration `yaml:"ttl"`
}

// ConcurrencyConfig bounds parallelism.
type ConcurrencyConfig struct {
	// Documents is the number of documents analyzed in parallel.
	// Sentence classification stays paced through one shared limiter
	// regardless of this value.
	Documents int `yaml:"documents"`
}

// ServerConfig configures the upload server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
}

// DefaultKeywords is the wage-domain keyword set used when none is
// configured.
var DefaultKeywords = []string{
	"loon", "salaris", "cao", "verhoging", "stijging", "toeslag", "schaalsalarissen",
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:         "https://openrouter.ai/api/v1",
			Model:           "deepseek/deepseek-r1:free",
			Timeout:         45 * time.Second,
			MaxRetries:      3,
			RetryDelay:      2 * time.Second,
			RequestInterval: 1500 * time.Millisecond,
			MaxTokens:       500,
			Referer:         "https://localhost/sakkal-cao-analyzer",
			Title:           "Team Sakkal CAO Analyzer",
		},
		Extract: ExtractConfig{
			Keywords: append([]string(nil), DefaultKeywords...),
		},
		PDF: PDFConfig{
			Pdftotext:     "pdftotext",
			Pdftoppm:      "pdftoppm",
			Tesseract:     "tesseract",
			Lang:          "nld",
			DPI:           300,
			MinTextLength: 100,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Documents: 1,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  50 << 20,
		},
	}
}
