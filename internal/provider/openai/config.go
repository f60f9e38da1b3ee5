package openai

// Config contains the vision analyzer configuration. Any OpenAI-compatible
// chat endpoint that accepts image content parts works.
// All fields map to OpenAI SDK options:
//   - APIKey: Maps to option.WithAPIKey()
//   - BaseURL: Maps to option.WithBaseURL()
//   - Timeout: Maps to option.WithRequestTimeout() (in seconds)
//   - MaxRetries: Maps to option.WithMaxRetries()
type Config struct {
	APIKey     string `env:"VISION_API_KEY"`
	BaseURL    string `env:"VISION_BASE_URL"    envDefault:"https://api.x.ai/v1"`
	Timeout    int    `env:"VISION_TIMEOUT"     envDefault:"60"`
	MaxRetries int    `env:"VISION_MAX_RETRIES" envDefault:"2"`
}
