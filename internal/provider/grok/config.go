package grok

// Config contains the chat relay's upstream settings.
// The streaming call has no client timeout: it lives as long as the inbound
// request context.
type Config struct {
	APIKey  string `env:"GROK_API_KEY"`
	BaseURL string `env:"GROK_BASE_URL" envDefault:"https://api.x.ai/v1"`
}
