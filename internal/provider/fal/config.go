package fal

// Config contains fal.ai settings. An empty key leaves speech unconfigured.
type Config struct {
	APIKey  string `env:"FAL_API_KEY"`
	BaseURL string `env:"FAL_BASE_URL" envDefault:"https://fal.run"`
	Timeout int    `env:"FAL_TIMEOUT"  envDefault:"120"`
}
