package replicate

// Config contains Replicate settings. An empty token leaves image and video
// generation unconfigured.
type Config struct {
	APIToken string `env:"REPLICATE_API_TOKEN"`
	BaseURL  string `env:"REPLICATE_BASE_URL"`
}
