package cloudinary

// Config contains Cloudinary credentials. Any empty field leaves object
// storage unconfigured.
type Config struct {
	CloudName    string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey       string `env:"CLOUDINARY_API_KEY"`
	APISecret    string `env:"CLOUDINARY_API_SECRET"`
	UploadPrefix string `env:"CLOUDINARY_UPLOAD_PREFIX"`
}

// Enabled reports whether every credential is present.
func (c Config) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}
