package payment

// Config holds the payment provider settings.
type Config struct {
	// SecretKey is the Stripe secret API key. Empty disables the feature.
	SecretKey string `mapstructure:"secret_key" default:""`
	// WebhookSecret verifies Stripe-Signature headers.
	WebhookSecret string `mapstructure:"webhook_secret" default:""`
	// SiteURL is the public site used for the success and cancel URLs.
	SiteURL string `mapstructure:"site_url" default:"http://localhost:8888"`
	// ProductName is the checkout line item name.
	ProductName string `mapstructure:"product_name" default:"Enhanced Press Pass"`
	// ImageURL is the checkout line item image.
	ImageURL string `mapstructure:"image_url" default:"https://freepresspass.com/assets/press-pass-preview.jpg"`
	// UnitAmount is the price in the smallest currency unit.
	UnitAmount int64 `mapstructure:"unit_amount" default:"1500"`
	// Currency is the ISO currency code.
	Currency string `mapstructure:"currency" default:"usd"`
}

// Enabled reports whether a secret key is configured.
func (c Config) Enabled() bool {
	return c.SecretKey != ""
}
