package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// HTTP holds the inbound server settings, including the CORS origins the
// storefront, admin and auth surfaces are allowed to call from.
type HTTP struct {
	Port         string
	StoreCORS    []string
	AdminCORS    []string
	AuthCORS     []string
	JWTSecret    string
	CookieSecret string
	StaticDir    string
}

// Pesapal holds the payment-gateway credentials and callback URLs.
type Pesapal struct {
	ConsumerKey    string
	ConsumerSecret string
	Sandbox        bool
	IPNURL         string
	CallbackURL    string

	// DegradeOnError opts in to the legacy behavior of synthesizing a
	// pending/authorized result when the gateway is unreachable. Off by
	// default: a submit failure then surfaces as an error instead of a
	// phantom pending session.
	DegradeOnError bool
}

// Payload holds the document-store settings for the file provider.
type Payload struct {
	URL        string
	APIKey     string
	Collection string
}

// Observability toggles tracing and names the service for exporters.
type Observability struct {
	TracingEnabled   bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

type Config struct {
	Environment   string
	DatabaseURL   string
	HTTP          HTTP
	Pesapal       Pesapal
	Payload       Payload
	Observability Observability
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// Load reads configuration from the environment. A .env file is honored when
// present, matching how the Node stack loaded its environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PORT", "9000")
	v.SetDefault("STATIC_DIR", "static")
	v.SetDefault("PAYLOAD_URL", "http://localhost:3001")
	v.SetDefault("PAYLOAD_COLLECTION", "media")
	v.SetDefault("PESAPAL_IPN_URL", "http://localhost:9000/api/webhooks/pesapal")
	v.SetDefault("PESAPAL_CALLBACK_URL", "http://localhost:9000/checkout/complete")
	v.SetDefault("OTEL_SAMPLING_RATIO", 0.1)

	cfg := Config{
		Environment: v.GetString("ENVIRONMENT"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		HTTP: HTTP{
			Port:         v.GetString("PORT"),
			StoreCORS:    splitOrigins(v.GetString("STORE_CORS")),
			AdminCORS:    splitOrigins(v.GetString("ADMIN_CORS")),
			AuthCORS:     splitOrigins(v.GetString("AUTH_CORS")),
			JWTSecret:    v.GetString("JWT_SECRET"),
			CookieSecret: v.GetString("COOKIE_SECRET"),
			StaticDir:    v.GetString("STATIC_DIR"),
		},
		Pesapal: Pesapal{
			ConsumerKey:    v.GetString("PESAPAL_CONSUMER_KEY"),
			ConsumerSecret: v.GetString("PESAPAL_CONSUMER_SECRET"),
			Sandbox:        !strings.EqualFold(v.GetString("ENVIRONMENT"), "production"),
			IPNURL:         v.GetString("PESAPAL_IPN_URL"),
			CallbackURL:    v.GetString("PESAPAL_CALLBACK_URL"),
			DegradeOnError: v.GetBool("PESAPAL_DEGRADE_ON_ERROR"),
		},
		Payload: Payload{
			URL:        strings.TrimSuffix(v.GetString("PAYLOAD_URL"), "/"),
			APIKey:     v.GetString("PAYLOAD_API_KEY"),
			Collection: v.GetString("PAYLOAD_COLLECTION"),
		},
		Observability: Observability{
			TracingEnabled:   v.GetBool("OTEL_TRACING_ENABLED"),
			ExporterEndpoint: v.GetString("OTEL_EXPORTER_ENDPOINT"),
			ExporterProtocol: v.GetString("OTEL_EXPORTER_PROTOCOL"),
			SamplingRatio:    v.GetFloat64("OTEL_SAMPLING_RATIO"),
		},
	}

	if v.IsSet("PESAPAL_SANDBOX") {
		cfg.Pesapal.Sandbox = v.GetBool("PESAPAL_SANDBOX")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces required fields. In development, missing secrets fall back
// to documented insecure defaults; production refuses to start without them.
func (c *Config) Validate() error {
	if c.IsProduction() {
		var missing []string
		if strings.TrimSpace(c.DatabaseURL) == "" {
			missing = append(missing, "DATABASE_URL")
		}
		if strings.TrimSpace(c.HTTP.JWTSecret) == "" {
			missing = append(missing, "JWT_SECRET")
		}
		if strings.TrimSpace(c.HTTP.CookieSecret) == "" {
			missing = append(missing, "COOKIE_SECRET")
		}
		if strings.TrimSpace(c.Pesapal.ConsumerKey) == "" {
			missing = append(missing, "PESAPAL_CONSUMER_KEY")
		}
		if strings.TrimSpace(c.Pesapal.ConsumerSecret) == "" {
			missing = append(missing, "PESAPAL_CONSUMER_SECRET")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
		}
		return nil
	}

	if strings.TrimSpace(c.HTTP.JWTSecret) == "" {
		c.HTTP.JWTSecret = "supersecret"
	}
	if strings.TrimSpace(c.HTTP.CookieSecret) == "" {
		c.HTTP.CookieSecret = "supersecret"
	}
	return nil
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
