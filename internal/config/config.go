package config

import (
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Postgres struct {
	Host     string
	Port     string
	DB       string
	User     string
	Password string
	SSLMode  string
}

type Kafka struct {
	Brokers []string
	Topic   string
	Group   string
	Workers int
}

type Breaker struct {
	Threshold   uint32
	OpenTimeout time.Duration
	MaxHalfOpen uint32
}

type Retry struct {
	Attempts     int
	Base         time.Duration
	Max          time.Duration
	JitterFactor float64
}

// Delivery is the two-tier flat-rate charge table: a discounted rate for
// the primary metro region, a higher rate everywhere else.
type Delivery struct {
	PrimaryRegion string
	PrimaryCharge float64
	OtherCharge   float64
}

type Legacy struct {
	WebhookURL string
	Timeout    time.Duration
}

type Media struct {
	Bucket        string
	PublicBaseURL string
}

type Config struct {
	HTTPAddr string

	CacheCap int
	CacheTTL time.Duration

	CartDir    string
	SessionTTL time.Duration
	AdminKey   string

	Pg       Postgres
	Kafka    Kafka
	Breaker  Breaker
	Retry    Retry
	Delivery Delivery
	Legacy   Legacy
	Media    Media
}

// Load fatals on error for simplicity in main().
func Load() Config {
	cfg, err := load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	return cfg
}

func load() (Config, error) {
	_ = godotenv.Load("env/.env")

	cfg := Config{
		HTTPAddr: envDefault("HTTP_ADDR", ":8081"),

		CacheCap: envInt("CACHE_CAP", 1000),
		CacheTTL: envDurationMS("CACHE_TTL", 5*time.Minute),

		CartDir:    envDefault("CART_DIR", "data/carts"),
		SessionTTL: envDurationMS("SESSION_TTL", 24*time.Hour),
		AdminKey:   strings.TrimSpace(os.Getenv("ADMIN_KEY")),

		Pg: Postgres{
			Host:     strings.TrimSpace(os.Getenv("PG_HOST")),
			Port:     strings.TrimSpace(envDefault("PG_PORT", "5432")),
			DB:       strings.TrimSpace(os.Getenv("PG_DB")),
			User:     strings.TrimSpace(os.Getenv("PG_USER")),
			Password: strings.TrimSpace(os.Getenv("PG_PASSWORD")),
			SSLMode:  strings.TrimSpace(envDefault("PG_SSLMODE", "disable")),
		},

		Kafka: Kafka{
			Brokers: splitCSV(strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))),
			Topic:   strings.TrimSpace(envDefault("KAFKA_TOPIC", "catalog.products")),
			Group:   strings.TrimSpace(envDefault("KAFKA_GROUP", "storefront")),
			Workers: envInt("KAFKA_WORKERS", 4),
		},

		Breaker: Breaker{
			Threshold:   envUint32("BREAKER_THRESHOLD", 5),
			OpenTimeout: envDurationMS("BREAKER_OPENTIMEOUT", 10*time.Second),
			MaxHalfOpen: envUint32("BREAKER_MAXHALFOPEN", 3),
		},

		Retry: Retry{
			Attempts:     envInt("RETRY_ATTEMPTS", 5),
			Base:         envDurationMS("RETRY_BASE", 100*time.Millisecond),
			Max:          envDurationMS("RETRY_MAX", 5*time.Second),
			JitterFactor: envFloat64("RETRY_JITTERFACTOR", 0.3),
		},

		Delivery: Delivery{
			PrimaryRegion: envDefault("DELIVERY_PRIMARY_REGION", "Dhaka"),
			PrimaryCharge: envFloat64("DELIVERY_PRIMARY_CHARGE", 60),
			OtherCharge:   envFloat64("DELIVERY_OTHER_CHARGE", 120),
		},

		Legacy: Legacy{
			WebhookURL: strings.TrimSpace(os.Getenv("LEGACY_WEBHOOK_URL")),
			Timeout:    envDurationMS("LEGACY_TIMEOUT", 10*time.Second),
		},

		Media: Media{
			Bucket:        strings.TrimSpace(os.Getenv("MEDIA_BUCKET")),
			PublicBaseURL: envDefault("MEDIA_PUBLIC_BASE_URL", "https://storage.googleapis.com"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	req := map[string]string{
		"PG_HOST":     c.Pg.Host,
		"PG_DB":       c.Pg.DB,
		"PG_USER":     c.Pg.User,
		"PG_PASSWORD": c.Pg.Password,
	}
	for k, v := range req {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &missingEnvError{Keys: missing}
	}

	if c.CacheCap <= 0 {
		log.Printf("CACHE_CAP is %d, adjusting to 1", c.CacheCap)
	}
	if c.Retry.Attempts < 0 {
		log.Printf("RETRY_ATTEMPTS is %d, adjusting to 0", c.Retry.Attempts)
	}
	if c.Retry.Max < c.Retry.Base {
		log.Printf("RETRY_MAX (%v) < RETRY_BASE (%v), adjusting max to base", c.Retry.Max, c.Retry.Base)
	}
	if c.Legacy.WebhookURL == "" {
		log.Printf("LEGACY_WEBHOOK_URL is empty, order sync and OTP email are disabled")
	}
	if c.AdminKey == "" {
		log.Printf("ADMIN_KEY is empty, admin endpoints are disabled")
	}
	// Kafka ingest is optional: no brokers means the consumer is not started.
	return nil
}

// KafkaEnabled reports whether the catalog ingest consumer should run.
func (c Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

type missingEnvError struct{ Keys []string }

func (e *missingEnvError) Error() string {
	return "missing required envs: " + strings.Join(e.Keys, ", ")
}

// DSN builds a proper Postgres URL, safely escaping user/pass and query.
func (c Config) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Pg.User, c.Pg.Password),
		Host:   net.JoinHostPort(c.Pg.Host, c.Pg.Port),
		Path:   "/" + c.Pg.DB,
	}
	q := url.Values{}
	if c.Pg.SSLMode != "" {
		q.Set("sslmode", c.Pg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func envDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return n
}

func envUint32(k string, def uint32) uint32 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	u, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return uint32(u)
}

func envFloat64(k string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %.3f: %v", k, v, def, err)
		return def
	}
	return f
}

// envDurationMS supports either plain integer milliseconds ("1500") or
// Go duration strings ("1.5s", "250ms", "2m").
func envDurationMS(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' }) != -1 {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
			return def
		}
		return d
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
