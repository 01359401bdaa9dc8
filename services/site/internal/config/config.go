package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ConfigPath is the config file read when neither the caller nor SITE_CONFIG
// names one.
var ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port      string `yaml:"port"`
	LogLevel  string `yaml:"logLevel"`
	// PublicBaseURL is used to build processor return URLs. When empty the
	// request scheme and host are used.
	PublicBaseURL string `yaml:"publicBaseURL"`

	DatabaseURL  string `yaml:"databaseURL"`
	DatabasePath string `yaml:"databasePath"`

	MailServer        string `yaml:"mailServer"`
	MailPort          int    `yaml:"mailPort"`
	MailUseTLS        bool   `yaml:"mailUseTLS"`
	MailUsername      string `yaml:"mailUsername"`
	MailPassword      string `yaml:"mailPassword"`
	MailDefaultSender string `yaml:"mailDefaultSender"`
	AdminEmail        string `yaml:"adminEmail"`

	YooKassaShopID    string   `yaml:"yookassaShopID"`
	YooKassaSecretKey string   `yaml:"yookassaSecretKey"`
	YooKassaAPIURL    string   `yaml:"yookassaAPIURL"`
	WebhookCIDRs      []string `yaml:"webhookAllowedCidrs"`

	CoursePrice       string `yaml:"coursePrice"`
	CourseCurrency    string `yaml:"courseCurrency"`
	CourseDescription string `yaml:"courseDescription"`

	VKMusicURL     string `yaml:"vkMusicURL"`
	YandexMusicURL string `yaml:"yandexMusicURL"`
	Telegram       string `yaml:"telegram"`
	Instagram      string `yaml:"instagram"`
	VKProfile      string `yaml:"vkProfile"`

	RedisAddr              string   `yaml:"redisAddr"`
	RedisPassword          string   `yaml:"redisPassword"`
	TrustedProxyCIDRs      []string `yaml:"trustedProxyCidrs"`
	FormRateLimitPerMinute int      `yaml:"formRateLimitPerMinute"`
	PayRateLimitPerMinute  int      `yaml:"paymentRateLimitPerMinute"`
	RateLimitCapacity      int      `yaml:"rateLimitCapacity"`

	AMQPURL   string `yaml:"amqpURL"`
	AMQPQueue string `yaml:"amqpQueue"`
}

// Defaults returns the configuration used before the file and env are applied.
func Defaults() FileConfig {
	return FileConfig{
		Port:                   "5000",
		LogLevel:               "info",
		DatabasePath:           "music_site.db",
		MailServer:             "smtp.yandex.ru",
		MailPort:               587,
		MailUseTLS:             true,
		AdminEmail:             "admin@example.com",
		YooKassaAPIURL:         "https://api.yookassa.ru/v3",
		CoursePrice:            "4990.00",
		CourseCurrency:         "RUB",
		CourseDescription:      "Курс 'Создай и Опубликуй Свою Музыку'",
		VKMusicURL:             "https://vk.com/artist/ilshatgalimov",
		YandexMusicURL:         "https://music.yandex.ru/artist/ARTIST_ID",
		Telegram:               "https://t.me/ilshator",
		Instagram:              "https://instagram.com/ilshatgalimov",
		VKProfile:              "https://vk.com/ilshatgalimov",
		FormRateLimitPerMinute: 5,
		PayRateLimitPerMinute:  5,
		RateLimitCapacity:      10000,
		AMQPQueue:              "site.purchases",
	}
}

// Load reads config from path, falling back to SITE_CONFIG and then
// ConfigPath. A missing default file is not an error; env overrides and
// defaults still apply.
func Load(path string) (FileConfig, error) {
	cfg := Defaults()
	explicit := path != ""
	if path == "" {
		path = strings.TrimSpace(os.Getenv("SITE_CONFIG"))
		explicit = path != ""
	}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}
	applyEnv(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setString("SITE_PORT", &cfg.Port)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("SITE_PUBLIC_BASE_URL", &cfg.PublicBaseURL)
	setString("DATABASE_URL", &cfg.DatabaseURL)
	setString("DATABASE_PATH", &cfg.DatabasePath)
	setString("MAIL_SERVER", &cfg.MailServer)
	if v := os.Getenv("MAIL_PORT"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.MailPort = n
		}
	}
	if v := os.Getenv("MAIL_USE_TLS"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.MailUseTLS = b
		}
	}
	setString("MAIL_USERNAME", &cfg.MailUsername)
	if v := os.Getenv("MAIL_PASSWORD"); v != "" {
		cfg.MailPassword = v
	}
	setString("MAIL_DEFAULT_SENDER", &cfg.MailDefaultSender)
	setString("ADMIN_EMAIL", &cfg.AdminEmail)
	setString("YOOKASSA_SHOP_ID", &cfg.YooKassaShopID)
	setString("YOOKASSA_SECRET_KEY", &cfg.YooKassaSecretKey)
	setString("YOOKASSA_API_URL", &cfg.YooKassaAPIURL)
	if v := os.Getenv("YOOKASSA_WEBHOOK_CIDRS"); v != "" {
		cfg.WebhookCIDRs = splitCSV(v)
	}
	setString("VK_MUSIC_URL", &cfg.VKMusicURL)
	setString("YANDEX_MUSIC_URL", &cfg.YandexMusicURL)
	setString("TELEGRAM", &cfg.Telegram)
	setString("INSTAGRAM", &cfg.Instagram)
	setString("VK_PROFILE", &cfg.VKProfile)
	setString("REDIS_ADDR", &cfg.RedisAddr)
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("SITE_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	if v := os.Getenv("SITE_FORM_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.FormRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("SITE_PAYMENT_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.PayRateLimitPerMinute = n
		}
	}
	setString("AMQP_URL", &cfg.AMQPURL)
	setString("AMQP_QUEUE", &cfg.AMQPQueue)
}

func validateConfig(cfg FileConfig) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("config: port is required (set in config.yaml or SITE_PORT)")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" && strings.TrimSpace(cfg.DatabasePath) == "" {
		return errors.New("config: databaseURL or databasePath is required")
	}
	if cfg.MailPort <= 0 || cfg.MailPort > 65535 {
		return fmt.Errorf("config: mailPort %d out of range", cfg.MailPort)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(cfg.CoursePrice))
	if err != nil {
		return fmt.Errorf("config: coursePrice: %w", err)
	}
	if !price.IsPositive() {
		return errors.New("config: coursePrice must be positive")
	}
	if strings.TrimSpace(cfg.CourseCurrency) == "" {
		return errors.New("config: courseCurrency is required")
	}
	if cfg.FormRateLimitPerMinute < 0 || cfg.PayRateLimitPerMinute < 0 || cfg.RateLimitCapacity < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	return nil
}

// DSN returns the store DSN: databaseURL when set, otherwise databasePath.
func (c FileConfig) DSN() string {
	if v := strings.TrimSpace(c.DatabaseURL); v != "" {
		return v
	}
	return strings.TrimSpace(c.DatabasePath)
}

// Price returns the validated course price.
func (c FileConfig) Price() decimal.Decimal {
	return decimal.RequireFromString(strings.TrimSpace(c.CoursePrice))
}

// YooKassaConfigured reports whether processor credentials are present.
func (c FileConfig) YooKassaConfigured() bool {
	return c.YooKassaShopID != "" && c.YooKassaSecretKey != ""
}

// YooKassaIncomplete reports whether only one of the processor credentials
// is set. Payments then run in demo mode.
func (c FileConfig) YooKassaIncomplete() bool {
	return (c.YooKassaShopID == "") != (c.YooKassaSecretKey == "")
}

// MailSender returns the From address, defaulting to the SMTP username.
func (c FileConfig) MailSender() string {
	if c.MailDefaultSender != "" {
		return c.MailDefaultSender
	}
	return c.MailUsername
}

// MailConfigured reports whether outbound mail can be sent.
func (c FileConfig) MailConfigured() bool {
	return strings.TrimSpace(c.MailServer) != "" && c.MailSender() != ""
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
