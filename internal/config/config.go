package config

import (
	"errors"
	"fmt"
	"net/mail"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/m04kA/SMC-AppointmentService/pkg/timezone"
)

// ErrInvalidConfig возвращается, если конфигурация непригодна для запуска
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config конфигурация сервиса
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Logs      LogsConfig      `toml:"logs"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Booking   BookingConfig   `toml:"booking"`
	Display   DisplayConfig   `toml:"display"`
	Mail      MailConfig      `toml:"mail"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения в формате libpq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type LogsConfig struct {
	File  string `toml:"file"` // пусто = stdout
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type BookingConfig struct {
	SlotDurationMinutes int `toml:"slot_duration_minutes"`
	TimeoutSeconds      int `toml:"timeout_seconds"` // ограничение на транзакцию бронирования
}

// DisplayConfig две фиксированные зоны: для посетителя и для администратора
type DisplayConfig struct {
	SiteName         string `toml:"site_name"`
	VisitorZone      string `toml:"visitor_zone"`
	VisitorZoneLabel string `toml:"visitor_zone_label"`
	AdminZone        string `toml:"admin_zone"`
	AdminZoneLabel   string `toml:"admin_zone_label"`
}

type MailConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	AdminEmail     string `toml:"admin_email"`
	AdminName      string `toml:"admin_name"`
	MeetingLink    string `toml:"meeting_link"`
	VisitorSubject string `toml:"visitor_subject"`
	AdminSubject   string `toml:"admin_subject"`
}

type RateLimitConfig struct {
	Enabled           bool `toml:"enabled"`
	RequestsPerMinute int  `toml:"requests_per_minute"`
	Burst             int  `toml:"burst"`
	// Сети или адреса прокси, которым разрешено передавать X-Forwarded-For.
	// Пусто = заголовок игнорируется.
	TrustedProxies []string `toml:"trusted_proxies"`
}

// TrustedProxyPrefixes разбирает trusted_proxies. Одиночный адрес считается сетью из одного хоста.
func (r RateLimitConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(r.TrustedProxies))
	for _, raw := range r.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if prefix, err := netip.ParsePrefix(raw); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: ratelimit.trusted_proxies: %q is neither an address nor a CIDR", ErrInvalidConfig, raw)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// Load читает .env (если есть), затем TOML файл, затем переопределения из окружения.
// Отсутствующий файл конфигурации не ошибка: используются значения по умолчанию.
func Load(path string) (*Config, error) {
	// .env опционален, переменные окружения процесса имеют приоритет
	_ = godotenv.Load()

	// Значения по умолчанию применяются после чтения файла и окружения,
	// чтобы производные значения (тема письма) учитывали заданные поля
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to stat %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default конфигурация по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	setDefaultInt(&c.Server.HTTPPort, 8080)
	setDefaultInt(&c.Server.ReadTimeout, 10)
	setDefaultInt(&c.Server.WriteTimeout, 30)
	setDefaultInt(&c.Server.IdleTimeout, 60)
	setDefaultInt(&c.Server.ShutdownTimeout, 15)

	setDefaultString(&c.Database.Host, "localhost")
	setDefaultInt(&c.Database.Port, 5432)
	setDefaultString(&c.Database.User, "postgres")
	setDefaultString(&c.Database.DBName, "appointments")
	setDefaultString(&c.Database.SSLMode, "disable")
	setDefaultInt(&c.Database.MaxOpenConns, 10)
	setDefaultInt(&c.Database.MaxIdleConns, 5)
	setDefaultInt(&c.Database.ConnMaxLifetime, 300)

	setDefaultString(&c.Logs.Level, "info")

	setDefaultString(&c.Metrics.Path, "/metrics")
	setDefaultString(&c.Metrics.ServiceName, "smc_appointment_service")

	setDefaultInt(&c.Booking.SlotDurationMinutes, 20)
	setDefaultInt(&c.Booking.TimeoutSeconds, 10)

	setDefaultString(&c.Display.SiteName, "Website Hacking Lab")
	setDefaultString(&c.Display.VisitorZone, "America/Los_Angeles")
	setDefaultString(&c.Display.VisitorZoneLabel, "Pacific Time")
	setDefaultString(&c.Display.AdminZone, "America/New_York")
	setDefaultString(&c.Display.AdminZoneLabel, "Eastern Time")

	setDefaultString(&c.Mail.BaseURL, "https://api.postmarkapp.com")
	setDefaultInt(&c.Mail.TimeoutSeconds, 10)
	setDefaultString(&c.Mail.VisitorSubject, c.Display.SiteName+" Time Confirmation")
	setDefaultString(&c.Mail.AdminSubject, "New Appointment Booking")

	setDefaultInt(&c.RateLimit.RequestsPerMinute, 10)
	setDefaultInt(&c.RateLimit.Burst, 5)
}

// applyEnv переопределяет секреты и адреса значениями из окружения
func (c *Config) applyEnv() error {
	overrides := []struct {
		key string
		dst *string
	}{
		{"DB_HOST", &c.Database.Host},
		{"DB_USER", &c.Database.User},
		{"DB_PASSWORD", &c.Database.Password},
		{"DB_NAME", &c.Database.DBName},
		{"POSTMARK_API_KEY", &c.Mail.APIKey},
		{"ADMIN_EMAIL", &c.Mail.AdminEmail},
		{"ADMIN_NAME", &c.Mail.AdminName},
		{"MEETING_LINK", &c.Mail.MeetingLink},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.dst = v
		}
	}

	intOverrides := []struct {
		key string
		dst *int
	}{
		{"DB_PORT", &c.Database.Port},
		{"HTTP_PORT", &c.Server.HTTPPort},
		{"SLOT_DURATION_MINUTES", &c.Booking.SlotDurationMinutes},
	}
	for _, o := range intOverrides {
		v, ok := os.LookupEnv(o.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer: %v", ErrInvalidConfig, o.key, err)
		}
		*o.dst = n
	}

	return nil
}

// Validate проверяет значения, без которых сервис не может работать корректно
func (c *Config) Validate() error {
	if c.Booking.SlotDurationMinutes <= 0 {
		return fmt.Errorf("%w: booking.slot_duration_minutes must be positive", ErrInvalidConfig)
	}
	if c.Mail.AdminEmail == "" {
		return fmt.Errorf("%w: mail.admin_email is required", ErrInvalidConfig)
	}
	if _, err := mail.ParseAddress(c.Mail.AdminEmail); err != nil {
		return fmt.Errorf("%w: mail.admin_email is not a valid address: %v", ErrInvalidConfig, err)
	}
	if _, err := timezone.Load(c.Display.VisitorZone); err != nil {
		return fmt.Errorf("%w: display.visitor_zone: %v", ErrInvalidConfig, err)
	}
	if _, err := timezone.Load(c.Display.AdminZone); err != nil {
		return fmt.Errorf("%w: display.admin_zone: %v", ErrInvalidConfig, err)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("%w: ratelimit.requests_per_minute must be positive", ErrInvalidConfig)
	}
	if _, err := c.RateLimit.TrustedProxyPrefixes(); err != nil {
		return err
	}
	return nil
}

func setDefaultInt(dst *int, value int) {
	if *dst == 0 {
		*dst = value
	}
}

func setDefaultString(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
