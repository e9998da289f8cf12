package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type (
	Config struct {
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string
		Storage          string

		Server   ServerConfig
		Database DatabaseConfig
		Jobs     JobsConfig
	}

	ServerConfig struct {
		Host                      string
		DebugHost                 string
		CORSOrigins               []string
		BodyLimit                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		RateLimit                 float64 // requests per second, per client IP
		RateBurst                 int
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	JobsConfig struct {
		Disabled            bool
		OverdueSchedule     string
		RemindersSchedule   string
		PaymentReminderDays int
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

// NewConfig reads the configuration from the environment (and the optional `config/.env.<env>` file).
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "dev")
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Empoderar")
	v.SetDefault("secretKey", "wo8-4s1x=d7*(jk3@t$+ep#q0m_b!h2v&c^96ynfz5)lgr")
	v.SetDefault("frontendBaseUrl", "http://localhost:3000")
	v.SetDefault("defaultFromName", "Empoderar")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("storage", StoragePostgres)

	v.SetDefault("serverHost", ":4000")
	v.SetDefault("serverDebugHost", ":4001")
	v.SetDefault("serverCorsOrigins", "http://localhost:3000")
	v.SetDefault("serverBodyLimit", "1M")
	v.SetDefault("serverShutdownTimeout", 10*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 30*24*time.Hour)
	v.SetDefault("serverRateLimit", 20.0)
	v.SetDefault("serverRateBurst", 40)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "empoderar")
	v.SetDefault("dbUser", "empoderar")
	v.SetDefault("dbPassword", "empoderar")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "postgres")
	v.SetDefault("dbDisableTls", true)

	v.SetDefault("jobsDisabled", false)
	v.SetDefault("jobsOverdueSchedule", "@hourly")
	v.SetDefault("jobsRemindersSchedule", "0 8 * * *")
	v.SetDefault("jobsPaymentReminderDays", 7)

	v.SetEnvPrefix("empoderar")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := &Config{
		Env:             env,
		Build:           v.GetString("build"),
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		AppName:         v.GetString("appName"),
		SecretKey:       v.GetString("secretKey"),
		FrontendBaseURL: v.GetString("frontendBaseUrl"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("defaultFromName"),
			Address: v.GetString("defaultFromEmail"),
		},
		SendgridApiKey: v.GetString("sendgridApiKey"),
		RollbarToken:   v.GetString("rollbarToken"),
		Storage:        strings.ToLower(v.GetString("storage")),
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			DebugHost:                 v.GetString("serverDebugHost"),
			CORSOrigins:               splitList(v.GetString("serverCorsOrigins")),
			BodyLimit:                 v.GetString("serverBodyLimit"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
			RateLimit:                 v.GetFloat64("serverRateLimit"),
			RateBurst:                 v.GetInt("serverRateBurst"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTls"),
		},
		Jobs: JobsConfig{
			Disabled:            v.GetBool("jobsDisabled"),
			OverdueSchedule:     v.GetString("jobsOverdueSchedule"),
			RemindersSchedule:   v.GetString("jobsRemindersSchedule"),
			PaymentReminderDays: v.GetInt("jobsPaymentReminderDays"),
		},
	}

	if err := conf.Check(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}

// Check verifies that the values the application cannot run without are set.
func (conf *Config) Check() error {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.SecretKey, "secretKey"),
		vala.StringNotEmpty(conf.AppName, "appName"),
		vala.StringNotEmpty(conf.Server.Host, "serverHost"),
		vala.StringNotEmpty(conf.Storage, "storage"),
	).Check()
	if err != nil {
		return err
	}
	if conf.Storage != StoragePostgres && conf.Storage != StorageMemory {
		return fmt.Errorf("unknown storage %q", conf.Storage)
	}
	return nil
}

// NewTestConfig returns a Config suitable for tests: in-memory storage, no jobs, no external services.
func NewTestConfig() *Config {
	return &Config{
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		AppName:          "Empoderar",
		SecretKey:        "secret",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "Empoderar", Address: "noreply@localhost"},
		Storage:          StorageMemory,
		Server: ServerConfig{
			Host:                      ":0",
			CORSOrigins:               []string{"*"},
			BodyLimit:                 "1M",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			RateLimit:                 1000,
			RateBurst:                 1000,
		},
		Jobs: JobsConfig{Disabled: true, PaymentReminderDays: 7},
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}
