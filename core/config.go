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
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address            string
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		DisableReqLogs     bool
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

	EmailConfig struct {
		DefaultFromName  string
		DefaultFromEmail string
		SendgridApiKey   string
	}

	SMSConfig struct {
		AuthKey  string
		SenderID string
		FlowID   string
		Route    string
		Country  string
		BaseURL  string
	}

	// AttendanceConfig holds the attendance policy knobs.
	// Semester boundaries are month/day pairs applied to the academic year's start and end years.
	AttendanceConfig struct {
		Threshold            float64
		NotifyMinDays        int
		NotifyWorkers        int64
		SemesterStartMonth   time.Month
		SemesterStartDay     int
		SemesterEndMonth     time.Month
		SemesterEndDay       int
		DefaultAcademicYear  string
		ShortageScanSchedule string
	}

	Config struct {
		AppName         string
		Env             string
		Build           string
		Debug           bool
		TestMode        bool
		SecretKey       string
		RollbarToken    string
		FrontendBaseURL string

		Server     ServerConfig
		Database   DatabaseConfig
		Email      EmailConfig
		SMS        SMSConfig
		Attendance AttendanceConfig
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c EmailConfig) DefaultFrom() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromEmail}
}

// Calendar returns the semester calendar described by the attendance config.
func (c AttendanceConfig) Calendar() Calendar {
	return Calendar{
		StartMonth: c.SemesterStartMonth,
		StartDay:   c.SemesterStartDay,
		EndMonth:   c.SemesterEndMonth,
		EndDay:     c.SemesterEndDay,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("appName", "Rollcall")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "x7#m2kq!r0d9v$w1n@p4t&z8c5l^j3h6")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "rollcall")
	v.SetDefault("database.user", "rollcall")
	v.SetDefault("database.password", "rollcall")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("email.defaultFromName", "Rollcall")
	v.SetDefault("email.defaultFromEmail", "noreply@localhost")
	v.SetDefault("email.sendgridApiKey", "")

	v.SetDefault("sms.authKey", "")
	v.SetDefault("sms.senderID", "ATTND")
	v.SetDefault("sms.flowID", "")
	v.SetDefault("sms.route", "4")
	v.SetDefault("sms.country", "91")
	v.SetDefault("sms.baseURL", "https://api.msg91.com")

	v.SetDefault("attendance.threshold", 75.0)
	v.SetDefault("attendance.notifyMinDays", 5)
	v.SetDefault("attendance.notifyWorkers", 4)
	v.SetDefault("attendance.semesterStartMonth", int(time.July))
	v.SetDefault("attendance.semesterStartDay", 1)
	v.SetDefault("attendance.semesterEndMonth", int(time.June))
	v.SetDefault("attendance.semesterEndDay", 30)
	v.SetDefault("attendance.defaultAcademicYear", "2024-2025")
	v.SetDefault("attendance.shortageScanSchedule", "")
}

// NewConfig loads the app config from defaults, `config/.env.<env>` (if it exists) and the environment.
// Environment variables are prefixed with the env name, eg: `PROD_DATABASE_HOST`.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return fromViper(v, env)
}

func fromViper(v *viper.Viper, env string) *Config {
	return &Config{
		AppName:         v.GetString("appName"),
		Env:             env,
		Build:           v.GetString("build"),
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		SecretKey:       v.GetString("secretKey"),
		RollbarToken:    v.GetString("rollbarToken"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		Server: ServerConfig{
			Address:            v.GetString("server.address"),
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			DisableReqLogs:     v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Email: EmailConfig{
			DefaultFromName:  v.GetString("email.defaultFromName"),
			DefaultFromEmail: v.GetString("email.defaultFromEmail"),
			SendgridApiKey:   v.GetString("email.sendgridApiKey"),
		},
		SMS: SMSConfig{
			AuthKey:  v.GetString("sms.authKey"),
			SenderID: v.GetString("sms.senderID"),
			FlowID:   v.GetString("sms.flowID"),
			Route:    v.GetString("sms.route"),
			Country:  v.GetString("sms.country"),
			BaseURL:  v.GetString("sms.baseURL"),
		},
		Attendance: AttendanceConfig{
			Threshold:            v.GetFloat64("attendance.threshold"),
			NotifyMinDays:        v.GetInt("attendance.notifyMinDays"),
			NotifyWorkers:        v.GetInt64("attendance.notifyWorkers"),
			SemesterStartMonth:   time.Month(v.GetInt("attendance.semesterStartMonth")),
			SemesterStartDay:     v.GetInt("attendance.semesterStartDay"),
			SemesterEndMonth:     time.Month(v.GetInt("attendance.semesterEndMonth")),
			SemesterEndDay:       v.GetInt("attendance.semesterEndDay"),
			DefaultAcademicYear:  v.GetString("attendance.defaultAcademicYear"),
			ShortageScanSchedule: v.GetString("attendance.shortageScanSchedule"),
		},
	}
}

// NewTestConfig returns the default config with test mode on and no environment lookups.
func NewTestConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)
	v.Set("debug", false)
	v.Set("testMode", true)
	return fromViper(v, "TEST")
}

func (c *Config) String() string {
	return fmt.Sprintf("%s (%s, build %s)", c.AppName, c.Env, c.Build)
}
