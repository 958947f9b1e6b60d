package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the relay
type Config struct {
	App       AppConfig
	Agora     AgoraConfig
	Firebase  FirebaseConfig
	Directory DirectoryConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Notify    NotifyConfig
}

type AppConfig struct {
	Env  string
	Port string
}

// AgoraConfig holds the RTC token signing credentials
type AgoraConfig struct {
	AppID              string
	AppCertificate     string
	RequireCredentials bool
}

// HasCredentials reports whether both halves of the signing pair are set
func (a AgoraConfig) HasCredentials() bool {
	return a.AppID != "" && a.AppCertificate != ""
}

// FirebaseConfig is the service-account bundle plus the Realtime Database URL
type FirebaseConfig struct {
	CredentialsFile string

	Type                    string
	ProjectID               string
	PrivateKeyID            string
	PrivateKey              string
	ClientEmail             string
	ClientID                string
	AuthURI                 string
	TokenURI                string
	AuthProviderX509CertURL string
	ClientX509CertURL       string

	DatabaseURL string
}

// HasServiceAccount reports whether an inline service account is configured
func (f FirebaseConfig) HasServiceAccount() bool {
	return f.ProjectID != "" && f.ClientEmail != "" && f.PrivateKey != ""
}

// Enabled reports whether any Firebase credentials are configured
func (f FirebaseConfig) Enabled() bool {
	return f.CredentialsFile != "" || f.HasServiceAccount()
}

// Directory drivers
const (
	DirectoryFirebase = "firebase"
	DirectoryRedis    = "redis"
	DirectoryPostgres = "postgres"
)

type DirectoryConfig struct {
	Driver    string
	UsersPath string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the PostgreSQL connection string
func (d DBConfig) DSN() string {
	return "host=" + d.Host +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" port=" + d.Port +
		" sslmode=" + d.SSLMode
}

// URL returns the PostgreSQL connection URL (for golang-migrate)
func (d DBConfig) URL() string {
	return "postgres://" + d.User + ":" + d.Password +
		"@" + d.Host + ":" + d.Port +
		"/" + d.Name + "?sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns the Redis address
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	Origins []string
}

// Payload styles for outgoing notifications
const (
	PayloadMobile  = "mobile"
	PayloadWebpush = "webpush"
)

// NotifyConfig controls how the dispatcher shapes and gates notifications
type NotifyConfig struct {
	RequireOptIn      bool
	PayloadStyle      string
	DeepLinkBase      string
	LookupConcurrency int
}

// Load reads configuration from .env file and environment variables
func Load() *Config {
	// Load .env file (ignore error if not exists - e.g. in Docker)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading from environment variables")
	}

	return &Config{
		App: AppConfig{
			Env:  getEnv("APP_ENV", "development"),
			Port: getEnv("APP_PORT", getEnv("PORT", "3000")),
		},
		Agora: AgoraConfig{
			AppID:              getEnv("AGORA_APP_ID", ""),
			AppCertificate:     getEnv("AGORA_APP_CERTIFICATE", ""),
			RequireCredentials: getBool("AGORA_REQUIRE_CREDENTIALS", false),
		},
		Firebase: FirebaseConfig{
			CredentialsFile:         getEnv("FIREBASE_CREDENTIALS_FILE", ""),
			Type:                    getEnv("FIREBASE_TYPE", "service_account"),
			ProjectID:               getEnv("FIREBASE_PROJECT_ID", ""),
			PrivateKeyID:            getEnv("FIREBASE_PRIVATE_KEY_ID", ""),
			PrivateKey:              getEnv("FIREBASE_PRIVATE_KEY", ""),
			ClientEmail:             getEnv("FIREBASE_CLIENT_EMAIL", ""),
			ClientID:                getEnv("FIREBASE_CLIENT_ID", ""),
			AuthURI:                 getEnv("FIREBASE_AUTH_URI", "https://accounts.google.com/o/oauth2/auth"),
			TokenURI:                getEnv("FIREBASE_TOKEN_URI", "https://oauth2.googleapis.com/token"),
			AuthProviderX509CertURL: getEnv("FIREBASE_AUTH_PROVIDER_CERT_URL", "https://www.googleapis.com/oauth2/v1/certs"),
			ClientX509CertURL:       getEnv("FIREBASE_CLIENT_CERT_URL", ""),
			DatabaseURL:             getEnv("FIREBASE_DATABASE_URL", ""),
		},
		Directory: DirectoryConfig{
			Driver:    strings.ToLower(getEnv("DIRECTORY_DRIVER", DirectoryFirebase)),
			UsersPath: getEnv("DIRECTORY_USERS_PATH", "users"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "gotalk"),
			Password: getEnv("DB_PASSWORD", "gotalk"),
			Name:     getEnv("DB_NAME", "gotalk"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		CORS: CORSConfig{
			Origins: strings.Split(getEnv("CORS_ORIGINS", "*"), ","),
		},
		Notify: NotifyConfig{
			RequireOptIn:      getBool("NOTIFY_REQUIRE_OPT_IN", true),
			PayloadStyle:      strings.ToLower(getEnv("NOTIFY_PAYLOAD_STYLE", PayloadMobile)),
			DeepLinkBase:      getEnv("NOTIFY_DEEP_LINK_BASE", ""),
			LookupConcurrency: getInt("NOTIFY_LOOKUP_CONCURRENCY", 8),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
