package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	OpenAI    OpenAIConfig
	Spotify   SpotifyConfig
	Generator GeneratorConfig
	R2        R2Config
	Zitadel   ZitadelConfig
	Gateway   GatewayConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	GeneratePerHour int
	SearchPerMin    int
	SavePerHour     int
	ExportPerHour   int
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// SpotifyConfig holds Web API settings. Access tokens are caller-supplied
// per request, never stored here.
type SpotifyConfig struct {
	BaseURL string
	Market  string
	Timeout int // seconds
}

// GeneratorConfig holds the tunables of the recommendation pipeline.
type GeneratorConfig struct {
	TargetSize     int // tracks collected before discovery stops
	ArtistCap      int // max accepted tracks per artist
	MinViableSize  int // below this, pad with seed tracks
	PerArtistTake  int // top tracks taken per suggested artist
	SearchSkip     int // leading search hits skipped per query
	SearchTake     int // search hits considered per query after the skip
	RelatedArtists int // seed artists expanded through related-artist lookup
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type ZitadelConfig struct {
	Domain   string
	ClientID string
	Issuer   string
}

type GatewayConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("OPENAI_API_KEY")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("ZITADEL_CLIENT_ID")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = viper.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = viper.BindEnv("openai.model", "OPENAI_MODEL")
	_ = viper.BindEnv("spotify.base_url", "SPOTIFY_BASE_URL")
	_ = viper.BindEnv("spotify.market", "SPOTIFY_MARKET")
	_ = viper.BindEnv("spotify.timeout", "SPOTIFY_TIMEOUT")
	_ = viper.BindEnv("generator.target_size", "GENERATOR_TARGET_SIZE")
	_ = viper.BindEnv("generator.artist_cap", "GENERATOR_ARTIST_CAP")
	_ = viper.BindEnv("generator.min_viable_size", "GENERATOR_MIN_VIABLE_SIZE")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = viper.BindEnv("zitadel.domain", "ZITADEL_DOMAIN")
	_ = viper.BindEnv("zitadel.client_id", "ZITADEL_CLIENT_ID")
	_ = viper.BindEnv("zitadel.issuer", "ZITADEL_ISSUER")
	_ = viper.BindEnv("gateway.enabled", "GATEWAY_ENABLED")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.generate_per_hour", 20)
	viper.SetDefault("ratelimit.search_per_min", 60)
	viper.SetDefault("ratelimit.save_per_hour", 30)
	viper.SetDefault("ratelimit.export_per_hour", 20)

	// OpenAI defaults
	viper.SetDefault("openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("openai.model", "gpt-4o-mini")

	// Spotify defaults
	viper.SetDefault("spotify.base_url", "https://api.spotify.com/v1")
	viper.SetDefault("spotify.market", "US")
	viper.SetDefault("spotify.timeout", 15)

	// Generator defaults. Earlier revisions of the pipeline shipped with
	// cap=1 and target=15; cap=2/target=20 is the current behavior.
	viper.SetDefault("generator.target_size", 20)
	viper.SetDefault("generator.artist_cap", 2)
	viper.SetDefault("generator.min_viable_size", 10)
	viper.SetDefault("generator.per_artist_take", 2)
	viper.SetDefault("generator.search_skip", 2)
	viper.SetDefault("generator.search_take", 10)
	viper.SetDefault("generator.related_artists", 3)

	// Gateway defaults
	viper.SetDefault("gateway.enabled", false)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			GeneratePerHour: viper.GetInt("ratelimit.generate_per_hour"),
			SearchPerMin:    viper.GetInt("ratelimit.search_per_min"),
			SavePerHour:     viper.GetInt("ratelimit.save_per_hour"),
			ExportPerHour:   viper.GetInt("ratelimit.export_per_hour"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  viper.GetString("openai.api_key"),
			BaseURL: viper.GetString("openai.base_url"),
			Model:   viper.GetString("openai.model"),
		},
		Spotify: SpotifyConfig{
			BaseURL: viper.GetString("spotify.base_url"),
			Market:  viper.GetString("spotify.market"),
			Timeout: viper.GetInt("spotify.timeout"),
		},
		Generator: GeneratorConfig{
			TargetSize:     viper.GetInt("generator.target_size"),
			ArtistCap:      viper.GetInt("generator.artist_cap"),
			MinViableSize:  viper.GetInt("generator.min_viable_size"),
			PerArtistTake:  viper.GetInt("generator.per_artist_take"),
			SearchSkip:     viper.GetInt("generator.search_skip"),
			SearchTake:     viper.GetInt("generator.search_take"),
			RelatedArtists: viper.GetInt("generator.related_artists"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
		Zitadel: ZitadelConfig{
			Domain:   viper.GetString("zitadel.domain"),
			ClientID: viper.GetString("zitadel.client_id"),
			Issuer:   viper.GetString("zitadel.issuer"),
		},
		Gateway: GatewayConfig{
			Enabled: viper.GetBool("gateway.enabled"),
		},
	}

	return cfg, nil
}
