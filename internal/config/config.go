package config

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		PublicURL          string   `mapstructure:"public_url"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
		LoginRatePerMinute int      `mapstructure:"login_rate_per_minute"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
		MaxConns int32  `mapstructure:"max_conns"`
	} `mapstructure:"database"`

	JWT struct {
		Secret             string `mapstructure:"secret"`
		ExpirationHours    int    `mapstructure:"expiration_hours"`
		Issuer             string `mapstructure:"issuer"`
		RecentLoginMinutes int    `mapstructure:"recent_login_minutes"`
		LinkExpiryHours    int    `mapstructure:"link_expiry_hours"`
	} `mapstructure:"jwt"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Storage struct {
		Endpoint  string `mapstructure:"endpoint"`
		Region    string `mapstructure:"region"`
		Bucket    string `mapstructure:"bucket"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"storage"`

	Mail struct {
		APIURL string `mapstructure:"api_url"`
		APIKey string `mapstructure:"api_key"`
		From   string `mapstructure:"from"`
	} `mapstructure:"mail"`

	Razorpay struct {
		KeyID     string `mapstructure:"key_id"`
		KeySecret string `mapstructure:"key_secret"`
	} `mapstructure:"razorpay"`

	Shop struct {
		Name              string `mapstructure:"name"`
		Address           string `mapstructure:"address"`
		Phone             string `mapstructure:"phone"`
		Currency          string `mapstructure:"currency"`
		Timezone          string `mapstructure:"timezone"`
		LowStockThreshold int    `mapstructure:"low_stock_threshold"`
	} `mapstructure:"shop"`
}

// StorageEnabled reports whether object storage credentials are configured.
func (c *Config) StorageEnabled() bool {
	return c.Storage.Bucket != "" && c.Storage.AccessKey != "" && c.Storage.SecretKey != ""
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Name, c.Database.SSLMode)
}

func Load() *Config {
	cfg, err := load("configs/config.yaml")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func load(path string) (*Config, error) {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	// Auto bind environment variables: server.port <- SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	applyEnv(&cfg)

	if cfg.JWT.Secret == "" || cfg.JWT.Secret == "${JWT_SECRET}" {
		if cfg.StorageEnabled() {
			log.Printf("[Config] JWT_SECRET not set, fetching from storage backup...")
			cfg.JWT.Secret = fetchJWTSecret(&cfg)
		}
		if cfg.JWT.Secret == "" {
			return nil, fmt.Errorf("JWT_SECRET not found in environment or storage backup")
		}
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_url", "http://localhost:8080")
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Authorization", "Content-Type"})
	v.SetDefault("server.login_rate_per_minute", 10)
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("jwt.issuer", "repairshop-backend")
	v.SetDefault("jwt.recent_login_minutes", 5)
	v.SetDefault("jwt.link_expiry_hours", 72)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "repairshop")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("shop.name", "Repair Shop")
	v.SetDefault("shop.address", "")
	v.SetDefault("shop.phone", "")
	v.SetDefault("shop.currency", "")
	v.SetDefault("shop.timezone", "UTC")
	v.SetDefault("shop.low_stock_threshold", 3)
}

// applyEnv maps the conventional deployment variables onto the config.
func applyEnv(cfg *Config) {
	str := func(dst *string, key string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
	str(&cfg.Database.Host, "DB_HOST")
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	str(&cfg.Database.User, "DB_USER")
	str(&cfg.Database.Password, "DB_PASSWORD")
	str(&cfg.Database.Name, "DB_NAME")
	str(&cfg.JWT.Secret, "JWT_SECRET")

	// K8s sets REDIS_SERVICE_HOST and REDIS_SERVICE_PORT for services
	if host := os.Getenv("REDIS_SERVICE_HOST"); host != "" {
		port := os.Getenv("REDIS_SERVICE_PORT")
		if port == "" {
			port = "6379"
		}
		cfg.Redis.Addr = host + ":" + port
	}
	str(&cfg.Redis.Addr, "REDIS_ADDR")
	str(&cfg.Redis.Password, "REDIS_PASSWORD")

	str(&cfg.Storage.Endpoint, "S3_ENDPOINT")
	str(&cfg.Storage.Bucket, "S3_BUCKET")
	str(&cfg.Storage.AccessKey, "S3_ACCESS_KEY")
	str(&cfg.Storage.SecretKey, "S3_SECRET_KEY")

	str(&cfg.Mail.APIURL, "MAIL_API_URL")
	str(&cfg.Mail.APIKey, "MAIL_API_KEY")
	str(&cfg.Mail.From, "MAIL_FROM")

	str(&cfg.Razorpay.KeyID, "RAZORPAY_KEY_ID")
	str(&cfg.Razorpay.KeySecret, "RAZORPAY_KEY_SECRET")
}

// fetchJWTSecret reads the signing secret from the storage bucket for
// disaster recovery when the environment lost it.
func fetchJWTSecret(c *Config) string {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.Storage.AccessKey,
			c.Storage.SecretKey,
			"",
		)),
		awsconfig.WithRegion(c.Storage.Region),
	)
	if err != nil {
		log.Printf("[Config] Failed to configure storage client: %v", err)
		return ""
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Storage.Endpoint)
		}
	})

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.Storage.Bucket),
		Key:    aws.String("config/jwt_secret.txt"),
	})
	if err != nil {
		log.Printf("[Config] Failed to fetch JWT secret from storage: %v", err)
		return ""
	}
	defer result.Body.Close()

	secret, err := io.ReadAll(result.Body)
	if err != nil {
		log.Printf("[Config] Failed to read JWT secret: %v", err)
		return ""
	}

	log.Printf("[Config] JWT secret loaded from storage backup")
	return strings.TrimSpace(string(secret))
}
