package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvInfo collects service names and paths from .env
type EnvInfo struct {
	// image name
	ChatService   string
	MarketService string

	// service ports
	ChatServicePort   string
	MarketServicePort string

	// service yaml path
	ChatServiceYAMLPath   string
	MarketServiceYAMLPath string

	// service log path
	ChatServiceLogPath   string
	MarketServiceLogPath string
}

// EnvConfig collected service settings
var (
	EnvConfig = initEnv()
	envConfig EnvInfo
	once      sync.Once
	env       string
)

func initEnv() EnvInfo {
	once.Do(func() {
		path, err := GetPath(".env", 5)
		if err != nil {
			log.Printf("Warning: Could not get .env path: %v", err)
		}

		if err := godotenv.Load(path); err != nil {
			log.Printf("Warning: Could not load .env file: %v", err)
		}

		env = os.Getenv("ENV")

		envConfig = EnvInfo{
			ChatService:   os.Getenv("CHAT_SERVICE"),
			MarketService: os.Getenv("MARKET_SERVICE"),

			ChatServicePort:   os.Getenv("CHAT_SERVICE_PORT"),
			MarketServicePort: os.Getenv("MARKET_SERVICE_PORT"),

			ChatServiceYAMLPath:   os.Getenv("CHAT_SERVICE_YAML"),
			MarketServiceYAMLPath: os.Getenv("MARKET_SERVICE_YAML"),

			ChatServiceLogPath:   os.Getenv("CHAT_SERVICE_LOG"),
			MarketServiceLogPath: os.Getenv("MARKET_SERVICE_LOG"),
		}
	})

	return envConfig
}

// IsProduction check run env
func IsProduction() bool {
	return env == "production"
}

// IsLocal check run env
func IsLocal() bool {
	return env == "local"
}

// LoadConfig load the service YAML into a typed config
func LoadConfig[T any](serviceName string, configPath string) T {
	v := viper.New()
	v.SetConfigName(serviceName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error loading config file: %v", err)
	}

	rawConfig, err := os.ReadFile(v.ConfigFileUsed())
	if err != nil {
		log.Fatalf("Error reading raw config file: %v", err)
	}

	// expand ${} placeholders with environment values before the final parse
	expandedConfig := os.ExpandEnv(string(rawConfig))

	if err := v.ReadConfig(bytes.NewBuffer([]byte(expandedConfig))); err != nil {
		log.Fatalf("Error reading expanded config: %v", err)
	}

	var cfg T
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("Error unmarshaling config: %v", err)
	}
	return cfg
}

// GetRedisSetting get redis address from .env
func GetRedisSetting() (string, string, int) {
	path, err := GetPath(".env", 5)
	if err != nil {
		log.Printf("Warning: Could not get .env path: %v", err)
	}

	if err := godotenv.Load(path); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	password := os.Getenv("REDIS_PASSWORD")

	db := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &db); err != nil {
			log.Printf("Warning: invalid REDIS_DB %q: %v", raw, err)
		}
	}

	return addr, password, db
}

// GetPath use fileName loop maxCount find file path
func GetPath(fileName string, maxCount int) (string, error) {
	path := "./" + fileName

	for i := 0; i < maxCount; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = "../" + path
	}
	return "", errors.New(fileName + " can't find path")
}
