package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	StoreMongo  = "mongo"
	StoreRedis  = "redis"
	StoreMemory = "memory"

	defaultMongoURI = "mongodb://localhost:27017/novenoa"
	defaultDatabase = "novenoa"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	Cards    CardsConfig
	LogLevel string
}

type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Prefix   string
}

// CardsConfig covers the card API behaviour switches.
type CardsConfig struct {
	Store        string
	EmptyPatch   string
	RouteAliases bool
}

// Addr returns host:port for the Redis client.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// LoadConfig loads configuration from environment variables and an optional .env file.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 10)
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("CARDS_COLLECTION", "cards")
	v.SetDefault("CARDS_STORE", StoreMongo)
	v.SetDefault("CARDS_EMPTY_PATCH", "reject")
	v.SetDefault("CARDS_ROUTE_ALIASES", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "card:")
	v.SetDefault("LOG_LEVEL", "info")

	// PORT and MONGO_URI are the names the service historically read.
	port := v.GetString("SERVER_PORT")
	if port == "" {
		port = v.GetString("PORT")
	}
	if port == "" {
		port = "3000"
	}
	uri := v.GetString("MONGODB_URI")
	if uri == "" {
		uri = v.GetString("MONGO_URI")
	}
	if uri == "" {
		uri = defaultMongoURI
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            port,
			Host:            v.GetString("SERVER_HOST"),
			Environment:     v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: time.Duration(v.GetInt("SERVER_SHUTDOWN_TIMEOUT")) * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:        uri,
			Database:   v.GetString("MONGODB_DATABASE"),
			Collection: v.GetString("CARDS_COLLECTION"),
			Timeout:    time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Prefix:   v.GetString("REDIS_PREFIX"),
		},
		Cards: CardsConfig{
			Store:        strings.ToLower(strings.TrimSpace(v.GetString("CARDS_STORE"))),
			EmptyPatch:   v.GetString("CARDS_EMPTY_PATCH"),
			RouteAliases: v.GetBool("CARDS_ROUTE_ALIASES"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	switch cfg.Cards.Store {
	case StoreMongo, StoreRedis, StoreMemory:
	default:
		return nil, fmt.Errorf("CARDS_STORE=%q: want mongo, redis or memory", cfg.Cards.Store)
	}

	if cfg.MongoDB.Database == "" {
		cfg.MongoDB.Database = databaseFromURI(cfg.MongoDB.URI)
	}

	return cfg, nil
}

// databaseFromURI returns the database named in the connection string path, if any.
func databaseFromURI(uri string) string {
	cs, err := connstring.Parse(uri)
	if err != nil || cs.Database == "" {
		return defaultDatabase
	}
	return cs.Database
}
