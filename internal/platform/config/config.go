package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	OperatorJWTKey string
}

// Snapshot configures the headless-chrome renderer.
type Snapshot struct {
	ViewportPx    int
	Timeout       time.Duration
	TempDir       string
	ChromeBin     string
	TileURL       string
	LeafletCSSURL string
	LeafletJSURL  string
}

// Pinata configures the content-addressed uploader.
type Pinata struct {
	JWT        string
	UploadURL  string
	GatewayURL string
	Timeout    time.Duration
}

// Ledger configures the blockchain client and the three contracts it talks to.
type Ledger struct {
	RPCURL          string
	ChainID         int64
	PrivateKeyHex   string
	NFTAddress      string
	VerifierAddress string
	LendingAddress  string
	USDTAddress     string
	BTCAddress      string
	ConfirmTimeout  time.Duration
}

// PostgresConfig configures the off-chain verification-request store. An empty
// DSN selects the in-memory store.
type PostgresConfig struct {
	DSN string
}

// RedisConfig configures the parcel read-model cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the workflow-event publisher. Empty brokers disable it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Config is the full application configuration.
type Config struct {
	Server   Server
	Snapshot Snapshot
	Pinata   Pinata
	Ledger   Ledger
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:           envOr("LANDQ_ADDR", ":4000"),
			OperatorJWTKey: envOr("LANDQ_OPERATOR_JWT_KEY", "dev-secret-key-change-in-production"),
		},
		Snapshot: Snapshot{
			ViewportPx:    envInt("LANDQ_SNAPSHOT_VIEWPORT", 1000),
			Timeout:       envDuration("LANDQ_SNAPSHOT_TIMEOUT", 45*time.Second),
			TempDir:       envOr("LANDQ_SNAPSHOT_TMPDIR", os.TempDir()),
			ChromeBin:     os.Getenv("LANDQ_CHROME_BIN"),
			TileURL:       envOr("LANDQ_TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"),
			LeafletCSSURL: envOr("LANDQ_LEAFLET_CSS", "https://unpkg.com/leaflet/dist/leaflet.css"),
			LeafletJSURL:  envOr("LANDQ_LEAFLET_JS", "https://unpkg.com/leaflet/dist/leaflet.js"),
		},
		Pinata: Pinata{
			JWT:        os.Getenv("PINATA_JWT"),
			UploadURL:  envOr("PINATA_UPLOAD_URL", "https://api.pinata.cloud/pinning/pinFileToIPFS"),
			GatewayURL: envOr("PINATA_GATEWAY_URL", "https://gateway.pinata.cloud/ipfs/"),
			Timeout:    envDuration("PINATA_TIMEOUT", 60*time.Second),
		},
		Ledger: Ledger{
			RPCURL:          envOr("LANDQ_RPC_URL", "https://rpc.test2.btcs.network"),
			ChainID:         int64(envInt("LANDQ_CHAIN_ID", 1114)),
			PrivateKeyHex:   os.Getenv("LANDQ_PRIVATE_KEY"),
			NFTAddress:      os.Getenv("LANDQ_NFT_ADDRESS"),
			VerifierAddress: os.Getenv("LANDQ_VERIFIER_ADDRESS"),
			LendingAddress:  os.Getenv("LANDQ_LENDING_ADDRESS"),
			USDTAddress:     os.Getenv("LANDQ_USDT_ADDRESS"),
			BTCAddress:      os.Getenv("LANDQ_BTC_ADDRESS"),
			ConfirmTimeout:  envDuration("LANDQ_CONFIRM_TIMEOUT", 2*time.Minute),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("LANDQ_POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("LANDQ_REDIS_URL"),
			PoolSize:     envInt("LANDQ_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("LANDQ_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("LANDQ_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("LANDQ_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("LANDQ_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("LANDQ_KAFKA_BROKERS")),
			Topic:   envOr("LANDQ_KAFKA_TOPIC", "landq.workflow.events"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
