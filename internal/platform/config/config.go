package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	LogLevel       string
	MaxImportBytes int64

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	LDAP     LDAPConfig
}

// DatabaseConfig selects the SQL driver and DSN. An empty URL runs the
// service on in-memory stores, whose user directory and voting catalog are
// filled from SeedUsers ("1:ana,2:bea") and SeedVotings ("1,2").
type DatabaseConfig struct {
	Driver      string
	URL         string
	SeedUsers   string
	SeedVotings string
}

// SeedUser is one user of the in-memory directory.
type SeedUser struct {
	ID       int64
	Username string
}

// Seed parses SeedUsers and SeedVotings. Ids must be positive integers.
func (c DatabaseConfig) Seed() ([]SeedUser, []int64, error) {
	var users []SeedUser
	for _, item := range splitList(c.SeedUsers) {
		rawID, name, ok := strings.Cut(item, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("seed user %q: want id:username", item)
		}
		userID, err := positiveInt(rawID)
		if err != nil {
			return nil, nil, fmt.Errorf("seed user %q: %w", item, err)
		}
		users = append(users, SeedUser{ID: userID, Username: name})
	}

	var votings []int64
	for _, item := range splitList(c.SeedVotings) {
		votingID, err := positiveInt(item)
		if err != nil {
			return nil, nil, fmt.Errorf("seed voting %q: %w", item, err)
		}
		votings = append(votings, votingID)
	}
	return users, votings, nil
}

func positiveInt(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q is not a positive integer", s)
	}
	return n, nil
}

// RedisConfig configures the eligibility cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures the audit topic. No brokers means audit events stay in memory.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
	Partitions int32
}

type JWTConfig struct {
	SigningKey string
	Issuer     string
}

// LDAPConfig configures roll import from directory groups. An empty URL
// disables the LDAP import endpoint.
type LDAPConfig struct {
	URL          string
	BindDN       string
	BindPassword string
	BaseDN       string
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present.
func FromEnv() Server {
	_ = godotenv.Load()

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:           getenv("CENSUS_ADDR", ":8080"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		MaxImportBytes: int64(getint("MAX_IMPORT_BYTES", 10<<20)),
		Database: DatabaseConfig{
			Driver:      getenv("DATABASE_DRIVER", "postgres"),
			URL:         os.Getenv("DATABASE_URL"),
			SeedUsers:   os.Getenv("SEED_USERS"),
			SeedVotings: os.Getenv("SEED_VOTINGS"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getint("REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getduration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getduration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getduration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     getduration("ELIGIBILITY_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getenv("AUDIT_TOPIC", "census.audit"),
			Partitions: int32(getint("AUDIT_TOPIC_PARTITIONS", 3)),
		},
		JWT: JWTConfig{
			SigningKey: jwtSigningKey,
			Issuer:     getenv("JWT_ISSUER", "decide"),
		},
		LDAP: LDAPConfig{
			URL:          os.Getenv("LDAP_URL"),
			BindDN:       os.Getenv("LDAP_BIND_DN"),
			BindPassword: os.Getenv("LDAP_BIND_PASSWORD"),
			BaseDN:       os.Getenv("LDAP_BASE_DN"),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getduration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
