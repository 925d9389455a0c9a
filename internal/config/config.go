package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/reclaim/internal/constants"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed search.yaml
var searchYAML []byte

type Config struct {
	Web       WebConfig
	Embedding EmbeddingConfig
	Search    SearchConfig
	Fetch     FetchConfig
	Match     MatchConfig
	Workspace WorkspaceConfig
	Log       LogConfig
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // extra CORS origins, localhost is always allowed
}

type EmbeddingConfig struct {
	URL       string        // face embedding server, defaults to http://localhost:8000
	Timeout   time.Duration // per extraction call
	RateLimit float64       // requests per second, 0 disables limiting
}

type SearchConfig struct {
	Backend       string        `yaml:"-"` // "bing" or "local"
	BingAPIKey    string        `yaml:"-"`
	BingEndpoint  string        `yaml:"-"` // defaults to the public v7 endpoint
	LocalDir      string        `yaml:"-"` // dataset root for the local backend
	MaxImages     int           `yaml:"-"` // per query variant
	Timeout       time.Duration `yaml:"-"`
	QuerySuffixes []string      `yaml:"query_suffixes"`
}

type FetchConfig struct {
	Timeout   time.Duration
	MaxBytes  int64
	LocalRoot string // optional confinement for local file locators
}

type MatchConfig struct {
	Threshold       float64
	Concurrency     int
	PipelineTimeout time.Duration
}

type WorkspaceConfig struct {
	Dir string // parent directory for request workspaces, defaults to os.TempDir()
}

type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a non-negative float. Invalid or negative values yield the default.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return f
	}
	return defaultVal
}

// envPositiveFloat reads a float greater than zero. A set but unusable value is
// reported and the default kept.
func envPositiveFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	logrus.WithFields(logrus.Fields{
		"key":     key,
		"value":   s,
		"default": defaultVal,
	}).Warn("Ignoring invalid value, it must be a number greater than 0")
	return defaultVal
}

// envDuration accepts Go duration syntax ("30s", "2m") or a plain number of seconds.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	var search SearchConfig
	if err := yaml.Unmarshal(searchYAML, &search); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded search.yaml: " + err.Error())
	}

	search.Backend = strings.ToLower(envString("SEARCH_BACKEND", "bing"))
	search.BingAPIKey = os.Getenv("BING_API_KEY")
	search.BingEndpoint = os.Getenv("BING_ENDPOINT")
	search.LocalDir = envString("SEARCH_LOCAL_DIR", "dataset")
	search.MaxImages = envInt("SEARCH_MAX_IMAGES", constants.DefaultMaxImagesPerQuery)
	search.Timeout = envDuration("SEARCH_TIMEOUT", constants.DefaultSearchTimeout)

	return &Config{
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 5000),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Embedding: EmbeddingConfig{
			URL:       os.Getenv("EMBEDDING_URL"),
			Timeout:   envDuration("EMBEDDING_TIMEOUT", constants.DefaultEmbeddingTimeout),
			RateLimit: envFloat("EMBEDDING_RATE_LIMIT", 0),
		},
		Search: search,
		Fetch: FetchConfig{
			Timeout:   envDuration("FETCH_TIMEOUT", constants.DefaultFetchTimeout),
			MaxBytes:  int64(envInt("FETCH_MAX_BYTES", constants.MaxFetchSize)),
			LocalRoot: os.Getenv("FETCH_LOCAL_ROOT"),
		},
		Match: MatchConfig{
			Threshold:       envPositiveFloat("MATCH_THRESHOLD", constants.DefaultDistanceThreshold),
			Concurrency:     envInt("MATCH_CONCURRENCY", constants.DefaultConcurrency),
			PipelineTimeout: envDuration("PIPELINE_TIMEOUT", constants.DefaultPipelineTimeout),
		},
		Workspace: WorkspaceConfig{
			Dir: os.Getenv("WORKSPACE_DIR"),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "text"),
		},
	}
}
