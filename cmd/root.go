package cmd

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/jobmatch/internal/matching"
	"github.com/spigell/jobmatch/internal/ranking"
	"github.com/spigell/jobmatch/internal/repository"
	"github.com/spigell/jobmatch/internal/vectorstore"
)

const (
	app       = "jobmatch"
	envPrefix = "JOBMATCH"
)

type Config struct {
	Matching   *MatchingConfig   `mapstructure:"matching"`
	Ranking    ranking.Config    `mapstructure:"ranking"`
	Store      *StoreConfig      `mapstructure:"store"`
	Embedding  *EmbeddingConfig  `mapstructure:"embedding"`
	Repository repository.Config `mapstructure:"repository"`
}

type MatchingConfig struct {
	Weights           matching.Weights `mapstructure:"weights"`
	NoMatchSimilarity float64          `mapstructure:"no-match-similarity"`
	SimilarityK       int              `mapstructure:"similarity-k"`
	SimilarityTimeout time.Duration    `mapstructure:"similarity-timeout"`
	UpsertOnMatch     bool             `mapstructure:"upsert-on-match"`
}

type StoreConfig struct {
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Cooldown time.Duration `mapstructure:"cooldown"`
	Chroma   *ChromaConfig `mapstructure:"chroma"`
}

type ChromaConfig struct {
	URL        string  `mapstructure:"url"`
	APIVersion string  `mapstructure:"api-version"`
	Tenant     string  `mapstructure:"tenant"`
	Database   string  `mapstructure:"database"`
	Collection string  `mapstructure:"collection"`
	TokenFile  string  `mapstructure:"token-file"`
	RateLimit  float64 `mapstructure:"rate-limit"`
}

type EmbeddingConfig struct {
	Provider       string        `mapstructure:"provider"`
	HashDimensions int           `mapstructure:"hash-dimensions"`
	Gemini         *GeminiConfig `mapstructure:"gemini"`
	Cache          *CacheConfig  `mapstructure:"cache"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type CacheConfig struct {
	RedisURL string        `mapstructure:"redis-url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobmatch scores candidates against job postings and ranks postings for a candidate",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// .env is optional; real environment variables still win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if err := viper.BindEnv("embedding.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	setDefaults(viper.GetViper())
	bindEnv(viper.GetViper())

	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Defaults are enough to run; only an explicit or broken config is fatal.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

// bindEnv lets JOBMATCH_MATCHING_WEIGHTS_SKILLS override matching.weights.skills.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func setDefaults(v *viper.Viper) {
	w := matching.DefaultWeights()
	engine := matching.DefaultConfig()
	rank := ranking.DefaultConfig()

	v.SetDefault("matching.weights.skills", w.Skills)
	v.SetDefault("matching.weights.experience", w.Experience)
	v.SetDefault("matching.weights.track", w.Track)
	v.SetDefault("matching.weights.similarity", w.Similarity)
	v.SetDefault("matching.weights.overlap", w.Overlap)
	v.SetDefault("matching.no-match-similarity", engine.NoMatchSimilarity)
	v.SetDefault("matching.similarity-k", engine.Neighbors)
	v.SetDefault("matching.similarity-timeout", engine.SimilarityTimeout)
	v.SetDefault("matching.upsert-on-match", engine.UpsertOnMatch)

	v.SetDefault("ranking.prefilter-window", rank.PrefilterWindow)
	v.SetDefault("ranking.result-window", rank.ResultWindow)
	v.SetDefault("ranking.concurrency", rank.Concurrency)
	v.SetDefault("ranking.exclude-companies", []string{})
	v.SetDefault("ranking.exclude-jobs", []string{})
	v.SetDefault("ranking.disable", []string{})

	v.SetDefault("store.provider", storeMemory)
	v.SetDefault("store.timeout", vectorstore.DefaultTimeout)
	v.SetDefault("store.cooldown", vectorstore.DefaultCooldown)
	v.SetDefault("store.chroma.url", "http://localhost:8000")
	v.SetDefault("store.chroma.api-version", vectorstore.ChromaAPIv2)
	v.SetDefault("store.chroma.tenant", vectorstore.DefaultChromaTenant)
	v.SetDefault("store.chroma.database", vectorstore.DefaultChromaDatabase)
	v.SetDefault("store.chroma.collection", "jobmatch")
	v.SetDefault("store.chroma.token-file", "")
	v.SetDefault("store.chroma.rate-limit", 0)

	v.SetDefault("embedding.provider", embeddingHash)
	v.SetDefault("embedding.hash-dimensions", 256)
	v.SetDefault("embedding.gemini.model", "text-embedding-004")
	v.SetDefault("embedding.cache.redis-url", "")
	v.SetDefault("embedding.cache.ttl", 24*time.Hour)

	v.SetDefault("repository.driver", repository.DriverSQLite)
	v.SetDefault("repository.dsn", repository.DefaultSQLitePath)
}

func getConfig() (*Config, error) {
	return loadConfig(viper.GetViper())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	err := v.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
