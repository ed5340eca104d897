package cmd

import (
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "fs-recommender"
)

type Config struct {
	Data   *DataConfig   `mapstructure:"data" validate:"required"`
	Engine *EngineConfig `mapstructure:"engine"`
	AI     *AIConfig     `mapstructure:"ai"`
}

// DataConfig points at the process-wide data loaded once at startup.
type DataConfig struct {
	// EscoDir holds the ESCO classification CSV export.
	EscoDir string `mapstructure:"esco-dir" validate:"required"`
	// OccupationProfiles is the CSV of normalized occupation FS profiles.
	OccupationProfiles string `mapstructure:"occupation-profiles" validate:"required"`
	// UserProfiles is the CSV with the user and peer profiles.
	UserProfiles string `mapstructure:"user-profiles" validate:"required"`
}

type EngineConfig struct {
	Metric              string        `mapstructure:"metric" validate:"omitempty,oneof=euclidean cosine"`
	TopN                int           `mapstructure:"top-n" validate:"gte=0"`
	SimilarityThreshold float64       `mapstructure:"similarity-threshold" validate:"gte=0"`
	ZoneMode            bool          `mapstructure:"zone-mode"`
	RequestTimeout      time.Duration `mapstructure:"request-timeout" validate:"gte=0"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "fs-recommender recommends the best-fit occupation for a FutureSkill profile",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is fs-recommender.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for the recommend command. If there is no config, we
	// can skip initialization.
	if recommendCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, err
	}

	return config, nil
}
