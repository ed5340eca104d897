package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kiraproject/fs-recommender/internal/ai"
	"github.com/kiraproject/fs-recommender/internal/ai/gemini"
	"github.com/kiraproject/fs-recommender/internal/engine"
	"github.com/kiraproject/fs-recommender/internal/esco"
	"github.com/kiraproject/fs-recommender/internal/logger"
	"github.com/kiraproject/fs-recommender/internal/profile"
	"github.com/kiraproject/fs-recommender/internal/ranking"
	"github.com/kiraproject/fs-recommender/internal/secrets"
)

const (
	PromptRate    = "Rate the best recommendation"
	PromptExplain = "Explain the best recommendation"
	PromptDump    = "Dump recommendations to file"
	PromptExit    = "Exit"

	PromptLike    = "Like"
	PromptSkip    = "Skip"
	PromptDislike = "Dislike"
)

var errExit = errors.New("exit requested")

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Run the recommendation pipeline for a user",
	Run: func(cmd *cobra.Command, _ []string) {
		recommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringP("user", "u", "", "id of the user profile to recommend for")
	recommendCmd.Flags().BoolP("auto", "y", false, "print the recommendations and exit without the interactive loop")

	if err := recommendCmd.MarkFlagRequired("user"); err != nil {
		log.Fatalf("marking user flag required: %v", err)
	}
}

// recommend is the main command of the cli.
func recommend(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the fs-recommender", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	taxonomy, err := esco.LoadTaxonomy(config.Data.EscoDir, logger)
	if err != nil {
		logger.Fatal("loading taxonomy", zap.Error(err))
	}

	pool, err := esco.LoadOccupations(config.Data.OccupationProfiles, taxonomy, logger)
	if err != nil {
		logger.Fatal("loading occupation profiles", zap.Error(err))
	}

	store := profile.NewStore(logger, esco.SectorCode)
	corpus, err := store.LoadCSV(config.Data.UserProfiles)
	if err != nil {
		logger.Fatal("loading user profiles", zap.Error(err))
	}

	userID, _ := cmd.Flags().GetString("user")
	user := corpus.FindByID(userID)
	if user == nil {
		logger.Fatal("user profile not found", zap.String("user_id", userID))
	}
	peers := corpus.Without(user.ID)

	eng, err := buildEngine(config.Engine, pool, taxonomy, peers, logger)
	if err != nil {
		logger.Fatal("building the engine", zap.Error(err))
	}

	explainer, err := prepareExplainer(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("skipping AI explanations", zap.Error(err))
	}

	auto, _ := cmd.Flags().GetBool("auto")

	for {
		result, err := eng.Recommend(ctx, user)
		if err != nil {
			if errors.Is(err, engine.ErrNoRecommendation) {
				logger.Info("exiting", zap.String("reason", "no recommendation available"))
				return
			}
			logger.Fatal("recommendation run failed", zap.Error(err))
		}

		printReport(result, taxonomy, logger)

		if auto {
			return
		}

		rated, err := handleActions(ctx, user, result, taxonomy, explainer, logger)
		if err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
		if rated == nil {
			return
		}
		user = rated
	}
}

func buildEngine(cfg *EngineConfig, pool *esco.Occupations, taxonomy *esco.Taxonomy, peers *profile.Corpus, logger *zap.Logger) (*engine.Engine, error) {
	engineCfg := engine.Config{}
	if cfg != nil {
		metric, err := ranking.ParseMetric(cfg.Metric)
		if err != nil {
			return nil, err
		}
		engineCfg = engine.Config{
			Metric:              metric,
			SimilarityThreshold: cfg.SimilarityThreshold,
			TopN:                cfg.TopN,
			ZoneMode:            cfg.ZoneMode,
			Zone:                ranking.DefaultZoneConfig(),
			RequestTimeout:      cfg.RequestTimeout,
		}
	}
	return engine.New(engineCfg, pool, taxonomy, peers, logger)
}

// handleActions runs the interactive loop for one result. It returns a new
// user profile when the user rated the recommendation and the pipeline should
// run again, nil when the session is over.
func handleActions(ctx context.Context, user *profile.UserProfile, result *engine.Result, taxonomy *esco.Taxonomy, explainer ai.Explainer, logger *zap.Logger) (*profile.UserProfile, error) {
	items := []string{PromptRate}
	if explainer != nil {
		items = append(items, PromptExplain)
	}
	items = append(items, PromptDump, PromptExit)

	for {
		prompt := promptui.Select{
			Label: "What next?",
			Items: items,
		}
		_, action, err := prompt.Run()
		if err != nil {
			return nil, err
		}

		switch action {
		case PromptRate:
			rated, err := rateTop(user, result)
			if err != nil {
				return nil, err
			}
			return rated, nil
		case PromptExplain:
			if err := explainTop(ctx, user, result, taxonomy, explainer, logger); err != nil {
				logger.Warn("explanation failed", zap.Error(err))
			}
		case PromptDump:
			filename, err := dumpToTmpFile(result, taxonomy)
			if err != nil {
				return nil, fmt.Errorf("dump results to file: %w", err)
			}
			logger.Info("dumping result to file", zap.String("filename", filename))
		case PromptExit:
			logger.Info("exiting", zap.String("reason", "got exit from prompt"))
			return nil, errExit
		default:
			return nil, fmt.Errorf("invalid action: %s", action)
		}
	}
}

// rateTop asks for a tri-state rating of the top recommendation and returns a
// fresh profile with the reaction appended to the logs.
func rateTop(user *profile.UserProfile, result *engine.Result) (*profile.UserProfile, error) {
	top := result.Top()

	prompt := promptui.Select{
		Label: "Your reaction?",
		Items: []string{PromptLike, PromptSkip, PromptDislike},
	}
	_, reaction, err := prompt.Run()
	if err != nil {
		return nil, err
	}

	rating := profile.RatingSkipped
	switch reaction {
	case PromptLike:
		rating = profile.RatingLiked
	case PromptDislike:
		rating = profile.RatingDisliked
	}

	rated := *user
	rated.RecommendationLog = append(append([]string{}, user.RecommendationLog...), top.Occupation.URI)
	rated.RatingLog = append(append([]int{}, user.RatingLog...), rating)
	return &rated, nil
}

func explainTop(ctx context.Context, user *profile.UserProfile, result *engine.Result, taxonomy *esco.Taxonomy, explainer ai.Explainer, logger *zap.Logger) error {
	top := result.Top()

	label, err := taxonomy.Label(top.Occupation.URI)
	if err != nil {
		return err
	}
	description, _ := taxonomy.Description(top.Occupation.URI)
	skills, _ := taxonomy.EssentialSkills(top.Occupation.URI, false, false)

	var preferences []string
	for _, code := range user.Preferences {
		if name, ok := esco.SectorName(code); ok {
			preferences = append(preferences, name)
		}
	}

	explanation, err := explainer.Explain(ctx, &ai.Request{
		UserSkills:      user.Skills,
		Preferences:     preferences,
		URI:             top.Occupation.URI,
		Label:           label,
		Description:     description,
		EssentialSkills: skills,
		Distance:        top.Distance,
	})
	if err != nil {
		return err
	}

	logger.Info("explanation", zap.String("occupation", label), zap.String("text", explanation))
	return nil
}

// printReport resolves the labels of the final recommendations. Entries
// without a taxonomy label are logged and skipped.
func printReport(result *engine.Result, taxonomy *esco.Taxonomy, logger *zap.Logger) {
	logger.Info("recommendations ready",
		zap.String("run_id", result.RunID),
		zap.Int("count", len(result.Items)),
	)
	for rank, item := range result.Items {
		label, err := taxonomy.Label(item.Occupation.URI)
		if err != nil {
			logger.Warn("recommended occupation has no label",
				zap.String("uri", item.Occupation.URI),
				zap.Error(err),
			)
			continue
		}
		logger.Info("recommendation",
			zap.Int("rank", rank+1),
			zap.String("occupation", label),
			zap.String("uri", item.Occupation.URI),
			zap.Float64("distance", item.Distance),
		)
	}
}

func dumpToTmpFile(result *engine.Result, taxonomy *esco.Taxonomy) (string, error) {
	type entry struct {
		URI      string  `json:"uri"`
		Label    string  `json:"label,omitempty"`
		Distance float64 `json:"distance"`
	}

	entries := make([]entry, 0, len(result.Items))
	for _, item := range result.Items {
		label, _ := taxonomy.Label(item.Occupation.URI)
		entries = append(entries, entry{
			URI:      item.Occupation.URI,
			Label:    label,
			Distance: item.Distance,
		})
	}

	file, err := os.CreateTemp("", "recommendations_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func prepareExplainer(ctx context.Context, config *AIConfig, logger *zap.Logger) (ai.Explainer, error) {
	if config == nil || !config.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(config.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", config.Provider)
	}
	if config.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: config.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", config.Gemini.Model),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, config.Gemini.Model, config.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewExplainer(generator, genLogger, config.Gemini.MaxLogLength), nil
}
