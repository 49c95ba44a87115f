package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default configuration values. The provider endpoints and number-domain
// bounds are heuristics observed from one provider; they are defaults, not
// constants baked into the pipeline.
const (
	defaultServerAddress   = ":8080"
	defaultDatabasePath    = "data/powerball.sqlite"
	defaultBaseURL         = "https://australia.national-lottery.com"
	defaultPastResultsPath = "/powerball/past-results"
	defaultArchivePath     = "/powerball/results-archive-%d"
	defaultAPIRecentPath   = "/api/v1/draws/powerball/recent"
	defaultUserAgent       = "Mozilla/5.0 (compatible; powerdraw/1.0; +https://github.com/jonesrussell/powerdraw)"
	defaultAcceptLanguage  = "en-AU,en;q=0.9"
	defaultFetchRetries    = 3
	defaultBackoffBase     = "3s"
	defaultFetchTimeout    = "30s"
	defaultMaxBodyBytes    = 10 * 1024 * 1024 // 10 MB
	defaultYearStart       = 2018
	defaultTrailingDays    = 183
	defaultSyncCron        = "*/15 * * * *"
	defaultMainCount       = 7
	defaultMainMax         = 35
	defaultPowerballMax    = 20
	defaultLogLevel        = "info"
)

// defaultAPIRangePaths are the range-scoped JSON endpoints tried in order
// when the bulk feed yields nothing for a range.
var defaultAPIRangePaths = []string{
	"/api/v1/draws/powerball?from=%d-01-01&to=%d-12-31",
	"/api/v1/results?product=powerball&start=%d-01-01&end=%d-12-31",
}

// InitializeViper initializes viper configuration from environment
// variables and config files. Must be called before Load().
func InitializeViper() error {
	loadEnvFile()
	setupViper()
	setDefaults()
	readConfigFile()
	return nil
}

// loadEnvFile loads .env file (ignores error if file doesn't exist).
func loadEnvFile() {
	_ = godotenv.Load()
}

// setupViper configures viper for environment variable and config file reading.
func setupViper() {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("POWERDRAW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/powerdraw")
}

// readConfigFile reads the config file (ignores error if file doesn't exist).
func readConfigFile() {
	_ = viper.ReadInConfig()
}

// setDefaults registers default values for all configuration keys.
func setDefaults() {
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	viper.SetDefault("server.address", defaultServerAddress)

	viper.SetDefault("database.path", defaultDatabasePath)

	viper.SetDefault("source.base_url", defaultBaseURL)
	viper.SetDefault("source.past_results_path", defaultPastResultsPath)
	viper.SetDefault("source.archive_path_format", defaultArchivePath)
	viper.SetDefault("source.api_recent_path", defaultAPIRecentPath)
	viper.SetDefault("source.api_range_paths", defaultAPIRangePaths)
	viper.SetDefault("source.user_agent", defaultUserAgent)
	viper.SetDefault("source.accept_language", defaultAcceptLanguage)

	viper.SetDefault("fetch.retries", defaultFetchRetries)
	viper.SetDefault("fetch.backoff_base", defaultBackoffBase)
	viper.SetDefault("fetch.timeout", defaultFetchTimeout)
	viper.SetDefault("fetch.max_body_bytes", defaultMaxBodyBytes)

	viper.SetDefault("sync.year_start", defaultYearStart)
	viper.SetDefault("sync.trailing_days", defaultTrailingDays)
	viper.SetDefault("sync.cron", defaultSyncCron)
	viper.SetDefault("sync.initial_sync", true)

	viper.SetDefault("game.main_count", defaultMainCount)
	viper.SetDefault("game.main_max", defaultMainMax)
	viper.SetDefault("game.powerball_max", defaultPowerballMax)

	viper.SetDefault("log.level", defaultLogLevel)
	viper.SetDefault("log.encoding", "console")
	viper.SetDefault("log.development", false)
}
