// Package config loads masstemplate settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/steps"
)

// EnvFile is the dotenv file name searched for by Load.
const EnvFile = ".env"

// Config holds all configuration for the CLI and the HTTP service
type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// Credentials
	ServiceAccountJSON   string
	CredentialsFile      string
	GCPProjectID         string
	ServiceAccountSecret string

	// Spreadsheets
	ReferenceSpreadsheet string
	DefaultSpreadsheet   string

	// Steps
	Steps steps.Config

	// Copy Template
	UploadChunkRows int

	// Sheets quota
	SheetsMaxRetries int
	SheetsRateLimit  float64
	SheetsRateBurst  int
	SheetsTimeout    time.Duration

	// EnvPath is the .env file that was loaded, if any.
	EnvPath string
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads the first .env file found next to the working directory, the
// executable or their parent, then builds Config from the environment.
// Variables already set in the environment win over the file.
func Load() *Config {
	path := FindEnvFile()
	if path != "" {
		_ = godotenv.Load(path)
	}
	cfg := FromEnv()
	cfg.EnvPath = path
	return cfg
}

// FromEnv builds Config from the current environment only.
func FromEnv() *Config {
	sc := steps.DefaultConfig()
	sc.OutputSheet = getEnv("TEM_OUTPUT_SHEET_NAME", sc.OutputSheet)
	sc.CollectionSheet = getEnv("COLLECTION_SHEET_NAME", sc.CollectionSheet)
	sc.TemplateDictSheet = getEnv("TEMPLATE_DICT_SHEET_NAME", sc.TemplateDictSheet)
	sc.FDASheet = getEnv("FDA_CATEGORIES_SHEET_NAME", sc.FDASheet)
	sc.FDAHeader = getEnv("FDA_HEADER_NAME", sc.FDAHeader)
	sc.FDAOverwrite = getEnvAsBool("FDA_OVERWRITE", false)
	sc.CatPropsSheet = getEnv("CAT_PROPS_SHEET", sc.CatPropsSheet)
	sc.MandatoryColor = getEnv("COLOR_HEX_MANDATORY", sc.MandatoryColor)
	sc.OverwriteNonEmpty = getEnvAsBool("OVERWRITE_NONEMPTY", false)
	sc.ResetOnSkippedRow = getEnvAsBool("RESET_ON_SKIPPED_ROW", false)
	sc.ShopCode = getEnv("SHOP_CODE", "")
	sc.Images = steps.ImageBases{
		Base:    getEnv("IMAGE_HOSTING_URL", ""),
		Cover:   getEnv("COVER_BASE_URL", ""),
		Details: getEnv("DETAILS_BASE_URL", ""),
		Option:  getEnv("OPTION_BASE_URL", ""),
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", ""),

		ServiceAccountJSON:   getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		CredentialsFile:      getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GCPProjectID:         getEnv("GCP_PROJECT_ID", ""),
		ServiceAccountSecret: getEnv("SERVICE_ACCOUNT_SECRET", ""),

		ReferenceSpreadsheet: firstEnv("REFERENCE_SPREADSHEET_ID", "REF_SHEET_URL", "REF_URL"),
		DefaultSpreadsheet:   getEnv("GOOGLE_SHEETS_SPREADSHEET_ID", ""),

		Steps: sc,

		UploadChunkRows: getEnvAsInt("UPLOAD_CHUNK_ROWS", 0),

		SheetsMaxRetries: getEnvAsInt("SHEETS_MAX_RETRIES", 5),
		SheetsRateLimit:  getEnvAsFloat("SHEETS_RATE_LIMIT", 1),
		SheetsRateBurst:  getEnvAsInt("SHEETS_RATE_BURST", 5),
		SheetsTimeout:    getEnvAsDuration("SHEETS_TIMEOUT", 5*time.Minute),
	}
}

// FindEnvFile returns the first existing .env in the working directory, the
// executable directory or the parent of either. It returns "" when none exists.
func FindEnvFile() string {
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	for _, d := range append([]string(nil), dirs...) {
		dirs = append(dirs, filepath.Dir(d))
	}
	for _, d := range dirs {
		p := filepath.Join(d, EnvFile)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// SaveEnvValue sets key=value in the dotenv file at path, creating the file
// when missing, and exports it to the current process.
func SaveEnvValue(path, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("empty key")
	}
	values := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		existing, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		values = existing
	}
	values[key] = value
	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Setenv(key, value)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// firstEnv returns the first non-empty variable among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := getEnv(k, ""); v != "" {
			return v
		}
	}
	return ""
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// getEnvAsBool accepts 1/true/yes/on and 0/false/no/off.
func getEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
