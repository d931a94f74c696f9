package config

import (
	"fmt"
	"os"

	"cispay/internal/logger"
)

type Config struct {
	// Company details used on payment files and CIS returns
	CompanyName        string
	EmployerTaxRef     string // PAYE employer reference, e.g. 123/AB45678
	UTR                string // Unique Taxpayer Reference of the contractor

	// OpenAI Configuration (invoice risk review)
	OpenAIAPIKey string

	// Google Cloud Configuration (invoice PDF extraction)
	GoogleCloudProject    string
	DocumentAIProcessorID string
	GoogleCloudLocation   string
	GoogleServiceAccountKey string

	// Google Sheets Configuration (payment run audit export)
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		CompanyName:             getEnv("COMPANY_NAME", ""),
		EmployerTaxRef:          getEnv("EMPLOYER_TAX_REF", ""),
		UTR:                     getEnv("CONTRACTOR_UTR", ""),
		OpenAIAPIKey:            getEnv("OPENAI_API_KEY", ""),
		GoogleCloudProject:      getEnv("GOOGLE_CLOUD_PROJECT", ""),
		DocumentAIProcessorID:   getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		GoogleCloudLocation:     getEnv("GOOGLE_CLOUD_LOCATION", "eu"),
		GoogleServiceAccountKey: getEnv("GOOGLE_SERVICE_ACCOUNT_KEY", ""),
		GoogleSheetURL:          getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:    getEnv("GOOGLE_SHEET_WORKSHEET", "Payment_Runs"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:           getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:               getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validate checks the fields every command needs. Cloud and OpenAI settings
// are validated lazily by the services that use them, so running the offline
// commands (calc, run, return) does not require any credentials.
func (c *Config) validate() error {
	if c.CompanyName == "" {
		return fmt.Errorf("COMPANY_NAME is required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
