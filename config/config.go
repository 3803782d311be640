package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP API configuration
	HTTPAddr string

	// Scheduler configuration
	SchedulerHour     int    // local hour (0-23) at which the daily batch runs
	SchedulerTimezone string // IANA timezone name for the daily tick

	// Plan rule bounds
	MinMonthlyAmount    decimal.Decimal // autoinvest monthly amount floor
	DepositDayMin       int             // first allowed deposit day
	DepositDayMax       int             // capped at 28 so every month has the day
	MinReinvestFloor    decimal.Decimal // minimum allowed minimumReinvestAmount
	ReinvestEligibility decimal.Decimal // lifetime-invested floor for autoreinvest
	DefaultMinReinvest  decimal.Decimal // minimumReinvestAmount when omitted
	DefaultReinvestPct  decimal.Decimal // reinvestPercentage when omitted
	DefaultCurrency     string
	DefaultRiskLevel    string

	// Assumed annual return per theme, used only by the statistics
	// projector (a fixed lookup, not a market feed)
	ThemeAnnualReturns map[string]float64

	// Fixed exchange rates keyed "FROM/TO", consumed through the
	// currency converter
	ExchangeRates map[string]decimal.Decimal

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// defaults returns the built-in configuration values
func defaults() *Config {
	return &Config{
		SchedulerHour:     9,
		SchedulerTimezone: "Africa/Tunis",

		MinMonthlyAmount:    decimal.NewFromInt(100),
		DepositDayMin:       1,
		DepositDayMax:       28,
		MinReinvestFloor:    decimal.NewFromInt(10),
		ReinvestEligibility: decimal.NewFromInt(2000),
		DefaultMinReinvest:  decimal.NewFromInt(100),
		DefaultReinvestPct:  decimal.NewFromInt(100),
		DefaultCurrency:     "TND",
		DefaultRiskLevel:    "medium",

		ThemeAnnualReturns: map[string]float64{
			"growth":   0.085,
			"income":   0.072,
			"balanced": 0.065,
			"index":    0.058,
		},

		ExchangeRates: map[string]decimal.Decimal{
			"EUR/TND": decimal.RequireFromString("3.40"),
			"TND/EUR": decimal.RequireFromString("0.294"),
		},
	}
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := defaults()
	config.DatabaseURL = os.Getenv("DATABASE_URL")
	config.HTTPAddr = os.Getenv("HTTP_ADDR")
	config.Environment = os.Getenv("ENVIRONMENT")

	if config.HTTPAddr == "" {
		config.HTTPAddr = ":8080"
	}

	if hour := os.Getenv("SCHEDULER_HOUR"); hour != "" {
		if parsed, err := strconv.Atoi(hour); err == nil && parsed >= 0 && parsed <= 23 {
			config.SchedulerHour = parsed
		}
	}
	if tz := os.Getenv("SCHEDULER_TIMEZONE"); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return nil, fmt.Errorf("invalid SCHEDULER_TIMEZONE %q: %w", tz, err)
		}
		config.SchedulerTimezone = tz
	}
	if amount := os.Getenv("MIN_MONTHLY_AMOUNT"); amount != "" {
		if parsed, err := decimal.NewFromString(amount); err == nil {
			config.MinMonthlyAmount = parsed
		}
	}
	if floor := os.Getenv("REINVEST_ELIGIBILITY_FLOOR"); floor != "" {
		if parsed, err := decimal.NewFromString(floor); err == nil {
			config.ReinvestEligibility = parsed
		}
	}
	if floor := os.Getenv("MIN_REINVEST_FLOOR"); floor != "" {
		if parsed, err := decimal.NewFromString(floor); err == nil {
			config.MinReinvestFloor = parsed
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a config with built-in defaults suitable for
// unit tests; no environment variables are consulted
func NewTestConfig() *Config {
	config := defaults()
	config.HTTPAddr = ":0"
	config.Environment = "test"
	return config
}

// Location resolves the scheduler timezone. The name is validated at
// load time, so resolution cannot fail afterwards.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SchedulerTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
