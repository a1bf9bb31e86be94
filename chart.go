package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

const (
	chartFileName = "chart.yaml"
)

// ChartConfig is the root structure of the chart-of-accounts seed file.
// It describes the initial account tree loaded by the seed-chart command.
type ChartConfig struct {
	Accounts []ChartAccountConfig `yaml:"accounts"`
}

// ChartAccountConfig is one account in the seed file.
// Children inherit nothing; every field is explicit.
type ChartAccountConfig struct {
	// Code is the numeric account code, unique across the chart
	Code string `yaml:"code"`
	// Name is the human-readable account name
	Name string `yaml:"name"`
	// Type is one of main, sub, analytic, cash, bank
	Type string `yaml:"type"`
	// Children are accounts nested under this one
	Children []ChartAccountConfig `yaml:"children"`
}

// LoadChart loads and validates the chart-of-accounts seed from
// <configDirPath>/chart.yaml. A missing file is not an error; the chart
// is only needed by the seed-chart command.
func LoadChart(configDirPath string) (ChartConfig, error) {
	chartPath := filepath.Join(configDirPath, chartFileName)
	f, err := os.Open(chartPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ChartConfig{}, nil
		}
		return ChartConfig{}, err
	}
	defer f.Close()

	var cfg ChartConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return ChartConfig{}, err
	}

	if err := cfg.verifyVariables(); err != nil {
		return ChartConfig{}, err
	}

	return cfg, nil
}

// verifyVariables validates the seed tree:
// - codes are required, digits only, and unique across the whole tree
// - names are required
// - types must parse and postable types must not have children
func (cfg *ChartConfig) verifyVariables() error {
	seen := make(map[string]struct{})
	var walk func(accounts []ChartAccountConfig) error
	walk = func(accounts []ChartAccountConfig) error {
		for i, account := range accounts {
			if account.Code == "" {
				return fmt.Errorf("missing account code for account[%d] %q", i, account.Name)
			}
			if !accountCodeRegex.MatchString(account.Code) {
				return fmt.Errorf("account code %q must be digits", account.Code)
			}
			if _, ok := seen[account.Code]; ok {
				return fmt.Errorf("duplicate account code %q", account.Code)
			}
			seen[account.Code] = struct{}{}

			if account.Name == "" {
				return fmt.Errorf("missing name for account %s", account.Code)
			}

			accountType, ok := ParseAccountType(account.Type)
			if !ok {
				return fmt.Errorf("invalid type %q for account %s", account.Type, account.Code)
			}
			if accountType.IsPostable() && len(account.Children) > 0 {
				return fmt.Errorf("account %s is a %s account and cannot have children", account.Code, account.Type)
			}

			if err := walk(account.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(cfg.Accounts)
}

// runSeedChartCli loads chart.yaml and inserts the configured accounts.
// Example: glnode seed-chart
func runSeedChartCli(logger Logger) {
	logger = logger.NewSystem("seed-chart")

	config, err := LoadConfig(logger)
	if err != nil {
		logger.Fatal("Failed to load configuration", "error", err)
	}
	if len(config.chart.Accounts) == 0 {
		logger.Fatal("chart.yaml is missing or has no accounts")
	}

	db, err := ConnectToDB(config.dbConf)
	if err != nil {
		logger.Fatal("Failed to setup database", "error", err)
	}

	if err := SeedChart(db, config.chart, logger); err != nil {
		logger.Fatal("Failed to seed chart of accounts", "error", err)
	}
	logger.Info("chart of accounts seeded")
}

// SeedChart inserts the configured account tree, parents before
// children. Accounts that already exist are left untouched so the
// command is safe to rerun.
func SeedChart(db *gorm.DB, cfg ChartConfig, logger Logger) error {
	var insert func(accounts []ChartAccountConfig, parentID *string) error
	insert = func(accounts []ChartAccountConfig, parentID *string) error {
		for _, account := range accounts {
			accountType, _ := ParseAccountType(account.Type)
			row := Account{
				ID:       account.Code,
				Name:     account.Name,
				Type:     accountType,
				ParentID: parentID,
				Balance:  decimal.Zero,
			}

			var count int64
			if err := db.Model(&Account{}).Where("id = ?", account.Code).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				logger.Info("account already exists, skipping", "code", account.Code)
			} else if err := db.Create(&row).Error; err != nil {
				return err
			} else {
				logger.Info("created account", "code", account.Code, "name", account.Name, "type", account.Type)
			}

			code := account.Code
			if err := insert(account.Children, &code); err != nil {
				return err
			}
		}
		return nil
	}
	return insert(cfg.Accounts, nil)
}
