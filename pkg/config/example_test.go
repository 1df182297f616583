package config_test

import (
	"fmt"

	"github.com/wonny/weekly-ranker/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Data directory: %s\n", cfg.DataDir)
	fmt.Printf("Feature tables: %s\n", cfg.FeaturesDir())
	fmt.Printf("Archive enabled: %v\n", cfg.Database.Enabled())
}
