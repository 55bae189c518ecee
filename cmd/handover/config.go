package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/handover/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after merging defaults, the user
config (~/.config/handover/config.yaml), the project config
(.handover.yaml), and environment variables.`,
	RunE: runConfig,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config to the user config path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GetUserConfigPath()
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists; edit it directly", path)
		}
		if err := config.Save(config.Default()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Println("Anthropic:")
	fmt.Printf("  model:           %s\n", cfg.Anthropic.Model)
	fmt.Printf("  api_key:         %s\n", maskKey(cfg.Anthropic.APIKey))
	fmt.Printf("  use_aws_bedrock: %v\n", cfg.Anthropic.UseAWSBedrock)
	if cfg.Anthropic.UseAWSBedrock {
		fmt.Printf("  aws_region:      %s\n", cfg.Anthropic.AWSRegion)
		fmt.Printf("  aws_profile:     %s\n", cfg.Anthropic.AWSProfile)
	}
	fmt.Println("Analysis:")
	fmt.Printf("  passes_structured:      %d\n", cfg.Analysis.PassesStructured)
	fmt.Printf("  passes_default:         %d\n", cfg.Analysis.PassesDefault)
	fmt.Printf("  max_questions_per_item: %d\n", cfg.Analysis.MaxQuestionsPerItem)
	fmt.Println("Interview:")
	fmt.Printf("  max_rounds:         %d\n", cfg.Interview.MaxRounds)
	fmt.Printf("  max_open_questions: %d\n", cfg.Interview.MaxOpenQuestions)
	fmt.Println("Storage:")
	fmt.Printf("  data_dir:       %s\n", cfg.Storage.DataDir)
	fmt.Printf("  retention_days: %d\n", cfg.Storage.RetentionDays)

	fmt.Println()
	fmt.Printf("User config:    %s\n", config.GetUserConfigPath())
	if p := config.GetProjectConfigPath(); p != "" {
		fmt.Printf("Project config: %s\n", p)
	}
	return nil
}

func maskKey(key string) string {
	if key == "" {
		return "(from ANTHROPIC_API_KEY)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
