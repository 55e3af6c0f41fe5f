package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/craybot/craybot/internal/bot"
	"github.com/craybot/craybot/internal/core"
	"github.com/craybot/craybot/internal/modules"
	"github.com/spf13/cobra"
)

var (
	validateConfig string
	validateJSON   bool
)

// ValidationResult represents the validation result
type ValidationResult struct {
	Valid           bool     `json:"valid"`
	Config          string   `json:"config"`
	Modules         []string `json:"modules"`
	Commands        []string `json:"commands"`
	MessageHandlers []string `json:"message_handlers"`
	Errors          []string `json:"errors,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate craybot configuration",
	Long: `Load the configuration and register every module against a recording
router without connecting to Discord.

Exit codes:
  0 - Configuration is valid and every module loads
  1 - Configuration or module errors`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result := runValidate(validateConfig)
		if err := outputValidationResult(cmd.OutOrStdout(), result, validateJSON); err != nil {
			return err
		}
		if !result.Valid {
			return fmt.Errorf("configuration is invalid")
		}
		return nil
	},
}

func runValidate(path string) ValidationResult {
	result := ValidationResult{Config: path}
	if path == "" {
		result.Config = "(built-in template)"
	}

	cfg, err := core.LoadConfig(path)
	if err != nil {
		result.Errors = []string{err.Error()}
		return result
	}

	router := &bot.Recorder{}
	report := core.NewLoader(cfg, router).LoadAll(modules.Factories())

	result.Modules = report.Loaded
	result.Commands = router.CommandNames()
	result.MessageHandlers = router.MessageHandlers()
	for _, f := range report.Failed {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", f.Module, f.Err))
	}
	result.Valid = len(result.Errors) == 0
	return result
}

func outputValidationResult(w io.Writer, result ValidationResult, jsonFormat bool) error {
	if jsonFormat {
		output, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		fmt.Fprintln(w, string(output))
		return nil
	}

	if result.Valid {
		fmt.Fprintln(w, "✓ Configuration is valid")
	} else {
		fmt.Fprintln(w, "❌ Configuration validation failed")
	}
	fmt.Fprintf(w, "  - Config: %s\n", result.Config)
	fmt.Fprintf(w, "  - Modules loaded: %d\n", len(result.Modules))
	fmt.Fprintf(w, "  - Commands: %d\n", len(result.Commands))
	fmt.Fprintf(w, "  - Message handlers: %d\n", len(result.MessageHandlers))

	if len(result.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  - %s\n", errMsg)
		}
	}
	return nil
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfig, "config", "c", "", "Configuration file path (default: built-in template)")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output in JSON format")
}
