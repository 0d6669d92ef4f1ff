package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("%s is valid: %d sources, %d routes\n", cfgFile, len(cfg.Sources), len(cfg.Routes))
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
