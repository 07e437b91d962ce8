// Package configs manages the parser config registry
package configs

import (
	"fmt"

	"fjacquet/bank-recon/cmd/common"
	"fjacquet/bank-recon/cmd/root"
	"fjacquet/bank-recon/internal/models"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	bankType   string
	activeOnly bool
)

// Cmd represents the configs command
var Cmd = &cobra.Command{
	Use:   "configs",
	Short: "Manage parser configs",
	Long: `Manage the per-bank parser configs used to read statement files.

System configs are seeded from parser_configs.yaml and cannot be deleted.
Edits only apply to future imports.`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List parser configs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := root.GetContainer().GetParserConfigs()
		var (
			list []models.ParserConfig
			err  error
		)
		switch {
		case bankType != "":
			list, err = svc.FindByBankType(cmd.Context(), bankType)
		case activeOnly:
			list, err = svc.ListActive(cmd.Context())
		default:
			list, err = svc.List(cmd.Context())
		}
		if err != nil {
			return err
		}
		return common.PrintJSON(root.SharedFlags.Output, list, root.GetLogrusAdapter())
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Show one parser config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := root.GetContainer().GetParserConfigs().Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return common.PrintJSON(root.SharedFlags.Output, cfg, root.GetLogrusAdapter())
	},
}

var createCmd = &cobra.Command{
	Use:   "create <file.yaml>",
	Short: "Create a parser config from a YAML document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig(args[0])
		if err != nil {
			return err
		}
		created, err := root.GetContainer().GetParserConfigs().Create(cmd.Context(), cfg, root.SharedFlags.Actor)
		if err != nil {
			return err
		}
		return common.PrintJSON(root.SharedFlags.Output, created, root.GetLogrusAdapter())
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <id|name> <file.yaml>",
	Short: "Replace a parser config with a YAML document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := root.GetContainer().GetParserConfigs()
		current, err := svc.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cfg, err := readConfig(args[1])
		if err != nil {
			return err
		}
		cfg.ID = current.ID
		cfg.Version = current.Version
		updated, err := svc.Update(cmd.Context(), cfg, root.SharedFlags.Actor)
		if err != nil {
			return err
		}
		return common.PrintJSON(root.SharedFlags.Output, updated, root.GetLogrusAdapter())
	},
}

func stateCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id|name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := root.GetContainer().GetParserConfigs()
			cfg, err := svc.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if active {
				cfg, err = svc.Activate(cmd.Context(), cfg.ID, root.SharedFlags.Actor)
			} else {
				cfg, err = svc.Deactivate(cmd.Context(), cfg.ID, root.SharedFlags.Actor)
			}
			if err != nil {
				return err
			}
			return common.PrintJSON(root.SharedFlags.Output, cfg, root.GetLogrusAdapter())
		},
	}
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id|name>",
	Short: "Delete a user parser config that no statement uses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := root.GetContainer().GetParserConfigs()
		cfg, err := svc.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := svc.Delete(cmd.Context(), cfg.ID, root.SharedFlags.Actor); err != nil {
			return err
		}
		root.Log.Info(fmt.Sprintf("Parser config %s deleted", cfg.Name))
		return nil
	},
}

func readConfig(path string) (models.ParserConfig, error) {
	var cfg models.ParserConfig
	data, err := common.ReadInput(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing parser config YAML: %w", err)
	}
	return cfg, nil
}

func init() {
	listCmd.Flags().StringVar(&bankType, "bank-type", "", "Only active configs for this bank type")
	listCmd.Flags().BoolVar(&activeOnly, "active", false, "Only active configs")
	Cmd.AddCommand(listCmd, showCmd, createCmd, updateCmd,
		stateCmd("activate", "Offer a parser config for imports", true),
		stateCmd("deactivate", "Stop offering a parser config for imports", false),
		deleteCmd)
}
