// Package agentctl implements the agent catalogue operator commands.
package agentctl

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/director/internal/domain"
	"github.com/xiaot623/gogo/director/internal/pricing"
	"github.com/xiaot623/gogo/director/internal/registry"
	store "github.com/xiaot623/gogo/director/internal/repository"
)

// Opener connects to the agent store used by every command.
type Opener func(ctx context.Context) (store.AgentStore, error)

// NewCommand builds the agentctl root command.
func NewCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agentctl",
		Short: "Manage the agent catalogue",
		Long: `Manage the agent catalogue read by the director.

Examples:
  # Replace the catalogue with the built-in agents
  agentctl seed

  # Replace the catalogue with agents from a file
  agentctl seed --file deploy/agents.yaml

  # Show the catalogue
  agentctl list`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newSeedCmd(open))
	cmd.AddCommand(newListCmd(open))
	cmd.AddCommand(newClearCmd(open))

	return cmd
}

// Seed replaces every agent record with descs, assigning fresh ids.
func Seed(ctx context.Context, s store.AgentStore, descs []domain.AgentDescriptor) ([]domain.AgentDescriptor, int, error) {
	if _, err := registry.New(descs); err != nil {
		return nil, 0, fmt.Errorf("invalid catalogue: %w", err)
	}

	removed, err := s.ClearAgents(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to clear agents: %w", err)
	}

	seeded := make([]domain.AgentDescriptor, 0, len(descs))
	for _, d := range descs {
		d.ID = uuid.NewString()
		if err := s.PutAgent(ctx, d); err != nil {
			return seeded, removed, fmt.Errorf("failed to store agent %s: %w", d.Name, err)
		}
		seeded = append(seeded, d)
	}
	return seeded, removed, nil
}

func newSeedCmd(open Opener) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the catalogue with the built-in or a file-based agent set",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			descs := registry.DefaultAgents()
			if file != "" {
				var err error
				if descs, err = registry.LoadCatalogue(file); err != nil {
					return err
				}
			}

			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			seeded, removed, err := Seed(ctx, s, descs)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Removed %d existing agents.\n", removed)
			for _, d := range seeded {
				fmt.Fprintf(out, "  %s  %s (%s)\n", d.ID, d.Name, d.Address)
			}
			fmt.Fprintf(out, "Seeded %d agents.\n", len(seeded))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalogue to seed instead of the built-in agents")
	return cmd
}

func newListCmd(open Opener) *cobra.Command {
	var useJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogued agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.ListAgents(ctx)
			if err != nil {
				return fmt.Errorf("failed to list agents: %w", err)
			}
			reg, err := registry.New(records)
			if err != nil {
				return fmt.Errorf("catalogue is inconsistent: %w", err)
			}
			all := reg.ListAll()

			if useJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{"agents": all})
			}

			if len(all) == 0 {
				fmt.Fprintln(out, "No agents registered.")
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Run 'agentctl seed' to provision the built-in catalogue.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCAPABILITY\tADDRESS\tPRICE")
			for _, d := range all {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name, d.Capability, d.Address, pricing.DisplayPrice(d.CostPerOutputToken))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&useJSON, "json", false, "Print the catalogue as JSON")
	return cmd
}

func newClearCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every catalogued agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			removed, err := s.ClearAgents(ctx)
			if err != nil {
				return fmt.Errorf("failed to clear agents: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d agents.\n", removed)
			return nil
		},
	}
}
