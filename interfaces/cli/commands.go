package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
	"infinicraft-backend/infrastructure/seeddata"
)

func newSeedCommand(load Loader, flags *rootFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed base elements and a combination table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := seeddata.Load(file)
			if err != nil {
				return err
			}
			return withService(cmd, load, func(ctx context.Context, svc Service) error {
				report, err := svc.SeedCombinations(ctx, rows)
				if err != nil {
					return err
				}
				total, err := svc.CombinationCount(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if flags.asJSON {
					return writeJSON(out, struct {
						Report interface{} `json:"report"`
						Total  int         `json:"total_combinations"`
					}{report, total})
				}
				fmt.Fprintf(out, "Rows:      %d\n", report.Rows)
				fmt.Fprintf(out, "Inserted:  %d\n", report.Inserted)
				fmt.Fprintf(out, "Existing:  %d\n", report.Existing)
				fmt.Fprintf(out, "Skipped:   %d\n", report.Skipped)
				fmt.Fprintf(out, "Elements:  %d created\n", report.ElementsCreated)
				fmt.Fprintf(out, "Total:     %d combinations\n", total)
				for _, p := range report.Problems {
					fmt.Fprintf(out, "  ! %s\n", p)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Seed table (JSON or YAML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newCombineCommand(load Loader, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "combine <element> <element>",
		Short: "Combine two elements by id or name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, load, func(ctx context.Context, svc Service) error {
				all, err := svc.ListAllElements(ctx)
				if err != nil {
					return err
				}
				a := resolveElementArg(all, args[0])
				b := resolveElementArg(all, args[1])

				result, err := svc.Combine(ctx, a, b, flags.userID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if flags.asJSON {
					view := struct {
						Success bool         `json:"success"`
						Result  *elementView `json:"result"`
						Message string       `json:"message"`
					}{Success: result.Success, Message: result.Message}
					if result.Result != nil {
						v := viewOf(result.Result)
						view.Result = &v
					}
					return writeJSON(out, view)
				}
				if !result.Success {
					fmt.Fprintf(out, "✗ %s\n", result.Message)
					return nil
				}
				fmt.Fprintf(out, "%s (%s)\n", result.Result.Label(), result.Message)
				return nil
			})
		},
	}
}

// resolveElementArg accepts an id or a case-insensitive element name.
// Unknown values pass through as ids so the combine reports them as not found.
func resolveElementArg(all []*entities.Element, arg string) valueobjects.ElementID {
	arg = strings.TrimSpace(arg)
	for _, e := range all {
		if e.ID().String() == arg {
			return e.ID()
		}
	}
	for _, e := range all {
		if strings.EqualFold(e.Name(), arg) || strings.EqualFold(e.Label(), arg) {
			return e.ID()
		}
	}
	id, err := valueobjects.NewElementIDFromString(arg)
	if err != nil {
		return valueobjects.ElementID{}
	}
	return id
}

func newProgressCommand(load Loader, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show a user's discoveries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, load, func(ctx context.Context, svc Service) error {
				out := cmd.OutOrStdout()
				if flags.asJSON {
					summary, err := svc.GetProgress(ctx, flags.userID)
					if err != nil {
						return err
					}
					return writeJSON(out, summary)
				}

				discovered, err := svc.ListDiscovered(ctx, flags.userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "User:        %s\n", flags.userID)
				fmt.Fprintf(out, "Discoveries: %d\n", len(discovered))
				for _, e := range discovered {
					fmt.Fprintf(out, "  %s\n", e.Label())
				}
				return nil
			})
		},
	}
}

func newResetCommand(load Loader, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset a user's discoveries to the base elements",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, load, func(ctx context.Context, svc Service) error {
				if err := svc.ResetUser(ctx, flags.userID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Progress for %s reset to base elements\n", flags.userID)
				return nil
			})
		},
	}
}

func newElementsCommand(load Loader, flags *rootFlags) *cobra.Command {
	var baseOnly bool

	cmd := &cobra.Command{
		Use:   "elements",
		Short: "List known elements",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, load, func(ctx context.Context, svc Service) error {
				list := svc.ListAllElements
				if baseOnly {
					list = svc.ListBaseElements
				}
				elements, err := list(ctx)
				if err != nil {
					return err
				}
				return printElements(cmd.OutOrStdout(), elements, flags.asJSON)
			})
		},
	}

	cmd.Flags().BoolVar(&baseOnly, "base", false, "Only the four base elements")
	return cmd
}
