// Package cli implements the craftctl operator commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"infinicraft-backend/application/services"
	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
)

// Service is the application surface the commands drive
type Service interface {
	Combine(ctx context.Context, a, b valueobjects.ElementID, userID string) (*services.CombineResult, error)
	ListBaseElements(ctx context.Context) ([]*entities.Element, error)
	ListDiscovered(ctx context.Context, userID string) ([]*entities.Element, error)
	ListAllElements(ctx context.Context) ([]*entities.Element, error)
	ResetUser(ctx context.Context, userID string) error
	GetProgress(ctx context.Context, userID string) (*services.ProgressSummary, error)
	SeedCombinations(ctx context.Context, rows []services.SeedRow) (*services.SeedReport, error)
	CombinationCount(ctx context.Context) (int, error)
}

// Loader builds the service on first use; the returned func releases it
type Loader func(ctx context.Context) (Service, func(), error)

type rootFlags struct {
	userID string
	asJSON bool
}

// NewRootCommand assembles craftctl
func NewRootCommand(load Loader, version string) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "craftctl",
		Short:         "Operate the Infinicraft backend",
		Long:          "craftctl seeds combination tables, combines elements and inspects\nor resets user progress against the configured store.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.userID, "user", "u", services.DefaultUserID, "User whose progress is used")
	pf.BoolVar(&flags.asJSON, "json", false, "Print JSON instead of text")

	root.AddCommand(
		newSeedCommand(load, flags),
		newCombineCommand(load, flags),
		newProgressCommand(load, flags),
		newResetCommand(load, flags),
		newElementsCommand(load, flags),
	)
	return root
}

// withService loads the service for the lifetime of one command
func withService(cmd *cobra.Command, load Loader, fn func(ctx context.Context, svc Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, release, err := load(ctx)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer release()
	return fn(ctx, svc)
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type elementView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

func viewOf(e *entities.Element) elementView {
	return elementView{ID: e.ID().String(), Name: e.Name(), Emoji: e.Symbol()}
}

func printElements(out io.Writer, elements []*entities.Element, asJSON bool) error {
	if asJSON {
		views := make([]elementView, 0, len(elements))
		for _, e := range elements {
			views = append(views, viewOf(e))
		}
		return writeJSON(out, views)
	}
	for _, e := range elements {
		fmt.Fprintf(out, "%-36s  %s\n", e.ID(), e.Label())
	}
	return nil
}
