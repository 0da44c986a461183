// Command picker runs picker sessions from the terminal: against a fixture
// file for list, facets and pick, or against a running server for soak.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/okian/playmedia/internal/adapters/content"
	"github.com/okian/playmedia/internal/adapters/repository"
	app "github.com/okian/playmedia/internal/app"
	"github.com/okian/playmedia/internal/domain/model"
	"github.com/okian/playmedia/internal/domain/types"
	"github.com/okian/playmedia/internal/soak"
	"github.com/okian/playmedia/pkg/logger"
)

var (
	logLevel  string
	logFormat string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "picker",
		Short:         "Pick athletes and media for a content form",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(logFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(facetsCmd())
	rootCmd.AddCommand(pickCmd())
	rootCmd.AddCommand(soakCmd())
	return rootCmd
}

// sessionFlags are shared by the fixture-backed commands.
type sessionFlags struct {
	fixture string
	kind    string
	exclude []string
	facets  map[string]string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.fixture, "fixture", "", "JSON fixture with athletes, sports and media")
	cmd.Flags().StringVar(&f.kind, "kind", string(model.KindAthlete), "entity kind: athlete, sport or media")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "ids already present in the field")
	cmd.Flags().StringToStringVar(&f.facets, "facet", nil, "facet filter, e.g. --facet nationality=France")
	_ = cmd.MarkFlagRequired("fixture")
}

// localPicker is a started service over a fixture with one open session.
type localPicker struct {
	svc   *app.Service
	forms *repository.MemoryStore
	id    string
}

func (p *localPicker) close() {
	p.svc.Stop()
	_ = p.forms.Close()
}

func openLocal(ctx context.Context, f *sessionFlags) (*localPicker, error) {
	kind, err := model.ParseKind(f.kind)
	if err != nil {
		return nil, err
	}
	src, err := content.LoadFixture(f.fixture)
	if err != nil {
		return nil, err
	}

	ref := repository.FieldRef{ContentType: repository.ContentEvent, ContentID: "cli", Key: string(kind)}
	existing := make(model.Collection, 0, len(f.exclude))
	for _, id := range f.exclude {
		existing = append(existing, model.Entity{ID: id, Kind: kind})
	}
	forms := repository.NewMemoryStore(ctx, repository.WithSeed(map[repository.FieldRef]model.Collection{ref: existing}))

	svc := app.New(app.WithSource(src), app.WithForms(forms))
	if err := svc.Start(ctx); err != nil {
		_ = forms.Close()
		return nil, err
	}
	p := &localPicker{svc: svc, forms: forms}

	p.id, err = svc.Open(ctx, app.OpenRequest{Kind: kind, Field: ref})
	if err != nil {
		p.close()
		return nil, err
	}
	if len(f.facets) > 0 {
		if err := svc.SetFacets(p.id, f.facets); err != nil {
			p.close()
			return nil, err
		}
	}
	return p, nil
}

func listCmd() *cobra.Command {
	var (
		f    sessionFlags
		page types.Page
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the visible candidates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := openLocal(cmd.Context(), &f)
			if err != nil {
				return err
			}
			defer p.close()

			view, err := p.svc.View(p.id, page)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), view.Items)
		},
	}

	f.register(cmd)
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "first candidate to print")
	cmd.Flags().IntVar(&page.Limit, "limit", types.DefaultLimit, "number of candidates to print")
	return cmd
}

func facetsCmd() *cobra.Command {
	var f sessionFlags

	cmd := &cobra.Command{
		Use:   "facets",
		Short: "Print the facets and their options",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := openLocal(cmd.Context(), &f)
			if err != nil {
				return err
			}
			defer p.close()

			view, err := p.svc.View(p.id, types.Page{})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), view.Facets)
		},
	}

	f.register(cmd)
	return cmd
}

func pickCmd() *cobra.Command {
	var (
		f      sessionFlags
		toggle []string
	)

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Toggle candidates and print the committed selection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := openLocal(cmd.Context(), &f)
			if err != nil {
				return err
			}
			defer p.close()

			for _, id := range toggle {
				res, err := p.svc.Toggle(p.id, id)
				if err != nil {
					return err
				}
				if !res.Accepted {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping %q: not an eligible candidate\n", id)
				}
			}
			res, err := p.svc.Commit(cmd.Context(), p.id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	f.register(cmd)
	cmd.Flags().StringSliceVar(&toggle, "toggle", nil, "candidate ids to toggle, in order")
	return cmd
}

func soakCmd() *cobra.Command {
	cfg := soak.Config{Kind: model.KindAthlete}
	var kind string

	cmd := &cobra.Command{
		Use:   "soak",
		Short: "Drive concurrent sessions against a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := model.ParseKind(kind)
			if err != nil {
				return err
			}
			cfg.Kind = k
			stats, err := soak.Run(cmd.Context(), cfg)
			if perr := printJSON(cmd.OutOrStdout(), stats); perr != nil && err == nil {
				err = perr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the picker server")
	cmd.Flags().IntVar(&cfg.Sessions, "sessions", 100, "number of sessions")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 8, "concurrent workers")
	cmd.Flags().IntVar(&cfg.Picks, "picks", 3, "candidates toggled per session")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "HTTP request timeout")
	cmd.Flags().StringVar(&kind, "kind", string(model.KindAthlete), "entity kind: athlete, sport or media")
	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "log every session")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := sonic.ConfigDefault.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
