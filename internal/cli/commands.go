package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	appanalyses "github.com/bryanwahyu/repair-analysis/internal/application/analyses"
	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
	"github.com/bryanwahyu/repair-analysis/internal/middleware"
)

// NewRootCmd builds the analyses command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "analyses",
		Short: "Manage technical repair analyses",
		Long: `analyses lists, creates, edits and deletes repair analyses stored in the
configured backend (sqlite, mysql, postgres, pgx or postgrest).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			switch a.output {
			case "human", "json", "yaml":
			default:
				return fmt.Errorf("unknown output format %q (human, json, yaml)", a.output)
			}
			return a.open(cmd.Context(), cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "config.yaml", "Path to config file")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "human", "Output format (human, json, yaml)")

	root.AddCommand(
		newListCmd(a),
		newCreateCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newExportCmd(a),
		newSeedCmd(a),
	)
	return root
}

func newListCmd(a *app) *cobra.Command {
	var tab, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List analyses of one category",
		Long: `List the analyses of a category, optionally filtered by a search text
matched against device and analysis.

Examples:
  analyses list --tab physical
  analyses list --tab logical --search seagate -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := middleware.ValidateCategory(tab)
			if err != nil {
				return err
			}
			if err := a.ctl.SelectTab(cat); err != nil {
				return err
			}
			a.ctl.SetSearchQuery(search)
			return DisplayState(cmd.OutOrStdout(), a.ctl.State(), a.output)
		},
	}
	cmd.Flags().StringVarP(&tab, "tab", "t", string(domain.CategoryLogical), "Category (logical, physical, electronic)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Search text")
	return cmd
}

// draftFlags are the editable fields shared by create and edit
type draftFlags struct {
	device, damageType, analysis, category, severity string
	suggest                                          bool
}

func (d *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.device, "device", "", "Device description")
	cmd.Flags().StringVar(&d.damageType, "damage-type", "", "Damage type (free text)")
	cmd.Flags().StringVar(&d.analysis, "analysis", "", "Technical analysis")
	cmd.Flags().StringVar(&d.category, "category", "", "Category (logical, physical, electronic)")
	cmd.Flags().StringVar(&d.severity, "severity", "", "Severity (simple, moderate, complex)")
	cmd.Flags().BoolVar(&d.suggest, "suggest", false, "Draft the analysis text with the advisor")
}

// apply writes every flag the user set into the open draft.
func (d *draftFlags) apply(cmd *cobra.Command, a *app) error {
	fields := []struct{ flag, field, value string }{
		{"device", domain.FieldDevice, d.device},
		{"damage-type", domain.FieldDamageType, d.damageType},
		{"analysis", domain.FieldAnalysis, d.analysis},
		{"category", domain.FieldCategory, d.category},
		{"severity", domain.FieldSeverity, d.severity},
	}
	for _, f := range fields {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		if err := a.ctl.UpdateDraftField(f.field, middleware.SanitizeString(f.value)); err != nil {
			return err
		}
	}
	if d.suggest {
		return a.spin(cmd.ErrOrStderr(), " Drafting analysis...", func() error {
			return a.ctl.SuggestAnalysis(cmd.Context())
		})
	}
	return nil
}

func submit(cmd *cobra.Command, a *app, msg string) error {
	err := a.spin(cmd.ErrOrStderr(), " Saving...", func() error { return a.ctl.Submit(cmd.Context()) })
	if err != nil {
		return err
	}
	if a.output == "human" {
		printSuccess(cmd.ErrOrStderr(), msg)
	}
	return nil
}

func newCreateCmd(a *app) *cobra.Command {
	var d draftFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an analysis",
		Long: `Create an analysis. Device and analysis are required; category defaults
to logical and severity to simple.

Examples:
  analyses create --device "HD Seagate 2TB" --damage-type "Falha de Setores" \
    --analysis "Múltiplos setores defeituosos" --severity complex
  analyses create --device "SSD Kingston" --category electronic --suggest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.ctl.OpenForCreate()
			if err := d.apply(cmd, a); err != nil {
				return err
			}
			draft := a.ctl.State().Session.Draft
			if err := submit(cmd, a, "Analysis created"); err != nil {
				return err
			}
			if a.output == "human" {
				return nil
			}
			// the backend assigns the id; list to see it
			return DisplayRecord(cmd.OutOrStdout(), domain.Analysis{Fields: draft}, a.output)
		},
	}
	d.register(cmd)
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var d draftFlags
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit an analysis",
		Long: `Edit an analysis. Only the flags given are changed.

Examples:
  analyses edit 3f2a9c1e-... --severity moderate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := middleware.ValidateAnalysisID(args[0]); err != nil {
				return err
			}
			id := domain.ID(args[0])
			if err := a.ctl.OpenForEdit(id); err != nil {
				return err
			}
			if err := d.apply(cmd, a); err != nil {
				return err
			}
			if err := submit(cmd, a, "Analysis updated"); err != nil {
				return err
			}
			rec, err := a.find(args[0])
			if err != nil {
				return err
			}
			return DisplayRecord(cmd.OutOrStdout(), rec, a.output)
		},
	}
	d.register(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an analysis after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := middleware.ValidateAnalysisID(args[0]); err != nil {
				return err
			}
			var confirm appanalyses.Confirmer = newPromptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
			if yes {
				confirm = yesConfirmer{}
			}
			deleted, err := a.ctl.Delete(cmd.Context(), domain.ID(args[0]), confirm)
			if err != nil {
				return err
			}
			return reportDelete(cmd.OutOrStdout(), args[0], deleted, a.output)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func reportDelete(w io.Writer, id string, deleted bool, format string) error {
	switch format {
	case "json":
		return displayJSON(w, map[string]any{"id": id, "deleted": deleted})
	case "yaml":
		return displayYAML(w, map[string]any{"id": id, "deleted": deleted})
	}
	if deleted {
		printSuccess(w, "Analysis "+id+" deleted")
	} else {
		fmt.Fprintln(w, "Cancelled, nothing deleted.")
	}
	return nil
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Upload a JSON snapshot of every analysis to object storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var url string
			err := a.spin(cmd.ErrOrStderr(), " Uploading snapshot...", func() error {
				var err error
				url, err = a.ctl.Export(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}
			if a.output == "human" {
				printSuccess(cmd.OutOrStdout(), "Snapshot uploaded: "+url)
				return nil
			}
			if a.output == "yaml" {
				return displayYAML(cmd.OutOrStdout(), map[string]string{"url": url})
			}
			return displayJSON(cmd.OutOrStdout(), map[string]string{"url": url})
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the sample analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var n int
			err := a.spin(cmd.ErrOrStderr(), " Seeding...", func() error {
				var err error
				n, err = a.ctl.Seed(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}
			if a.output == "human" {
				printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Created %d sample analyses", n))
				return nil
			}
			if a.output == "yaml" {
				return displayYAML(cmd.OutOrStdout(), map[string]int{"created": n})
			}
			return displayJSON(cmd.OutOrStdout(), map[string]int{"created": n})
		},
	}
}
