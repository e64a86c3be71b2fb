package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fairwaylabs/clubtrack/internal/model"
	"github.com/fairwaylabs/clubtrack/internal/store"
)

var clubsCmd = &cobra.Command{
	Use:   "clubs",
	Short: "Browse the club catalog",
	Long:  "Commands for listing catalog clubs, brands, club types, and counts.",
}

// -- clubs list --

var clubsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog clubs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		brand, _ := cmd.Flags().GetString("brand")
		clubType, _ := cmd.Flags().GetString("type")
		year, _ := cmd.Flags().GetInt("year")
		current, _ := cmd.Flags().GetBool("current")
		limit, _ := cmd.Flags().GetInt("limit")

		clubs, err := st.ListClubs(ctx, store.ClubFilter{
			Brand:       brand,
			ClubType:    clubType,
			Year:        year,
			CurrentOnly: current,
			Limit:       limit,
		})
		if err != nil {
			return eris.Wrap(err, "clubs list")
		}

		if len(clubs) == 0 {
			fmt.Fprintln(os.Stderr, "No clubs found.")
			return nil
		}

		formatClubsList(os.Stdout, clubs)
		return nil
	},
}

// -- clubs brands --

var clubsBrandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "List known brands",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		brands, err := st.ListBrands(ctx)
		if err != nil {
			return eris.Wrap(err, "clubs brands")
		}

		formatBrandsList(os.Stdout, brands)
		return nil
	},
}

// -- clubs types --

var clubsTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List club type vocabulary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		types, err := st.ListClubTypes(ctx)
		if err != nil {
			return eris.Wrap(err, "clubs types")
		}

		for _, ct := range types {
			fmt.Println(ct.Name)
		}
		return nil
	},
}

// -- clubs stats --

var clubsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog row counts and per-source freshness",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		stats, err := st.Stats(ctx)
		if err != nil {
			return eris.Wrap(err, "clubs stats")
		}

		sources, err := st.ListRunSources(ctx)
		if err != nil {
			return eris.Wrap(err, "clubs stats")
		}
		freshness := make([]sourceFreshness, 0, len(sources))
		for _, name := range sources {
			last, err := st.LastSuccessfulRun(ctx, name)
			if err != nil {
				return eris.Wrap(err, "clubs stats")
			}
			freshness = append(freshness, sourceFreshness{Source: name, LastSuccess: last})
		}

		formatCatalogStats(os.Stdout, stats, freshness)
		return nil
	},
}

func init() {
	clubsListCmd.Flags().String("brand", "", "filter by brand name substring")
	clubsListCmd.Flags().String("type", "", "filter by canonical club type")
	clubsListCmd.Flags().Int("year", 0, "filter by release year")
	clubsListCmd.Flags().Bool("current", false, "only current models")
	clubsListCmd.Flags().Int("limit", 50, "max number of clubs to display")

	clubsCmd.AddCommand(clubsListCmd)
	clubsCmd.AddCommand(clubsBrandsCmd)
	clubsCmd.AddCommand(clubsTypesCmd)
	clubsCmd.AddCommand(clubsStatsCmd)
	rootCmd.AddCommand(clubsCmd)
}

// formatClubsList writes a tabular list of clubs to w.
func formatClubsList(out io.Writer, clubs []model.Club) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BRAND\tMODEL\tTYPE\tYEAR\tPRICE\tMSRP\tCURRENT")
	_, _ = fmt.Fprintln(w, "-----\t-----\t----\t----\t-----\t----\t-------")

	for _, c := range clubs {
		current := ""
		if c.IsCurrent {
			current = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			c.BrandName,
			c.ModelName,
			c.ClubTypeName,
			c.YearReleased,
			formatPrice(c.CurrentPrice),
			formatPrice(c.MSRP),
			current,
		)
	}
	_ = w.Flush()
}

// formatBrandsList writes a tabular list of brands to w.
func formatBrandsList(out io.Writer, brands []model.Brand) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCOUNTRY\tWEBSITE")
	for _, b := range brands {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", b.Name, b.Country, b.Website)
	}
	_ = w.Flush()
}

// sourceFreshness pairs a run source with its most recent successful run.
type sourceFreshness struct {
	Source      string
	LastSuccess *time.Time
}

// formatCatalogStats writes catalog counts and per-source freshness to w.
func formatCatalogStats(out io.Writer, s *store.CatalogStats, freshness []sourceFreshness) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Brands:\t%d\n", s.Brands)
	_, _ = fmt.Fprintf(w, "Club types:\t%d\n", s.ClubTypes)
	_, _ = fmt.Fprintf(w, "Clubs:\t%d\n", s.Clubs)
	_, _ = fmt.Fprintf(w, "Provenance rows:\t%d\n", s.Sources)
	for _, f := range freshness {
		last := "never"
		if f.LastSuccess != nil {
			last = f.LastSuccess.Format(time.RFC3339)
		}
		_, _ = fmt.Fprintf(w, "Last success (%s):\t%s\n", f.Source, last)
	}
	_ = w.Flush()
}

// formatPrice renders an optional price as dollars, or "-" when unknown.
func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *p)
}
