package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ucdp/internal/engine"
	"ucdp/internal/models"
)

func (x *explorer) yearsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "Show the year range of the dataset and the default window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lo, hi, err := x.ds.YearRange()
			if err != nil {
				return err
			}
			start, end := x.cfg.Dashboard.DefaultWindow(lo, hi)
			t := newTable(cmd.OutOrStdout(), "MIN\tMAX\tDEFAULT START\tDEFAULT END")
			t.row("%s\t%s\t%s\t%s", yearLabel(lo), yearLabel(hi), yearLabel(start), yearLabel(end))
			return t.flush()
		},
	}
}

func (x *explorer) regionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, r := range x.ds.Regions() {
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
}

func (x *explorer) countriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List countries, optionally within --region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			countries := x.ds.Countries()
			if x.region != "" {
				countries = x.ds.CountriesByRegion(x.region)
			}
			for _, c := range countries {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}

func (x *explorer) trendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trend",
		Short: "Deaths per year for one violence type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vt, err := x.violenceType()
			if err != nil {
				return err
			}
			trend := engine.BuildTrend(x.ds, x.selection(cmd), vt)
			t := newTable(cmd.OutOrStdout(), "YEAR\t"+trend.Label)
			for _, p := range trend.Series {
				t.row("%s\t%d", yearLabel(p.Year), p.Deaths)
			}
			return t.flush()
		},
	}
}

func (x *explorer) topCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Rank countries by total deaths across all conflict types",
		Long: `Ranks countries once over the selected years. For rosters ranked year by
year use "race --mode per_year".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("top") {
				n = x.cfg.Dashboard.TopN
			}
			top := engine.TopN(engine.Melt(engine.Query(x.ds, x.selection(cmd))), n, engine.TopNStable)

			totals := make(map[string]int64, len(top.Countries))
			for _, r := range top.Rows {
				totals[r.Country] += r.Deaths
			}
			t := newTable(cmd.OutOrStdout(), "RANK\tCOUNTRY\tDEATHS")
			for i, c := range top.Countries {
				t.row("%d\t%s\t%d", i+1, c, totals[c])
			}
			return t.flush()
		},
	}
	cmd.Flags().IntVarP(&n, "top", "n", engine.DefaultTopN, "number of countries")
	return cmd
}

func (x *explorer) raceCmd() *cobra.Command {
	var (
		opts engine.RaceOptions
		mode string
	)
	cmd := &cobra.Command{
		Use:   "race",
		Short: "Print the bar race frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if opts.Mode, err = engine.ParseTopNMode(mode); err != nil {
				return err
			}
			if !cmd.Flags().Changed("top") {
				opts.TopN = x.cfg.Dashboard.TopN
			}
			if !cmd.Flags().Changed("steps") {
				opts.StepsPerYear = x.cfg.Dashboard.StepsPerYear
			}

			race := engine.BuildBarRace(x.ds, x.selection(cmd), opts)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "countries: %v (axis max %d)\n", race.Countries, race.AxisMax)
			if race.StepsPerYear == 1 {
				t := newTable(out, "YEAR\tCOUNTRY\tTYPE\tDEATHS")
				for _, r := range race.Rows {
					t.row("%s\t%s\t%s\t%d", yearLabel(r.Year), r.Country, r.ConflictType, r.Deaths)
				}
				return t.flush()
			}
			t := newTable(out, "FRAME\tCOUNTRY\tTYPE\tDEATHS")
			for _, f := range race.Frames {
				t.row("%s\t%s\t%s\t%.1f", fmt.Sprintf("%.2f", f.Frame), f.Country, f.ConflictType, f.Deaths)
			}
			return t.flush()
		},
	}
	cmd.Flags().IntVarP(&opts.TopN, "top", "n", engine.DefaultTopN, "number of countries")
	cmd.Flags().StringVar(&mode, "mode", "stable", "ranking mode: stable or per_year")
	cmd.Flags().IntVar(&opts.StepsPerYear, "steps", engine.DefaultStepsPerYear, "frames per year; 1 disables interpolation")
	return cmd
}

func (x *explorer) compareRegionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare-regions [region...]",
		Short: "Compare regions over the selected years",
		RunE: func(cmd *cobra.Command, args []string) error {
			vt, err := x.violenceType()
			if err != nil {
				return err
			}
			return printComparison(cmd, engine.BuildRegionComparison(x.ds, x.selection(cmd), vt, args))
		},
	}
}

func (x *explorer) compareCountriesCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "compare-countries <region>",
		Short: "Compare countries within a region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vt, err := x.violenceType()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("top") {
				n = x.cfg.Dashboard.RegionTopN
			}
			spec := x.selection(cmd)
			spec.Region = args[0]
			return printComparison(cmd, engine.BuildCountryComparison(x.ds, spec, vt, n))
		},
	}
	cmd.Flags().IntVarP(&n, "top", "n", engine.DefaultRegionTopN, "countries shown when --country is not set")
	return cmd
}

func printComparison(cmd *cobra.Command, cmp models.Comparison) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s deaths\n\n", cmp.Label)

	t := newTable(out, "ENTITY\tTOTAL")
	for _, e := range cmp.Totals {
		t.row("%s\t%d", e.Key, e.Deaths)
	}
	if err := t.flush(); err != nil {
		return err
	}

	t = newTable(out, "YEAR\tENTITY\tDEATHS")
	for _, p := range cmp.Series {
		t.row("%s\t%s\t%d", yearLabel(p.Year), p.Key, p.Deaths)
	}
	return t.flush()
}
