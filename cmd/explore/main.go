package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ucdp/internal/config"
	"ucdp/internal/engine"
	"ucdp/internal/logger"
	"ucdp/internal/models"
)

// explorer carries the flags and the loaded dataset shared by all
// subcommands.
type explorer struct {
	configPath string
	dataPath   string
	verbose    bool

	start, end int
	countries  []string
	region     string
	violence   string

	cfg *config.Config
	ds  *engine.Dataset
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	x := &explorer{}
	root := &cobra.Command{
		Use:   "explore",
		Short: "Explore the UCDP organized violence dataset from the terminal",
		Long: `Loads the UCDP country-year organized violence dataset and prints the
tables behind the dashboard charts: trends, bar races and regional comparisons.`,
		SilenceUsage:      true,
		PersistentPreRunE: x.load,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&x.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&x.dataPath, "data", "", "path to the conflict dataset (or set UCDP_DATA_PATH)")
	pf.BoolVarP(&x.verbose, "verbose", "v", false, "enable verbose (debug) logging")
	pf.IntVar(&x.start, "start", 0, "first year (default: configured window)")
	pf.IntVar(&x.end, "end", 0, "last year (default: configured window)")
	pf.StringSliceVar(&x.countries, "country", nil, "restrict to countries (repeatable)")
	pf.StringVar(&x.region, "region", "", "restrict to a region")
	pf.StringVarP(&x.violence, "type", "t", "sb", "violence type: sb, ns, os or all")

	root.AddCommand(
		x.yearsCmd(),
		x.regionsCmd(),
		x.countriesCmd(),
		x.trendCmd(),
		x.topCmd(),
		x.raceCmd(),
		x.compareRegionsCmd(),
		x.compareCountriesCmd(),
	)
	return root
}

func (x *explorer) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(x.configPath)
	if err != nil {
		return err
	}
	if x.dataPath != "" {
		cfg.Data.Path = x.dataPath
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = x.verbose
	}
	x.cfg = cfg

	ds, err := engine.LoadSource(engine.Source{
		Path:      cfg.Data.Path,
		Fallbacks: cfg.Data.Fallbacks,
		Logger:    logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Verbose),
	})
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	x.ds = ds
	return nil
}

// selection builds the filter from the persistent flags, filling unset years
// from the configured window clamped to the data.
func (x *explorer) selection(cmd *cobra.Command) models.FilterSpec {
	spec := models.FilterSpec{Countries: x.countries, Region: x.region}
	if lo, hi, err := x.ds.YearRange(); err == nil {
		spec.Start, spec.End = x.cfg.Dashboard.DefaultWindow(lo, hi)
	}
	if cmd.Flags().Changed("start") {
		spec.Start = x.start
	}
	if cmd.Flags().Changed("end") {
		spec.End = x.end
	}
	return spec
}

func (x *explorer) violenceType() (models.ViolenceType, error) {
	return models.ParseViolenceType(x.violence)
}

// table collects tab separated, locale formatted rows and renders them as
// padded columns. Styling is dropped when the output is not a terminal.
type table struct {
	w       io.Writer
	r       *lipgloss.Renderer
	p       *message.Printer
	headers []string
	rows    [][]string
}

func newTable(w io.Writer, header string) *table {
	return &table{
		w:       w,
		r:       lipgloss.NewRenderer(w),
		p:       message.NewPrinter(language.English),
		headers: strings.Split(header, "\t"),
	}
}

func (t *table) row(format string, a ...interface{}) {
	t.rows = append(t.rows, strings.Split(t.p.Sprintf(format, a...), "\t"))
}

func (t *table) flush() error {
	_, err := io.WriteString(t.w, t.view())
	return err
}

func (t *table) view() string {
	if len(t.rows) == 0 {
		return ""
	}

	colWidths := make([]int, len(t.headers))
	for i, h := range t.headers {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(colWidths) {
				colWidths[i] = max(colWidths[i], lipgloss.Width(cell))
			}
		}
	}
	// lipgloss widths include padding
	for i := range colWidths {
		colWidths[i] += 2
	}

	headerStyle := t.r.NewStyle().Bold(true).Padding(0, 1)
	rowStyle := t.r.NewStyle().Padding(0, 1)
	sepStyle := t.r.NewStyle().Faint(true)

	var sb strings.Builder
	writeRow := func(style lipgloss.Style, cells []string) {
		for i, cell := range cells {
			if i >= len(colWidths) {
				break
			}
			sb.WriteString(style.Width(colWidths[i]).Render(cell))
			if i < len(cells)-1 && i < len(colWidths)-1 {
				sb.WriteString(sepStyle.Render("|"))
			}
		}
		sb.WriteString("\n")
	}

	writeRow(headerStyle, t.headers)
	totalWidth := len(colWidths) - 1
	for _, w := range colWidths {
		totalWidth += w
	}
	sb.WriteString(sepStyle.Render(strings.Repeat("-", totalWidth)) + "\n")
	for _, row := range t.rows {
		writeRow(rowStyle, row)
	}
	sb.WriteString("\n")
	return sb.String()
}

func yearLabel(y int) string {
	return strconv.Itoa(y)
}
