package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/gahshomar/internal/calendar"
	"github.com/dukerupert/gahshomar/internal/database"
	"github.com/dukerupert/gahshomar/internal/eventindex"
	"github.com/dukerupert/gahshomar/internal/monthgrid"
	"github.com/dukerupert/gahshomar/internal/store"
)

func newMonthCmd(app *App) *cobra.Command {
	var (
		system    string
		withItems bool
	)
	cmd := &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Print a month grid",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := app.Config.Converter()
			if err != nil {
				return err
			}
			if system != "" {
				if conv.System, err = calendar.ParseSystem(system); err != nil {
					return err
				}
			}

			builder := monthgrid.NewBuilder(conv)
			var grid *monthgrid.Grid
			if len(args) == 0 {
				grid, err = builder.Current()
			} else {
				var year, month int
				if _, serr := fmt.Sscanf(calendar.NormalizeDigits(args[0]), "%d-%d", &year, &month); serr != nil {
					return fmt.Errorf("month %q: expected YYYY-MM", args[0])
				}
				grid, err = builder.Month(year, month)
			}
			if err != nil {
				return err
			}

			var index eventindex.Index
			if withItems {
				db, err := database.Open(app.Config.DBPath)
				if err != nil {
					return fmt.Errorf("open database: %w", err)
				}
				defer db.Close()

				first, last := grid.Span()
				items, err := store.NewItemStore(db).ListInRange(cmd.Context(), first, last)
				if err != nil {
					return err
				}
				index = eventindex.Build(items, grid.Days())
			}

			printGrid(cmd.OutOrStdout(), conv, grid, index)
			return nil
		},
	}
	cmd.Flags().StringVar(&system, "calendar", "", "Display calendar (jalali|gregorian); default from config")
	cmd.Flags().BoolVar(&withItems, "items", false, "List stored items under the grid")
	return cmd
}

// printGrid writes the grid as a text table. Days outside the month are
// dimmed with parentheses and today is starred. Items, when given, follow
// the table day by day.
func printGrid(w io.Writer, conv calendar.Converter, grid *monthgrid.Grid, index eventindex.Index) {
	fmt.Fprintln(w, conv.Format(grid.Anchor, "MMMM YYYY"))

	headers := conv.HeaderLabels()
	cols := make([]string, len(headers))
	for i, h := range headers {
		r := []rune(h)
		if len(r) > 3 {
			r = r[:3]
		}
		cols[i] = fmt.Sprintf("%5s", string(r))
	}
	fmt.Fprintln(w, strings.Join(cols, ""))

	for _, week := range grid.Weeks() {
		var b strings.Builder
		for _, cell := range week {
			label := conv.Format(cell.Date, "D")
			switch {
			case cell.IsToday:
				label += "*"
			case !cell.InCurrentMonth:
				label = "(" + label + ")"
			}
			if len(index.On(cell.Key)) > 0 {
				label = "+" + label
			}
			fmt.Fprintf(&b, "%5s", label)
		}
		fmt.Fprintln(w, b.String())
	}

	if index == nil {
		return
	}
	for _, cell := range grid.Days() {
		items := index.On(cell.Key)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", conv.Format(cell.Date, "dddd D MMMM"))
		for _, it := range items {
			fmt.Fprintf(w, "  [%s] %s\n", it.Kind, it.Title)
		}
	}
}
