package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/gahshomar/internal/calendar"
)

func newConvertCmd(app *App) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "convert <YYYY-MM-DD>",
		Short: "Convert a date between the Gregorian and Jalali calendars",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := calendar.ParseSystem(from)
			if err != nil {
				return err
			}
			dst, err := calendar.ParseSystem(to)
			if err != nil {
				return err
			}
			conv, err := app.Config.Converter()
			if err != nil {
				return err
			}
			conv.System = dst

			d, err := calendar.Parse(src, args[0])
			if err != nil {
				return err
			}
			i, err := d.Instant()
			if err != nil {
				return err
			}
			out := conv.ToDisplay(i)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", out, conv.Format(out, "dddd D MMMM YYYY"))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "gregorian", "Calendar of the input date")
	cmd.Flags().StringVar(&to, "to", "jalali", "Calendar to convert to")
	return cmd
}
