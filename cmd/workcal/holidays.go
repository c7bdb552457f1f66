package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/workcal/availability/pkg/dateutil"
)

func holidaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "holidays",
		Short: "Print the configured national calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			national, err := loadNational(context.Background(), cfg.Calendar)
			if err != nil {
				return err
			}

			outPrintf("📅 %d national holiday(s)\n", national.Len())
			outPrintln("═══════════════════════════════════════════════════════")
			for _, h := range national.Holidays() {
				outPrintf("  %s  %-9s  %s\n",
					dateutil.FormatDate(h.Date),
					h.Date.Weekday(),
					h.Name)
			}
			return nil
		},
	}
}
