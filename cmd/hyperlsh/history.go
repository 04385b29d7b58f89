package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/hyperlsh/config"
	"github.com/hupe1980/hyperlsh/report"
)

func newHistoryCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored run summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("history") {
				cfgPath, _ := cmd.Flags().GetString("config")
				cfg, err := config.Read(cfgPath)
				if err != nil {
					return err
				}
				path = cfg.Output.History
			}
			if path == "" {
				return errors.New("no history file configured")
			}

			store, err := report.OpenBoltStore(path)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tSTARTED\tFAMILY\tNAME\tN\tQUERIES\tTOP_K\tLIMIT\tRECALL\tPRECISION\tINDEX")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%.4f\t%.4f\t%s\n",
					r.RunID, r.Started.Format(time.RFC3339), r.Family, r.Name,
					r.DataSize, r.Queries, r.TopK, r.Limit,
					r.MeanRecall, r.MeanPrecision, r.IndexDuration)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&path, "history", "", "bbolt history file")
	return cmd
}
