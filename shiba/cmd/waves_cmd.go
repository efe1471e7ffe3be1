package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sarchlab/shiba/datarecording"
	"github.com/sarchlab/shiba/wave"
)

var wavesCmd = &cobra.Command{
	Use:   "waves [file]",
	Short: "List the signal changes stored in a recording database",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SilenceUsage = true

		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			log.Fatalf("Error opening database: %v", err)
		}
		defer reader.Close()

		signal, _ := cmd.Flags().GetString("signal")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		params := datarecording.QueryParams{
			Limit:   limit,
			Offset:  offset,
			OrderBy: "Time",
		}
		if signal != "" {
			params.Where = "Signal = ?"
			params.Args = []any{signal}
		}

		reader.MapTable(wave.ChangeTableName, wave.SignalChange{})

		changes, total, err := reader.Query(
			context.Background(), wave.ChangeTableName, params)
		if err != nil {
			log.Fatalf("Error querying database: %v", err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Time", "Signal", "Prior", "Value"})

		for _, c := range changes {
			change := c.(*wave.SignalChange)
			table.Append([]string{
				humanize.Comma(int64(change.Time)),
				change.Signal,
				strconv.FormatUint(change.Prior, 10),
				strconv.FormatUint(change.Value, 10),
			})
		}

		table.Render()

		fmt.Printf("%s of %s changes shown\n",
			humanize.Comma(int64(len(changes))),
			humanize.Comma(int64(total)))
	},
}

func init() {
	wavesCmd.Flags().String("signal", "",
		"only show changes of the named signal")
	wavesCmd.Flags().Int("limit", 0,
		"maximum number of changes to show")
	wavesCmd.Flags().Int("offset", 0,
		"number of changes to skip")

	rootCmd.AddCommand(wavesCmd)
}
