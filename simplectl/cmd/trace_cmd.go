package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/davidchow24/simple-controller/recording"
	"github.com/davidchow24/simple-controller/tracing"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Read recorded transition traces",
}

var traceTablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables of a trace database",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.SilenceUsage = true

		db, err := sql.Open("sqlite3", traceDBPath(cmd))
		if err != nil {
			log.Fatalf("Error opening database: %v", err)
		}
		defer db.Close()

		rows, err := db.Query(
			"SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
		if err != nil {
			log.Fatalf("Error listing tables: %v", err)
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				log.Fatalf("Error listing tables: %v", err)
			}
			fmt.Println(name)
		}
	},
}

var traceDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump recorded transitions",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.SilenceUsage = true

		reader := openTraceReader(cmd)
		defer reader.Close()

		params := recording.QueryParams{OrderBy: "Time"}

		controller, _ := cmd.Flags().GetString("controller")
		if controller != "" {
			params.Where = "Controller = ?"
			params.Args = []any{controller}
		}

		limit, _ := cmd.Flags().GetInt("limit")
		if limit > 0 {
			params.Limit = limit
		}

		results, total, err := reader.Query(
			context.Background(), "transitions", params)
		if err != nil {
			log.Fatalf("Error querying transitions: %v", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tCONTROLLER\tKIND\tSUBJECT\tFROM\tTO\tERROR")
		for _, r := range results {
			entry := r.(*tracing.TransitionTableEntry)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				time.Unix(0, entry.Time).Format(time.RFC3339Nano),
				entry.Controller,
				entry.Kind,
				entry.Subject,
				entry.From,
				entry.To,
				entry.Error,
			)
		}
		w.Flush()

		fmt.Printf("%d of %d transitions\n", len(results), total)
	},
}

func traceDBPath(cmd *cobra.Command) string {
	db, _ := cmd.Flags().GetString("db")
	if db == "" {
		log.Fatalf("Error: --db is required")
	}

	if _, err := os.Stat(db); err != nil {
		log.Fatalf("Error: cannot open database %s: %v", db, err)
	}

	return db
}

func openTraceReader(cmd *cobra.Command) recording.Reader {
	reader := recording.NewReader(traceDBPath(cmd))
	reader.MapTable("transitions", tracing.TransitionTableEntry{})

	return reader
}

func init() {
	traceCmd.PersistentFlags().String("db", "", "path to the trace database")

	traceDumpCmd.Flags().String("controller", "",
		"only dump transitions of the named controller")
	traceDumpCmd.Flags().Int("limit", 0,
		"maximum number of transitions to dump")

	traceCmd.AddCommand(traceTablesCmd)
	traceCmd.AddCommand(traceDumpCmd)
	rootCmd.AddCommand(traceCmd)
}
