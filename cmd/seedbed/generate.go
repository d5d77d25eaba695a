package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/seedbed/internal/cli"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [recipe]",
	Short: "Run a recipe and write the generated records",
	Long: `Runs a recipe and writes the records as JSON or Markdown, to a file, or into
a SQL database (--dburl sqlite:///path.db or postgres://...).

With --num-records and --num-records-tablename the recipe is repeated in the
same session until the named object type has at least that many records.
just_once blocks run in the first batch only.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		flags := cmd.Flags()

		opts := cli.GenerateOptions{RecipePath: recipePath(cmd, args)}
		if opts.RecipePath == "" {
			fmt.Println("Error: a recipe file is required")
			os.Exit(1)
		}
		opts.SessionID, _ = flags.GetString("session")
		opts.Seed, _ = flags.GetInt64("seed")
		opts.Scope, _ = flags.GetString("scope")
		opts.Vars, _ = flags.GetString("vars")
		opts.Target, _ = flags.GetString("num-records-tablename")
		opts.NumRecords, _ = flags.GetInt("num-records")
		opts.MaxBatches, _ = flags.GetInt("max-batches")
		opts.Format, _ = flags.GetString("format")
		opts.OutputPath, _ = flags.GetString("output")
		opts.DBURL, _ = flags.GetString("dburl")
		opts.ContinuationFile, _ = flags.GetString("continuation-file")
		opts.GenerateContinuationFile, _ = flags.GetString("generate-continuation-file")
		opts.MappingFile, _ = flags.GetString("generate-mapping-file")
		opts.WorkingDirectory, _ = flags.GetString("working-directory")
		opts.Debug, _ = flags.GetBool("debug")
		opts.Quiet, _ = flags.GetBool("quiet")
		watch, _ := flags.GetBool("watch")

		if flags.Changed("num-records") && opts.Target == "" {
			fmt.Println("Error: --num-records requires --num-records-tablename")
			os.Exit(1)
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		var err error
		if watch {
			err = cli.RunWatch(ctx, cfg, opts, cli.StdIO())
		} else {
			err = cli.RunGenerate(ctx, cfg, opts, cli.StdIO())
		}
		if sig := ctx.Signal(); sig != nil && !opts.Quiet {
			fmt.Fprintf(os.Stderr, "\nStopped by signal: %v\n", sig)
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	flags := generateCmd.Flags()
	flags.String("recipe", "", "Recipe file (alternative to the positional argument)")
	flags.StringP("session", "s", "", "Generation session; just_once blocks run once per session")
	flags.Int64("seed", 0, "Random seed (0 picks one and logs it)")
	flags.String("scope", "", "just_once scope: session, process or batch")
	flags.String("vars", "", "Recipe option overrides as K:V,K2:V2")
	flags.IntP("num-records", "n", 0, "Repeat until this many records of --num-records-tablename exist")
	flags.String("num-records-tablename", "", "Object type counted by --num-records")
	flags.Int("max-batches", 0, "Maximum recipe executions when repeating (0 uses the default)")
	flags.StringP("format", "f", "", "Output format: json or markdown")
	flags.StringP("output", "o", "", "Write records to this file instead of stdout")
	flags.String("dburl", "", "Write records into a database (sqlite:// or postgres://)")
	flags.String("continuation-file", "", "Resume session state from this file")
	flags.String("generate-continuation-file", "", "Write session state to this file after the run")
	flags.String("generate-mapping-file", "", "Write a load mapping inferred from the recipe")
	flags.String("working-directory", "", "Keep continuation state here between runs")
	flags.BoolP("quiet", "q", false, "Suppress the summary on stderr")
	flags.BoolP("watch", "w", false, "Regenerate whenever the recipe file changes")
}
