package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/featkit/twise/pkg/formula"
	"github.com/featkit/twise/pkg/metrics"
	"github.com/featkit/twise/pkg/twise"
)

// options mirrors the generator's knobs for the YAML options file. Flags
// given explicitly on the command line take precedence.
type options struct {
	T                   int    `json:"t"`
	Iterations          int    `json:"iterations"`
	MaxSampleSize       int    `json:"maxSampleSize"`
	RandomSampleSize    *int   `json:"randomSampleSize"`
	Seed                *int64 `json:"seed"`
	UseMIG              *bool  `json:"useMig"`
	SolverTimeoutMillis int64  `json:"solverTimeoutMillis"`
}

func main() {
	var (
		opts        options
		configFile  string
		outFile     string
		metricsAddr string
		debug       bool
	)
	defaults := options{
		T:          twise.DefaultT,
		Iterations: twise.DefaultIterations,
	}

	rootCmd := &cobra.Command{
		Use:   "twise <model.cnf>",
		Short: "Generate a t-wise covering sample for a DIMACS feature model",
		Args:  cobra.ExactArgs(1),

		PreRunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				log.SetLevel(log.DebugLevel)
			}
			if configFile == "" {
				return nil
			}
			data, err := os.ReadFile(configFile)
			if err != nil {
				return errors.Wrap(err, "reading options file")
			}
			fileOpts := defaults
			if err := yaml.Unmarshal(data, &fileOpts); err != nil {
				return errors.Wrap(err, "decoding options file")
			}
			// Explicit flags win over the file.
			if !cmd.Flags().Changed("t") {
				opts.T = fileOpts.T
			}
			if !cmd.Flags().Changed("iterations") {
				opts.Iterations = fileOpts.Iterations
			}
			if !cmd.Flags().Changed("max-sample") && fileOpts.MaxSampleSize > 0 {
				opts.MaxSampleSize = fileOpts.MaxSampleSize
			}
			if !cmd.Flags().Changed("random-sample") && fileOpts.RandomSampleSize != nil {
				opts.RandomSampleSize = fileOpts.RandomSampleSize
			}
			if !cmd.Flags().Changed("seed") && fileOpts.Seed != nil {
				opts.Seed = fileOpts.Seed
			}
			if !cmd.Flags().Changed("mig") && fileOpts.UseMIG != nil {
				opts.UseMIG = fileOpts.UseMIG
			}
			if !cmd.Flags().Changed("solver-timeout") && fileOpts.SolverTimeoutMillis > 0 {
				opts.SolverTimeoutMillis = fileOpts.SolverTimeoutMillis
			}
			return nil
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			in, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "opening feature model")
			}
			defer in.Close()
			cnf, err := formula.LoadDimacs(in)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"variables": cnf.VariableCount(),
				"clauses":   len(cnf.Clauses()),
			}).Debug("loaded feature model")

			genOpts := []twise.Option{
				twise.WithT(opts.T),
				twise.WithIterations(opts.Iterations),
			}
			if opts.MaxSampleSize > 0 {
				genOpts = append(genOpts, twise.WithMaxSampleSize(opts.MaxSampleSize))
			}
			if opts.RandomSampleSize != nil {
				genOpts = append(genOpts, twise.WithRandomSampleSize(*opts.RandomSampleSize))
			}
			if opts.Seed != nil {
				genOpts = append(genOpts, twise.WithSeed(*opts.Seed))
			}
			if opts.UseMIG != nil {
				genOpts = append(genOpts, twise.WithMIG(*opts.UseMIG))
			}
			if opts.SolverTimeoutMillis > 0 {
				genOpts = append(genOpts, twise.WithSolverTimeout(time.Duration(opts.SolverTimeoutMillis)*time.Millisecond))
			}
			if metricsAddr != "" {
				metrics.Register(prometheus.DefaultRegisterer)
				genOpts = append(genOpts, twise.WithObserver(metrics.Observer()))
				go func() {
					http.Handle("/metrics", promhttp.Handler())
					if err := http.ListenAndServe(metricsAddr, nil); err != nil {
						log.WithError(err).Warn("metrics endpoint failed")
					}
				}()
			}

			gen, err := twise.NewGenerator(cnf, genOpts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := gen.Build(ctx); err != nil {
				return errors.Wrap(err, "sampling")
			}

			var out io.Writer = os.Stdout
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return errors.Wrap(err, "creating output file")
				}
				defer f.Close()
				out = f
			}

			count := 0
			for {
				conf, ok := gen.Get()
				if !ok {
					break
				}
				lits := conf.Lits()
				line := make([]string, len(lits))
				for i, l := range lits {
					line[i] = l.String()
				}
				fmt.Fprintln(out, strings.Join(line, " "))
				count++
			}
			log.WithFields(log.Fields{
				"configurations": count,
				"covered":        gen.CoveredCount(),
				"invalid":        gen.InvalidCount(),
				"combinations":   gen.Combinations(),
				"verified":       gen.Verified(),
			}).Info("sample written")
			return nil
		},
	}

	rootCmd.Flags().IntVar(&opts.T, "t", defaults.T, "target combination size")
	rootCmd.Flags().IntVar(&opts.Iterations, "iterations", defaults.Iterations, "number of refinement passes")
	rootCmd.Flags().IntVar(&opts.MaxSampleSize, "max-sample", 0, "maximum number of configurations (0 for unlimited)")
	var randomSample int
	rootCmd.Flags().IntVar(&randomSample, "random-sample", twise.DefaultRandomSampleSize, "size of the random model bootstrap")
	var seed int64
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	var useMIG bool
	rootCmd.Flags().BoolVar(&useMIG, "mig", true, "use implication-graph deduction")
	rootCmd.Flags().Int64Var(&opts.SolverTimeoutMillis, "solver-timeout", 0, "per-query solver timeout in milliseconds (0 for none)")
	rootCmd.Flags().StringVar(&configFile, "config", "", "YAML options file")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while sampling")
	rootCmd.Flags().StringVarP(&outFile, "output", "o", "", "write the sample to a file instead of stdout")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	opts.RandomSampleSize = &randomSample
	opts.Seed = &seed
	opts.UseMIG = &useMIG

	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
