// Command phpanalyze is the thin compatibility shell over the core's
// Analyze entry point: it discovers PHP files under the given roots, parses
// them with the bundled front end, runs analysis and renders the issues.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/krizos/phpanalyze"
	"github.com/krizos/phpanalyze/internal/obslog"
	"github.com/krizos/phpanalyze/internal/span"
	"github.com/krizos/phpanalyze/phpsettings"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "phpanalyze",
		Short:         "Whole-program static analyzer for PHP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(analyzeCommand(), versionCommand())
	return root
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("phpanalyze %s (%s)\n", version, commit)
		},
	}
}

func analyzeCommand() *cobra.Command {
	var (
		configPath string
		logLevel   string
		noProgress bool
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [paths...]",
		Short: "Scan, populate and analyze the given source roots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := phpsettings.Default()
			if configPath != "" {
				data, err := os.ReadFile(configPath)
				if err != nil {
					return fmt.Errorf("reading config: %w", err)
				}
				settings, err = phpsettings.Load(data)
				if err != nil {
					return err
				}
			}

			paths, err := discoverFiles(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no .php files under %s", strings.Join(args, ", "))
			}

			files, parseFailures := parseAll(paths, noProgress)
			for _, failure := range parseFailures {
				fmt.Fprintln(os.Stderr, failure)
			}

			logger := obslog.New(obslog.Options{Level: logLevel})
			defer logger.Sync()

			runner := &phpanalyze.Runner{Logger: logger}
			result, err := runner.Analyze(context.Background(), files, settings)
			if err != nil {
				return err
			}

			reporter := newReporter(os.Stdout, paths, !noColor)
			reporter.render(result)
			if reporter.errorCount > 0 {
				os.Exit(2)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML settings file")
	cmd.Flags().StringVar(&logLevel, "log-level", "error", "log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func discoverFiles(roots []string) ([]string, error) {
	var paths []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".php") {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func parseAll(paths []string, noProgress bool) ([]phpanalyze.ParsedFile, []string) {
	var bar *progressbar.ProgressBar
	if showProgress(noProgress) {
		bar = progressbar.Default(int64(len(paths)), "parsing")
	}

	files := make([]phpanalyze.ParsedFile, 0, len(paths))
	var failures []string
	for i, path := range paths {
		code, err := os.ReadFile(path)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		file, parseErrors := phpanalyze.ParseSource(span.SourceId(i+1), path, string(code))
		for _, msg := range parseErrors {
			failures = append(failures, fmt.Sprintf("%s: %s", path, msg))
		}
		files = append(files, file)
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}
	return files, failures
}
