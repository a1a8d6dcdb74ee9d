// cmd/szz/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"szz/client"
	"szz/internal/api"
	"szz/internal/bootstrap"
	"szz/internal/config"
	"szz/internal/errors"
	"szz/internal/linker"
	"szz/internal/logging"
	"szz/internal/revision"
	"szz/internal/watch"
	"szz/shared/utils"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logger, _ = zap.NewDevelopment()

var (
	configPath string
	repoPath   string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "szz",
	Short: "szz links bug-fixing commits to the commits that introduced the bug",
	Long: `szz diffs each fix commit against its parent, blames the parent on the
lines the fix touched, and reports the commits those lines came from.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogger,
}

func setupLogger(cmd *cobra.Command, args []string) error {
	var err error
	if logLevel != "" {
		var l *logging.Logger
		if l, err = logging.NewLogger(logLevel); err == nil {
			logger = l.Logger
		}
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	logger = logger.With(zap.String("run_id", uuid.New().String()))
	return nil
}

func init() {
	var linkCmd = &cobra.Command{
		Use:   "link [commits...]",
		Short: "Link fix commits to the commits that introduced the bug",
		Long: `Link each fix commit to its origin commits. Commits are taken from the
arguments and from --fixes (one per line, # starts a comment).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixesFile, _ := cmd.Flags().GetString("fixes")
			server, _ := cmd.Flags().GetString("server")
			asJSON, _ := cmd.Flags().GetBool("json")

			fixes := append([]string(nil), args...)
			if fixesFile != "" {
				listed, err := watch.ReadFixList(fixesFile)
				if err != nil {
					return fmt.Errorf("reading fix list: %w", err)
				}
				fixes = append(fixes, listed...)
			}
			if len(fixes) == 0 {
				return fmt.Errorf("specify fix commits as arguments or with --fixes")
			}

			if server != "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				policy, err := linker.ParseFailurePolicy(cfg.Linker.OnFailure)
				if err != nil {
					return err
				}
				return linkViaServer(cmd.Context(), cmd.OutOrStdout(), client.New(server), fixes, policy, asJSON)
			}

			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			// Under the collect policy links holds the successes and err
			// names the commits that failed.
			links, err := env.Linker.Link(cmd.Context(), fixes)
			if links == nil {
				return err
			}
			if perr := printLinks(cmd.OutOrStdout(), links, nil, asJSON); perr != nil {
				return perr
			}
			return err
		},
	}

	var latestCmd = &cobra.Command{
		Use:   "latest",
		Short: "Print the latest revision of the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			rev, err := env.Linker.LatestRevision(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rev)
			return nil
		},
	}

	var logCmd = &cobra.Command{
		Use:   "log [revision]",
		Short: "Show the log with file stats, for one revision or the whole history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			rev := ""
			if len(args) == 1 {
				rev = args[0]
			}
			out, err := env.Linker.Log(cmd.Context(), rev)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	var filesCmd = &cobra.Command{
		Use:   "files <commit>",
		Short: "List the files a commit changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			files, err := env.Linker.ChangedFiles(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}

	var rangesCmd = &cobra.Command{
		Use:   "ranges <commit> [files...]",
		Short: "Show the parent-side line ranges a commit changed",
		Long:  `Show the line ranges, numbered in the parent revision, that a commit removed or modified. Without files every changed file is shown.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			commit, files := args[0], args[1:]
			if len(files) == 0 {
				if files, err = env.Linker.ChangedFiles(cmd.Context(), commit); err != nil {
					return err
				}
			}
			ranges, err := env.Linker.RangesByFile(cmd.Context(), commit, files)
			if err != nil {
				return err
			}
			printRanges(cmd.OutOrStdout(), ranges)
			return nil
		},
	}

	var blameCmd = &cobra.Command{
		Use:   "blame <commit>",
		Short: "Blame the parent of a commit on the lines it changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			commit := args[0]
			files, err := env.Linker.ChangedFiles(cmd.Context(), commit)
			if err != nil {
				return err
			}
			ranges, err := env.Linker.RangesByFile(cmd.Context(), commit, files)
			if err != nil {
				return err
			}
			origins, err := env.Linker.OriginCommits(cmd.Context(), commit, ranges)
			if err != nil {
				return err
			}
			for _, o := range origins.Sorted() {
				fmt.Fprintln(cmd.OutOrStdout(), o)
			}
			return nil
		},
	}

	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the link API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			env, err := bootstrap.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer env.Close()

			l := logging.Wrap(logger)
			handler := api.NewRouter(api.NewLinkHandler(env.Linker, l), l)
			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			return api.Serve(cmd.Context(), addr, handler, l)
		},
	}

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Re-link a fix list whenever the file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixesFile, _ := cmd.Flags().GetString("fixes")
			asJSON, _ := cmd.Flags().GetBool("json")
			if fixesFile == "" {
				return fmt.Errorf("--fixes is required")
			}

			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			out := cmd.OutOrStdout()
			w, err := watch.New(fixesFile, func(ctx context.Context, fixes []string) error {
				report, err := env.Linker.LinkReport(ctx, fixes)
				if err != nil {
					return err
				}
				return printLinks(out, report.Links, failureMessages(report), asJSON)
			}, logger)
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (JSON or YAML); default config/config.$SZZ_ENV.json")
	rootCmd.PersistentFlags().StringVarP(&repoPath, "repo", "C", "", "repository to inspect (overrides repository.path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); development logging when unset")

	for _, c := range []*cobra.Command{linkCmd, watchCmd} {
		c.Flags().StringP("fixes", "f", "", "file listing fix commits, one per line")
		c.Flags().Bool("json", false, "print links as JSON")
	}
	for _, c := range []*cobra.Command{linkCmd, watchCmd} {
		c.Flags().IntP("workers", "w", 0, "fix commits processed concurrently (overrides linker.workers)")
	}
	// watch always reports failures per commit, so only link takes a policy.
	linkCmd.Flags().String("on-failure", "", "abort or collect (overrides linker.on_failure)")
	for _, c := range []*cobra.Command{linkCmd, watchCmd, blameCmd, latestCmd, logCmd, filesCmd, rangesCmd} {
		c.Flags().Bool("no-cache", false, "disable the query cache")
	}
	linkCmd.Flags().String("server", "", "link through a running `szz serve` at this URL")

	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(rangesCmd)
	rootCmd.AddCommand(blameCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}

// loadConfig reads the configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if repoPath != "" {
		cfg.Repository.Path = repoPath
	}
	if f := cmd.Flags().Lookup("workers"); f != nil && f.Changed {
		cfg.Linker.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if f := cmd.Flags().Lookup("on-failure"); f != nil && f.Changed {
		cfg.Linker.OnFailure, _ = cmd.Flags().GetString("on-failure")
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openEnv(cmd *cobra.Command) (*bootstrap.Env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	env, err := bootstrap.Open(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("opening repository %s: %w", cfg.Repository.Path, err)
	}
	return env, nil
}

// linkViaServer links through a running server and applies policy to the
// failures it reports: abort fails on the first failed commit without
// printing anything, collect prints the successes and returns a
// *linker.BatchError.
func linkViaServer(ctx context.Context, w io.Writer, c *client.Client, fixes []string, policy linker.FailurePolicy, asJSON bool) error {
	links, failures, err := c.Link(ctx, fixes)
	if err != nil {
		return fmt.Errorf("linking via server: %w", err)
	}

	report := &linker.Report{Links: links, Failures: make(map[revision.CommitRef]error, len(failures))}
	for fix, msg := range failures {
		report.Failures[revision.CommitRef(fix)] = errors.New(msg)
	}

	if len(failures) > 0 && policy != linker.Collect {
		first := utils.SortedKeys(failures)[0]
		return &linker.CommitError{Commit: first, Err: report.Failures[revision.CommitRef(first)]}
	}
	if err := printLinks(w, links, nil, asJSON); err != nil {
		return err
	}
	return report.Err()
}

func failureMessages(report *linker.Report) map[string]string {
	if len(report.Failures) == 0 {
		return nil
	}
	out := make(map[string]string, len(report.Failures))
	for fix, err := range report.Failures {
		out[fix.String()] = err.Error()
	}
	return out
}

func printLinks(w io.Writer, links linker.BugLinkMap, failures map[string]string, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Links    linker.BugLinkMap `json:"links"`
			Failures map[string]string `json:"failures,omitempty"`
		}{links, failures})
	}

	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fixes := utils.SortedKeys(links)
	for _, fix := range fixes {
		origins := links[fix].Strings()
		if len(origins) == 0 {
			fmt.Fprintf(w, "%s  (no origin commits)\n", yellow(fix))
			continue
		}
		fmt.Fprintf(w, "%s  <-  %s\n", yellow(fix), green(strings.Join(origins, " ")))
	}
	for _, fix := range utils.SortedKeys(failures) {
		fmt.Fprintf(w, "%s  %s\n", red(fix), failures[fix])
	}
	return nil
}

func printRanges(w io.Writer, ranges linker.FileRangeMap) {
	header := color.New(color.FgCyan)
	for _, file := range utils.SortedKeys(ranges) {
		header.Fprintln(w, file)
		for _, r := range ranges[file] {
			fmt.Fprintf(w, "  -%s  (lines %d-%d)\n", r, r.Start, r.End())
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	logger.Sync()
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 when only some fix commits failed, 1 otherwise.
func exitCode(err error) int {
	var batch *linker.BatchError
	if errors.As(err, &batch) {
		return 2
	}
	return 1
}
