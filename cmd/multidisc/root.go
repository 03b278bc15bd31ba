package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/backmassage/multidisc/internal/check"
	"github.com/backmassage/multidisc/internal/config"
	"github.com/backmassage/multidisc/internal/display"
	"github.com/backmassage/multidisc/internal/logging"
	"github.com/backmassage/multidisc/internal/pipeline"
	"github.com/backmassage/multidisc/internal/runlock"
)

// errReported marks a failure that has already been written to the user.
var errReported = errors.New("reported")

// run executes the CLI with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(stderr, "multidisc: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var flags config.Flags

	cmd := &cobra.Command{
		Use:   "multidisc [flags] <roms_directory>",
		Short: "Group multi-disc ROM images and write .m3u playlists",
		Long: "multidisc moves every disc entry file (.chd, .cue, .ccd, .toc) into\n" +
			"multi/<title>/, moves the data files each .cue sheet references along\n" +
			"with it, and writes <title>.m3u at the root listing the discs in order.",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				fmt.Fprint(stderr, cmd.UsageString())
				return errReported
			}
			return organize(cmd, &flags, args[0], stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	config.BindFlags(cmd.Flags(), &flags)
	cmd.Flags().BoolP("version", "V", false, "Print version and exit")
	return cmd
}

// organize is the body of a run once a root argument is present.
func organize(cmd *cobra.Command, flags *config.Flags, rootArg string, stdout, stderr io.Writer) error {
	// Bootstrap: the logger does not exist yet, so errors go back to run,
	// which prints them to stderr.
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}
	config.ApplyFlags(&cfg, cmd.Flags(), flags)
	cfg.RootDir = config.NormalizeDirArg(rootArg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		return err
	}
	defer log.Close()
	log.SetOutput(stdout, stderr)

	// Logger available: everything below reports through log.
	display.PrintBanner(stdout, version)

	root, err := check.Root(cfg.RootDir)
	if err != nil {
		if errors.Is(err, check.ErrNotDirectory) {
			log.Error("not a directory: %s", cfg.RootDir)
		} else {
			log.Error("%v", err)
		}
		return errReported
	}

	lock, err := runlock.Acquire(root)
	if err != nil {
		log.Error("%v", err)
		return errReported
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn("%v", err)
		}
	}()
	log.Debug(cfg.Verbose, "Lock: %s", lock.Path())
	if cfg.ConfigFile != "" {
		log.Debug(cfg.Verbose, "Config: %s", cfg.ConfigFile)
	}

	// Cancel on SIGINT/SIGTERM so the mover stops before the next rename.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, stopping before the next move…")
			cancel()
		case <-ctx.Done():
		}
	}()

	stats, err := pipeline.Run(ctx, &cfg, log)
	if cfg.ShowSummary && len(stats.Reports) > 0 {
		fmt.Fprintln(stdout, summaryTable(stats))
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error("%v", err)
		}
		return errReported
	}
	return nil
}
