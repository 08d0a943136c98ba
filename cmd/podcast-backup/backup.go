package main

import (
	"fmt"
	"io"

	"github.com/handiism/podcast-backup/internal/config"
	"github.com/handiism/podcast-backup/internal/download"
	"github.com/handiism/podcast-backup/internal/policy"
	"github.com/handiism/podcast-backup/internal/tui"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type backupFlags struct {
	output         string
	limit          int
	noSkip         bool
	noImportFeed   bool
	interactive    bool
	nonInteractive bool
	parallel       int
	yes            bool
	baseURL        string
	playlist       bool
	verbose        bool
}

func newBackupCommand(ctx *commandContext) *cobra.Command {
	var flags backupFlags

	cmd := &cobra.Command{
		Use:   "podcast-backup FEED_URL",
		Short: "Back up a podcast RSS feed with tagged audio files",
		Long: `Downloads every episode of a podcast feed into a self-describing archive:
tagged MP3 files, manifest.json, a copy of the original feed and an import
feed that podcast apps can subscribe to.

Run "podcast-backup verify DIR" to check an existing archive.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runBackup(cmd, ctx, &flags, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "Output directory (default: ./<podcast title>)")
	f.IntVarP(&flags.limit, "limit", "n", 0, "Only back up the N most recent episodes")
	f.BoolVar(&flags.noSkip, "no-skip", false, "Re-download audio files that already exist")
	f.BoolVar(&flags.noImportFeed, "no-import-feed", false, "Do not generate the import feed")
	f.BoolVarP(&flags.interactive, "interactive", "i", false, "Prompt on errors even when stdin is not a terminal")
	f.BoolVar(&flags.nonInteractive, "non-interactive", false, "Never prompt; skip failing episodes")
	f.IntVarP(&flags.parallel, "parallel", "p", 0, "Number of parallel downloads (default from config)")
	f.BoolVarP(&flags.yes, "yes", "y", false, "Download without asking for confirmation")
	f.StringVar(&flags.baseURL, "base-url", "", "Public URL of the episodes directory, used in the import feed")
	f.BoolVar(&flags.playlist, "playlist", false, "Write a playlist next to the episodes")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Show verbose output")
	cmd.MarkFlagsMutuallyExclusive("interactive", "non-interactive")

	return cmd
}

// apply overrides settings with explicitly set flags.
func (f *backupFlags) apply(cmd *cobra.Command, settings *config.Settings) {
	if f.output != "" {
		settings.OutputDir = f.output
	}
	if f.noSkip {
		settings.SkipExisting = false
	}
	if f.noImportFeed {
		settings.GenerateImportFeed = false
	}
	if cmd.Flags().Changed("parallel") && f.parallel > 0 {
		settings.Parallel = f.parallel
	}
	if cmd.Flags().Changed("base-url") {
		settings.BaseURL = f.baseURL
	}
	if f.playlist {
		settings.CreatePlaylist = true
	}
}

func runBackup(cmd *cobra.Command, ctx *commandContext, flags *backupFlags, feedURL string) error {
	settings, err := ctx.loadSettings()
	if err != nil {
		return err
	}
	flags.apply(cmd, settings)

	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	interactive := isTerminal(in)
	switch {
	case flags.interactive:
		interactive = true
	case flags.nonInteractive:
		interactive = false
	}

	var prompter policy.Prompter
	if interactive {
		if isTerminal(in) {
			prompter = tui.NewChoicePrompter(in, out)
		} else {
			prompter = policy.NewLinePrompter(in, out)
		}
	}

	logger := ctx.logger(cmd, settings)
	runCtx := logger.WithContext(cmd.Context())

	bars := newTransferBars(cmd.ErrOrStderr())
	manager := download.NewManager(settings, progressPrinter(out, flags.verbose),
		download.WithTransferHandler(bars.update),
	)

	fmt.Fprintln(out, "Podcast Backup")
	fmt.Fprintln(out, separator)

	result, err := manager.Backup(runCtx, download.Options{
		FeedURL:            feedURL,
		OutputDir:          settings.OutputDir,
		Limit:              flags.limit,
		SkipExisting:       settings.SkipExisting,
		GenerateImportFeed: settings.GenerateImportFeed,
		Parallel:           settings.Parallel,
		Interactive:        interactive,
		Prompter:           prompter,
		AssumeYes:          flags.yes,
	})
	bars.finish()
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, separator)
	fmt.Fprintln(out, renderStats(result))
	fmt.Fprintf(out, "Backup saved to: %s\n", result.OutputDir)
	return nil
}

// transferBars draws one byte progress bar per sequential download. Bars
// are only shown on a terminal.
type transferBars struct {
	w       io.Writer
	enabled bool
	name    string
	bar     *progressbar.ProgressBar
}

func newTransferBars(w io.Writer) *transferBars {
	return &transferBars{w: w, enabled: isTerminal(w)}
}

func (t *transferBars) update(event download.TransferEvent) {
	if !t.enabled {
		return
	}
	if event.Name != t.name || t.bar == nil {
		t.finish()
		t.name = event.Name
		t.bar = progressbar.NewOptions64(event.Total,
			progressbar.OptionSetWriter(t.w),
			progressbar.OptionSetDescription("  "+truncate(event.Name, 40)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = t.bar.Set64(event.Written)
}

func (t *transferBars) finish() {
	if t.bar != nil {
		_ = t.bar.Finish()
		t.bar = nil
	}
}
