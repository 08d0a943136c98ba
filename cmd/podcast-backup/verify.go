package main

import (
	"fmt"

	"github.com/handiism/podcast-backup/internal/archive"
	"github.com/handiism/podcast-backup/internal/audio"
	"github.com/handiism/podcast-backup/internal/model"
	"github.com/handiism/podcast-backup/internal/verify"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// errVerifyFailed makes the process exit non-zero after the report is shown.
var errVerifyFailed = errors.Base("verification found issues")

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var repair, verbose bool

	cmd := &cobra.Command{
		Use:           "verify DIR",
		Short:         "Check an archive against its manifest",
		Long:          "Checks that every archived episode exists, is readable audio and carries title and artist tags.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.loadSettings()
			if err != nil {
				return err
			}
			logger := ctx.logger(cmd, settings)
			runCtx := logger.WithContext(cmd.Context())
			out := cmd.OutOrStdout()

			tagger := audio.NewTagger(&audio.TagConfig{CommentMaxLength: settings.CommentMaxLength})
			verifier := verify.NewVerifier(afero.NewOsFs(), tagger)

			mode := "Verifying"
			if repair {
				mode = "Verifying and repairing"
			}
			fmt.Fprintf(out, "%s %s\n", mode, args[0])
			fmt.Fprintln(out, separator)

			report, err := verifier.Verify(runCtx, args[0], verify.Options{
				Repair: repair,
				OnEpisode: func(i, total int, ep *model.Episode) {
					if verbose {
						fmt.Fprintf(out, "  [%d/%d] %s\n", i, total, ep.LocalFilename)
					}
				},
			})
			if errors.Is(err, archive.ErrNoManifest) {
				return errors.Errorf("%s is not a podcast backup: %w", args[0], err)
			}
			if err != nil {
				return err
			}

			fmt.Fprint(out, renderReport(report))
			if !report.OK() {
				return errors.WithStack(errVerifyFailed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "Re-embed tags into files missing title or artist")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every file as it is checked")

	return cmd
}
