// Package logging builds the zerolog logger used for diagnostics.
//
// User-facing progress is reported through download.ProgressEvent; this
// package only covers the structured log stream, which travels in the
// context:
//
//	logger := logging.New(os.Stderr, "debug", true)
//	ctx := logger.WithContext(context.Background())
//	ctx, runID := logging.WithRun(ctx)
//	logging.From(ctx).Debug().Str("feed", url).Msg("fetching")
package logging
