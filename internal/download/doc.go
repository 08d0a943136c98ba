// Package download provides the backup orchestration logic for archiving
// a podcast feed.
//
// # Manager
//
// The Manager coordinates one backup run:
//
//  1. Fetch and parse the feed
//  2. Save the original feed and the channel cover
//  3. Order episodes and assign filenames and numbers
//  4. Estimate the download and ask for confirmation (interactive runs)
//  5. Download missing audio, sequentially or on a worker pool
//  6. Tag every archived file with ID3 metadata
//  7. Write manifest.json, the import feed and an optional playlist
//
// # Basic Usage
//
//	manager := download.NewManager(settings, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	result, err := manager.Backup(ctx, download.Options{
//	    FeedURL:            "https://example.com/feed.xml",
//	    SkipExisting:       true,
//	    GenerateImportFeed: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary)
//
// # Errors
//
// Per-episode failures (missing or suspicious enclosure URL, failed
// download, failed tagging) go through a policy.Policy created for the run.
// Interactive runs ask once per error class for bulk answers; other runs
// skip silently. Choosing to abort returns ErrAborted and leaves the
// previous manifest in place.
//
// # Concurrency
//
// With Options.Parallel above one, audio downloads run on an errgroup with
// that many workers. Results come back over a channel in completion order
// and are tagged, reported and, if needed, prompted for on the goroutine
// that called Backup. ProgressEvent callbacks are never invoked from a
// worker.
//
// # Retry Logic
//
// Failed transfers are retried with exponential backoff, configurable via
// settings.DownloadMaxRetries, DownloadRetryCooldown and DownloadRetryExponent.
package download
