package download

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/handiism/podcast-backup/internal/archive"
	"github.com/handiism/podcast-backup/internal/audio"
	"github.com/handiism/podcast-backup/internal/config"
	"github.com/handiism/podcast-backup/internal/feed"
	"github.com/handiism/podcast-backup/internal/http"
	ioutils "github.com/handiism/podcast-backup/internal/io"
	"github.com/handiism/podcast-backup/internal/logging"
	"github.com/handiism/podcast-backup/internal/model"
	"github.com/handiism/podcast-backup/internal/policy"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrAborted is returned when the user chose to abort the run.
	ErrAborted = errors.Base("backup aborted by user")

	// ErrFeedEmpty is returned when the feed cannot be parsed into entries.
	ErrFeedEmpty = errors.Base("could not parse feed")

	// ErrDeclined is returned when the download estimate was not confirmed.
	ErrDeclined = errors.Base("download not confirmed")
)

// Options are the per-run inputs of a backup.
type Options struct {
	FeedURL string

	// OutputDir defaults to ./<sanitized channel title>.
	OutputDir string

	// Limit keeps only the n most recent episodes. Zero keeps all.
	Limit int

	SkipExisting       bool
	GenerateImportFeed bool

	// Parallel is the number of download workers. Values below 2 run
	// sequentially.
	Parallel int

	// Interactive enables prompts through Prompter.
	Interactive bool
	Prompter    policy.Prompter

	// AssumeYes skips the download confirmation.
	AssumeYes bool
}

// Estimate summarizes what a run is about to download.
type Estimate struct {
	Bytes      int64
	ToDownload int
	Existing   int
}

// Result describes a finished backup.
type Result struct {
	RunID     string
	OutputDir string
	Channel   *model.Channel
	Episodes  []*model.Episode
	Estimate  Estimate
	Stats     model.StatsSnapshot
	Summary   string
}

// Manager coordinates podcast backups.
type Manager struct {
	settings     *config.Settings
	fs           afero.Fs
	httpClient   *http.Client
	writer       *ioutils.AtomicWriter
	downloader   *Downloader
	tagger       *audio.Tagger
	imageService *ioutils.ImageService

	onProgress func(ProgressEvent)
	onTransfer func(TransferEvent)
	now        func() time.Time
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithTransferHandler receives byte progress for sequential downloads.
func WithTransferHandler(fn func(TransferEvent)) ManagerOption {
	return func(m *Manager) { m.onTransfer = fn }
}

// WithClock overrides the time source used for the manifest date.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a new backup Manager.
//
// onProgress receives every user-facing message. It is only ever called
// from the goroutine running Backup.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent), opts ...ManagerOption) *Manager {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	fs := afero.NewOsFs()
	writer := ioutils.NewAtomicWriter(fs)
	client := http.NewClient(settings.Timeout(), settings.UserAgent)

	m := &Manager{
		settings:   settings,
		fs:         fs,
		httpClient: client,
		writer:     writer,
		downloader: NewDownloader(client, writer, RetryConfig{
			Attempts: settings.DownloadMaxRetries,
			Cooldown: settings.DownloadRetryCooldown,
			Exponent: settings.DownloadRetryExponent,
		}),
		tagger:       audio.NewTagger(&audio.TagConfig{CommentMaxLength: settings.CommentMaxLength}),
		imageService: ioutils.NewImageService(),
		onProgress:   onProgress,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// run holds the state of one Backup call.
type run struct {
	opts     Options
	pol      *policy.Policy
	layout   archive.Layout
	channel  *model.Channel
	artwork  *model.Artwork
	total    int
	stats    *model.BackupStats
	episodes []*model.Episode
}

// Backup archives the feed at opts.FeedURL.
//
// Per-episode failures are resolved through a fresh policy.Policy and never
// fail the run on their own. Backup returns ErrAborted or ErrDeclined when
// the user stops the run; in both cases no manifest is written.
func (m *Manager) Backup(ctx context.Context, opts Options) (*Result, error) {
	ctx, runID := logging.WithRun(ctx)
	log := logging.From(ctx)

	r := &run{
		opts:  opts,
		pol:   policy.New(opts.Prompter, opts.Interactive),
		stats: &model.BackupStats{},
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Fetching feed: %s", opts.FeedURL), Level: LevelInfo})
	data, err := m.httpClient.Get(ctx, opts.FeedURL)
	if err != nil {
		return nil, errors.Errorf("fetching feed: %w", err)
	}

	doc, err := feed.Parse(data)
	if err != nil {
		return nil, errors.Errorf("%w: %s", ErrFeedEmpty, err.Error())
	}
	if doc.Malformed != nil {
		log.Warn().Err(doc.Malformed).Int("entries", len(doc.Entries)).Msg("feed is malformed, using complete entries")
		m.progress(ProgressEvent{
			Message: fmt.Sprintf("Feed is malformed (%v); recovered %d entries", doc.Malformed, len(doc.Entries)),
			Level:   LevelWarning,
		})
	}

	channel, episodes := feed.Extract(doc)
	r.channel = channel
	m.progress(ProgressEvent{Message: fmt.Sprintf("Podcast: %s", channel.Title), Level: LevelInfo})
	m.progress(ProgressEvent{Message: fmt.Sprintf("Author: %s", channel.Author), Level: LevelInfo})
	m.progress(ProgressEvent{Message: fmt.Sprintf("Episodes found: %d", len(episodes)), Level: LevelInfo})

	outDir := m.outputDir(opts, channel)
	r.layout = archive.NewLayout(outDir)
	if err := m.fs.MkdirAll(r.layout.Episodes(), 0755); err != nil {
		return nil, errors.Errorf("creating output directory: %w", err)
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Output directory: %s", outDir), Level: LevelInfo})

	lock, err := archive.AcquireLock(r.layout.Lock())
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	if removed, err := archive.SweepTemps(m.fs, outDir); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Could not clean temp files: %v", err), Level: LevelWarning})
	} else if len(removed) > 0 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Removed %d leftover temp files", len(removed)), Level: LevelVerbose})
	}

	if err := m.writer.WriteFile(r.layout.OriginalFeed(), data); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Could not save original feed: %v", err), Level: LevelWarning})
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Saved original feed: %s", r.layout.OriginalFeed()), Level: LevelVerbose})
	}

	if channel.HasArtwork() {
		m.progress(ProgressEvent{Message: "Downloading channel artwork...", Level: LevelInfo})
		dest := r.layout.Cover(ioutils.CoverExtension(channel.ImageURL))
		img, err := m.downloader.DownloadImage(ctx, channel.ImageURL, dest)
		if err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Could not download image: %v", err), Level: LevelWarning})
		}
		r.artwork = m.prepareArtwork(ctx, img, channel.ImageURL)
	}

	plan := model.PlanEpisodes(episodes, model.PlanOptions{
		Limit:          opts.Limit,
		TitleMaxLength: m.settings.TitleMaxLength,
	})
	r.total = plan.Total

	est := m.estimate(ctx, r, plan.Episodes)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Episodes to process: %d", len(plan.Episodes)), Level: LevelInfo})
	m.progress(ProgressEvent{Message: fmt.Sprintf("  Need to download: %d episodes (~%s)", est.ToDownload, humanize.IBytes(uint64(est.Bytes))), Level: LevelInfo})
	m.progress(ProgressEvent{Message: fmt.Sprintf("  Already exist:    %d episodes", est.Existing), Level: LevelInfo})

	if est.ToDownload > 0 && !opts.AssumeYes && r.pol.Interactive() {
		ok, err := r.pol.Confirm(ctx, "Continue with download?")
		if err != nil || !ok {
			m.progress(ProgressEvent{Message: "Aborted by user.", Level: LevelWarning})
			return nil, errors.WithStack(ErrDeclined)
		}
	}

	log.Debug().Int("episodes", len(plan.Episodes)).Int("total", plan.Total).Int("parallel", opts.Parallel).Msg("processing")

	if opts.Parallel > 1 && est.ToDownload > 1 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Using %d parallel downloads...", opts.Parallel), Level: LevelInfo})
		err = m.runParallel(ctx, r, plan.Episodes)
	} else {
		err = m.runSequential(ctx, r, plan.Episodes)
	}
	if err != nil {
		if errors.Is(err, ErrAborted) {
			m.progress(ProgressEvent{Message: "Backup aborted by user.", Level: LevelError})
		}
		return nil, err
	}

	if err := m.finish(r); err != nil {
		return nil, err
	}

	log.Info().Str("output", outDir).Int("episodes", len(r.episodes)).Msg("backup complete")

	return &Result{
		RunID:     runID,
		OutputDir: outDir,
		Channel:   channel,
		Episodes:  r.episodes,
		Estimate:  est,
		Stats:     r.stats.Snapshot(),
		Summary:   r.stats.Summary(),
	}, nil
}

func (m *Manager) outputDir(opts Options, channel *model.Channel) string {
	switch {
	case opts.OutputDir != "":
		return opts.OutputDir
	case m.settings.OutputDir != "":
		return m.settings.OutputDir
	}
	return filepath.Join(".", ioutils.SanitizeFileName(channel.Title, ioutils.DefaultMaxNameLength))
}

// estimate counts episodes to download and sums their declared sizes.
func (m *Manager) estimate(ctx context.Context, r *run, episodes []*model.Episode) Estimate {
	var est Estimate
	for _, ep := range episodes {
		if exists, _ := m.writer.Exists(r.layout.Episode(ep.LocalFilename)); exists {
			est.Existing++
			continue
		}
		est.ToDownload++

		size := ep.EnclosureSize
		if size <= 0 && m.settings.ProbeUnknownSizes && ep.HasEnclosure() {
			if probed, err := m.httpClient.GetFileSize(ctx, ep.EnclosureURL); err == nil {
				size = probed
			}
		}
		if size > 0 {
			est.Bytes += size
		}
	}
	return est
}

// finish writes the manifest, import feed and playlist.
func (m *Manager) finish(r *run) error {
	sort.SliceStable(r.episodes, func(i, j int) bool {
		return r.episodes[i].EpisodeNumber < r.episodes[j].EpisodeNumber
	})

	manifest := archive.NewManifest(r.channel, r.episodes, m.now())
	if err := archive.WriteManifest(m.writer, r.layout.Manifest(), manifest); err != nil {
		return errors.Errorf("saving manifest: %w", err)
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Saved manifest: %s", r.layout.Manifest()), Level: LevelVerbose})

	if r.opts.GenerateImportFeed {
		coverName := ""
		if r.channel.HasArtwork() {
			coverName = archive.CoverBaseName + ioutils.CoverExtension(r.channel.ImageURL)
		}
		err := archive.WriteImportFeed(m.writer, r.layout.ImportFeed(), r.channel, r.episodes, archive.ImportOptions{
			BaseURL:   m.settings.BaseURL,
			CoverName: coverName,
		})
		if err != nil {
			return errors.Errorf("generating import feed: %w", err)
		}
		m.progress(ProgressEvent{Message: fmt.Sprintf("Generated import feed: %s", r.layout.ImportFeed()), Level: LevelVerbose})
	}

	if m.settings.CreatePlaylist {
		format, ok := audio.ParsePlaylistFormat(m.settings.PlaylistFormat)
		if !ok {
			format = audio.FormatM3U
		}
		content := audio.NewPlaylistCreator(format, m.settings.M3UExtended).CreatePlaylist(r.channel, r.episodes)
		if err := m.writer.WriteFile(r.layout.Playlist(format.Extension()), []byte(content)); err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating playlist: %v", err), Level: LevelWarning})
		} else {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Created playlist for %s", r.channel.Title), Level: LevelSuccess})
		}
	}

	m.progress(ProgressEvent{Message: "Backup complete!", Level: LevelSuccess})
	return nil
}

// validate returns a recoverable error when ep has no usable audio URL.
func validate(ep *model.Episode) error {
	if !ep.HasEnclosure() {
		return &MissingEnclosureError{Title: ep.Title}
	}
	if ok, reason := IsLikelyAudioURL(ep.EnclosureURL); !ok {
		return &InvalidURLError{URL: ep.EnclosureURL, Reason: reason}
	}
	return nil
}

// resolve applies a policy decision to a failed episode. It reports whether
// the episode stays in the manifest.
func (m *Manager) resolve(ctx context.Context, r *run, ep *model.Episode, err error, where string) (bool, error) {
	switch d := r.pol.Decide(ctx, err, where); {
	case d.Skips():
		m.progress(ProgressEvent{Message: fmt.Sprintf("  SKIPPED - %v", err), Level: LevelWarning})
		r.stats.AddError()
		return false, nil
	case d.Continues():
		m.progress(ProgressEvent{Message: fmt.Sprintf("  FAILED (%v) - saving metadata only", err), Level: LevelWarning})
		ep.MarkMissing(err.Error())
		r.stats.AddMetadataOnly()
		return true, nil
	default:
		return false, errors.WithStack(ErrAborted)
	}
}

func (m *Manager) runSequential(ctx context.Context, r *run, episodes []*model.Episode) error {
	for idx, ep := range episodes {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}

		m.progress(ProgressEvent{Message: fmt.Sprintf("[%d/%d] %s", idx+1, len(episodes), ep.Title), Level: LevelInfo})

		if err := validate(ep); err != nil {
			keep, aerr := m.resolve(ctx, r, ep, err, fmt.Sprintf("URL validation for: %s", ep.Title))
			if aerr != nil {
				return aerr
			}
			if keep {
				r.episodes = append(r.episodes, ep)
			}
			continue
		}

		path := r.layout.Episode(ep.LocalFilename)
		n, err := m.downloader.Fetch(ctx, ep.EnclosureURL, path, !r.opts.SkipExisting, m.transferFunc(ep.LocalFilename))
		switch {
		case errors.Is(err, ErrAlreadyExists):
			m.progress(ProgressEvent{Message: "  Audio: already exists, skipping download", Level: LevelVerbose})
			r.stats.AddSkippedExisting()
		case err != nil:
			keep, aerr := m.resolve(ctx, r, ep, err, fmt.Sprintf("Downloading: %s", ep.Title))
			if aerr != nil {
				return aerr
			}
			if keep {
				m.progress(ProgressEvent{Message: "  Metadata: saved to manifest (no audio file)", Level: LevelVerbose})
				r.episodes = append(r.episodes, ep)
			}
			continue
		default:
			m.progress(ProgressEvent{Message: fmt.Sprintf("  Audio: downloaded (%s)", humanize.IBytes(uint64(n))), Level: LevelVerbose})
			r.stats.AddDownloaded(n)
			m.sleep(ctx, m.settings.Politeness())
		}

		if err := m.embed(ctx, r, ep, path); err != nil {
			return err
		}
		r.episodes = append(r.episodes, ep)
	}
	return nil
}

type fetchResult struct {
	ep    *model.Episode
	path  string
	bytes int64
	err   error
}

// runParallel downloads missing audio on a worker pool. Everything except
// the transfer itself, prompts included, stays on this goroutine.
func (m *Manager) runParallel(ctx context.Context, r *run, episodes []*model.Episode) error {
	var tasks []*model.Episode
	for _, ep := range episodes {
		if err := validate(ep); err != nil {
			keep, aerr := m.resolve(ctx, r, ep, err, fmt.Sprintf("URL validation for: %s", ep.Title))
			if aerr != nil {
				return aerr
			}
			if keep {
				r.episodes = append(r.episodes, ep)
			}
			continue
		}

		path := r.layout.Episode(ep.LocalFilename)
		if exists, _ := m.writer.Exists(path); exists && r.opts.SkipExisting {
			r.stats.AddSkippedExisting()
			if err := m.embed(ctx, r, ep, path); err != nil {
				return err
			}
			r.episodes = append(r.episodes, ep)
			continue
		}
		tasks = append(tasks, ep)
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Downloading %d episodes with %d workers...", len(tasks), r.opts.Parallel), Level: LevelInfo})

	results := make(chan fetchResult, len(tasks))
	var stop atomic.Bool

	var g errgroup.Group
	g.SetLimit(r.opts.Parallel)
	go func() {
		for _, ep := range tasks {
			ep := ep
			if stop.Load() {
				break
			}
			g.Go(func() error {
				path := r.layout.Episode(ep.LocalFilename)
				n, err := m.downloader.Fetch(ctx, ep.EnclosureURL, path, !r.opts.SkipExisting, nil)
				if err == nil {
					r.stats.AddDownloaded(n)
				}
				results <- fetchResult{ep: ep, path: path, bytes: n, err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		err := ctx.Err()
		if err == nil {
			err = m.handleResult(ctx, r, res, completed, len(tasks))
		}
		if err != nil {
			stop.Store(true)
			for range results {
			}
			return errors.WithStack(err)
		}
		m.sleep(ctx, m.settings.Completion())
	}
	return errors.WithStack(ctx.Err())
}

func (m *Manager) handleResult(ctx context.Context, r *run, res fetchResult, completed, total int) error {
	ep := res.ep
	prefix := fmt.Sprintf("[%d/%d]", completed, total)

	switch {
	case errors.Is(res.err, ErrAlreadyExists):
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s EXISTS: %s", prefix, truncate(ep.Title, 50)), Level: LevelInfo})
		r.stats.AddSkippedExisting()
	case res.err != nil:
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s FAILED: %s - %v", prefix, truncate(ep.Title, 50), res.err), Level: LevelError})
		keep, err := m.resolve(ctx, r, ep, res.err, fmt.Sprintf("Downloading: %s", ep.Title))
		if err != nil {
			return err
		}
		if keep {
			r.episodes = append(r.episodes, ep)
		}
		return nil
	default:
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s OK: %s (%s)", prefix, truncate(ep.Title, 50), humanize.IBytes(uint64(res.bytes))), Level: LevelSuccess})
	}

	if err := m.embed(ctx, r, ep, res.path); err != nil {
		return err
	}
	r.episodes = append(r.episodes, ep)
	return nil
}

// embed tags one downloaded file. Only an abort decision is returned.
func (m *Manager) embed(ctx context.Context, r *run, ep *model.Episode, path string) error {
	method, err := m.tagger.Embed(path, audio.Input{
		Episode: ep,
		Channel: r.channel,
		Total:   r.total,
		Artwork: m.episodeArtwork(ctx, r, ep),
	})
	if err != nil {
		logging.From(ctx).Debug().Err(err).Str("file", ep.LocalFilename).Msg("embedding failed")
		if d := r.pol.Decide(ctx, err, fmt.Sprintf("Embedding metadata for: %s", ep.Title)); d == policy.Abort {
			return errors.WithStack(ErrAborted)
		}
		m.progress(ProgressEvent{Message: fmt.Sprintf("  Metadata: SKIPPED - %v", err), Level: LevelWarning})
		return nil
	}

	ep.EmbedMethod = method
	switch method {
	case model.EmbedSimple:
		m.progress(ProgressEvent{Message: "  Metadata: embedded (basic tags only, no artwork)", Level: LevelWarning})
	case model.EmbedSimpleWithArt:
		m.progress(ProgressEvent{Message: "  Metadata: embedded (basic tags + artwork via fallback)", Level: LevelVerbose})
	default:
		m.progress(ProgressEvent{Message: "  Metadata: embedded", Level: LevelVerbose})
	}
	return nil
}

// episodeArtwork fetches an episode's own image, falling back to the
// channel artwork.
func (m *Manager) episodeArtwork(ctx context.Context, r *run, ep *model.Episode) *model.Artwork {
	if ep.ImageURL == "" || ep.ImageURL == r.channel.ImageURL {
		return r.artwork
	}
	data, err := m.downloader.DownloadImage(ctx, ep.ImageURL, "")
	if err != nil {
		logging.From(ctx).Warn().Err(err).Str("url", ep.ImageURL).Msg("episode artwork unavailable")
		m.progress(ProgressEvent{Message: fmt.Sprintf("  Could not download episode image: %v", err), Level: LevelWarning})
		return r.artwork
	}
	if art := m.prepareArtwork(ctx, data, ep.ImageURL); art != nil {
		return art
	}
	return r.artwork
}

// prepareArtwork applies the cover art settings to downloaded image bytes.
func (m *Manager) prepareArtwork(ctx context.Context, data []byte, url string) *model.Artwork {
	if len(data) == 0 {
		return nil
	}
	art := &model.Artwork{Data: data, MIME: ioutils.ImageMimeType(url)}

	if m.settings.CoverArtInTagsResize {
		size := m.settings.CoverArtInTagsMaxSize
		if resized, err := m.imageService.ResizeImage(ctx, art.Data, size, size); err == nil && !bytes.Equal(resized, art.Data) {
			art = &model.Artwork{Data: resized, MIME: ioutils.MimeJPEG}
		}
	}
	if m.settings.ConvertCoverArtToJPG && art.MIME != ioutils.MimeJPEG {
		if converted, err := m.imageService.ConvertToJPEG(ctx, art.Data); err == nil {
			art = &model.Artwork{Data: converted, MIME: ioutils.MimeJPEG}
		}
	}
	return art
}

func (m *Manager) transferFunc(name string) func(written, total int64) {
	if m.onTransfer == nil {
		return nil
	}
	return func(written, total int64) {
		m.onTransfer(TransferEvent{Name: name, Written: written, Total: total})
	}
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
