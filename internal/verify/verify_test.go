package verify

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/handiism/podcast-backup/internal/archive"
	"github.com/handiism/podcast-backup/internal/audio"
	ioutils "github.com/handiism/podcast-backup/internal/io"
	"github.com/handiism/podcast-backup/internal/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// mpegFrames returns n silent MPEG-1 Layer III frames.
func mpegFrames(n int) []byte {
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x64})
	return bytes.Repeat(frame, n)
}

// writeArchive creates an archive with n untagged episodes.
func writeArchive(t *testing.T, n int) (string, []*model.Episode) {
	t.Helper()
	dir := t.TempDir()
	layout := archive.NewLayout(dir)
	require.NoError(t, os.MkdirAll(layout.Episodes(), 0755))

	channel := &model.Channel{Title: "Test Show", Author: "Host"}
	var episodes []*model.Episode
	for i := 1; i <= n; i++ {
		ep := &model.Episode{
			Title:         fmt.Sprintf("Episode %d", i),
			EpisodeNumber: i,
			LocalFilename: fmt.Sprintf("2305%02d-Episode-%d.mp3", i, i),
		}
		episodes = append(episodes, ep)
		require.NoError(t, os.WriteFile(layout.Episode(ep.LocalFilename), mpegFrames(10), 0644))
	}

	w := ioutils.NewAtomicWriter(afero.NewOsFs())
	m := archive.NewManifest(channel, episodes, time.Now())
	require.NoError(t, archive.WriteManifest(w, layout.Manifest(), m))
	return dir, episodes
}

func newVerifier() *Verifier {
	return NewVerifier(afero.NewOsFs(), audio.NewTagger(nil))
}

func TestVerify_MissingFiles(t *testing.T) {
	dir, episodes := writeArchive(t, 5)
	layout := archive.NewLayout(dir)
	require.NoError(t, os.Remove(layout.Episode(episodes[1].LocalFilename)))
	require.NoError(t, os.Remove(layout.Episode(episodes[3].LocalFilename)))

	report, err := newVerifier().Verify(context.Background(), dir, Options{})
	require.NoError(t, err)

	assert.Equal(t, "Test Show", report.Title)
	assert.Equal(t, 5, report.Checked)
	assert.Equal(t, 2, report.MissingFiles.Count)
	assert.Equal(t, 0, report.Repaired.Count)
	assert.Equal(t, 3, report.MissingMetadata.Count)
	assert.False(t, report.OK())
}

func TestVerify_RepairResolvesMissingMetadata(t *testing.T) {
	dir, episodes := writeArchive(t, 3)
	layout := archive.NewLayout(dir)
	require.NoError(t, os.WriteFile(layout.Cover(".jpg"), []byte("cover-bytes"), 0644))

	report, err := newVerifier().Verify(context.Background(), dir, Options{Repair: true})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Repaired.Count)
	assert.Equal(t, 0, report.MissingMetadata.Count)
	assert.True(t, report.OK())

	info, err := audio.Inspect(layout.Episode(episodes[0].LocalFilename))
	require.NoError(t, err)
	assert.Equal(t, "Episode 1", info.Title)
	assert.Equal(t, "Host", info.Artist)
	assert.True(t, info.HasCover)

	// A second pass finds nothing to do.
	report, err = newVerifier().Verify(context.Background(), dir, Options{Repair: true})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Repaired.Count)
	assert.Equal(t, 0, report.WithoutArtwork.Count)
	assert.True(t, report.OK())
}

func TestVerify_UnreadableAndMetadataOnly(t *testing.T) {
	dir, episodes := writeArchive(t, 2)
	layout := archive.NewLayout(dir)
	require.NoError(t, os.WriteFile(layout.Episode(episodes[0].LocalFilename), []byte("<html>not audio</html>"), 0644))

	// Metadata-only episodes are not checked.
	episodes = append(episodes, &model.Episode{Title: "Gone", EpisodeNumber: 3, LocalFilename: "230601-Gone.mp3", AudioMissing: true})
	m := archive.NewManifest(&model.Channel{Title: "Test Show"}, episodes, time.Now())
	require.NoError(t, archive.WriteManifest(ioutils.NewAtomicWriter(afero.NewOsFs()), layout.Manifest(), m))

	report, err := newVerifier().Verify(context.Background(), dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Unreadable.Count)
	assert.NotEmpty(t, report.Unreadable.Examples[0].Detail)
	assert.Equal(t, 0, report.MissingFiles.Count)
}

func TestVerify_ExamplesAreCapped(t *testing.T) {
	dir, _ := writeArchive(t, 12)

	report, err := newVerifier().Verify(context.Background(), dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, 12, report.MissingMetadata.Count)
	assert.Len(t, report.MissingMetadata.Examples, MaxExamples)
	assert.Equal(t, 2, report.MissingMetadata.More())
}

func TestVerify_NoManifest(t *testing.T) {
	_, err := newVerifier().Verify(context.Background(), t.TempDir(), Options{})
	assert.True(t, errors.Is(err, archive.ErrNoManifest))
}
