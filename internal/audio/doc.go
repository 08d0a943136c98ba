// Package audio provides audio file manipulation services including
// ID3 tag writing, tag inspection and playlist generation.
//
// # ID3 Tagging
//
// Use the Tagger to write ID3 tags to downloaded episodes:
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig())
//	method, err := tagger.Embed(path, audio.Input{Episode: ep, Channel: ch, Total: n, Artwork: art})
//
// The full strategy writes:
//   - Title, Artist, Album, Genre, Track "n/total"
//   - Year (TYER) and date (TDRC)
//   - Description comment with HTML removed
//   - TXXX frames for GUID, DURATION and SUBTITLE
//   - Cover Art (embedded in MP3)
//
// If it fails, the simple strategy writes the basic frames and then tries
// to add cover art in a second pass.
//
// # Inspection
//
//	info, err := audio.Inspect(path)
//	if err == nil && !info.HasBasicTags() { /* needs repair */ }
//
// # Playlist Generation
//
//	creator := audio.NewPlaylistCreator(audio.FormatM3U, true)
//	content := creator.CreatePlaylist(channel, episodes)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
package audio
