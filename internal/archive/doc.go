// Package archive describes the on-disk backup layout and reads and writes
// its top-level files.
//
// An archive directory holds the original feed, manifest.json, an import
// feed pointing at the local audio, the channel cover and an episodes/
// folder. The manifest is rewritten in full on every successful run and is
// the input for verification.
//
// # Writing
//
//	layout := archive.NewLayout("/backups/my-show")
//	m := archive.NewManifest(channel, episodes, time.Now())
//	err := archive.WriteManifest(writer, layout.Manifest(), m)
//	err = archive.WriteImportFeed(writer, layout.ImportFeed(), channel, episodes,
//	    archive.ImportOptions{CoverName: "cover.jpg"})
//
// # Run hygiene
//
// AcquireLock keeps two runs off the same directory and SweepTemps removes
// half-written files left by an interrupted one.
package archive
