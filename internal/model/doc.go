// Package model defines the core data structures used throughout
// podcast-backup.
//
// # Channel and Episode
//
// Channel and Episode are the typed records produced by the feed extractor.
// Their JSON form is the manifest schema:
//
//	{"title": "...", "guid": "...", "local_filename": "230515-Pilot.mp3", ...}
//
// # Planning
//
// PlanEpisodes sorts episodes oldest first and assigns numbers, date
// prefixes and local filenames:
//
//	plan := model.PlanEpisodes(episodes, model.PlanOptions{Limit: 10})
//	for _, ep := range plan.Episodes {
//	    fmt.Println(ep.EpisodeNumber, ep.LocalFilename)
//	}
//
// # Statistics
//
// BackupStats is safe for concurrent use by download workers.
package model
