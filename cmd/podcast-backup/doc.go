// Command podcast-backup archives a podcast RSS feed and verifies existing
// archives.
//
//	podcast-backup https://example.com/feed.xml -o ./my-show --parallel 4
//	podcast-backup verify ./my-show --repair
//
// Settings are read from podcast-backup.yaml (or --config), then .env and
// PODCAST_BACKUP_* variables, then flags. Errors on individual episodes are
// prompted for when stdin is a terminal and skipped otherwise; use
// --interactive or --non-interactive to override. The exit status is 1 when
// the backup fails or verification finds issues.
package main
