// Package verify re-checks an archive written by a backup run and can
// repair missing tags.
//
// Each episode listed in manifest.json with audio is checked for presence,
// readability as MPEG audio and title/artist frames. With repair enabled,
// files missing tags are re-tagged with the full strategy using the
// archived cover.
package verify
