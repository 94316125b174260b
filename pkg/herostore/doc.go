/*
Package herostore persists the episode release hero image.

The image is stored as a data URI in a small SQLite key/value table under
the key "episodeReleaseHeroImage". The package only uses database/sql; the
caller chooses the driver (modernc.org/sqlite or mattn/go-sqlite3) and calls
SetupSchema once before opening a Store.
*/
package herostore
