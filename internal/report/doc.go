// Package report holds the report metadata model and the loader that reads
// it from a directory of JSON records.
//
// A Report owns an ordered list of Versions. Each Version carries its own
// publication date, fetch time, topic assignments and available formats.
// Everything is a read-only snapshot materialized once per build.
//
// Fields that the site does not use are kept verbatim and written back out
// by MarshalJSON, so the per-report metadata file carries the full record.
package report
