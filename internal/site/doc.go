// Package site builds the static report archive.
//
// A build is a full regeneration: load and sort the report metadata, index it
// by topic, render the top-level and per-topic listing pages, mirror static
// assets, fan out one detail page plus one JSON metadata file per report to a
// bounded worker pool, and link the raw document files into the output.
//
// Every failure is fatal. Per-report failures are collected from all workers
// and reported together once the pool drains; the output directory is left as
// far as it got.
package site
