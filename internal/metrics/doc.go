// Package metrics records build observations for the site generator.
//
// Components receive a Recorder and default to NoopRecorder, so metrics need
// no nil checks at call sites. A build configured with a textfile path swaps in
// a PrometheusRecorder and writes its registry with WriteTextfile once the build
// finishes, in the format read by node_exporter's textfile collector.
package metrics
