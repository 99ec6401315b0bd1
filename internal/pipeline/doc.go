// Package pipeline runs one pass of the digest job.
//
// A run obtains the events page markup (a local file or an HTTP fetch), extracts the
// day groups, saves them, builds the today/tomorrow digest and hands it to a notifier.
// Every log line of a run carries the same run_id.
package pipeline
