// Package cli implements the command-line interface for citycast-digest.
//
// The root command runs a full pass: fetch the events page, extract day groups, save
// them and text the today/tomorrow digest. The parse subcommand only extracts and
// prints (text, JSON or iCalendar), and the digest subcommand rebuilds the digest from
// the last saved events.
package cli
