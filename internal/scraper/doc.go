// Package scraper provides HTTP fetching and HTML parsing for the City Cast DC events page.
//
// The page lists events under day headings ("FRIDAY, Feb. 7"). Each day section holds
// a bulleted list whose items run an emoji, a linked title and a pipe-delimited detail
// string together with no delimiter between them. The parser recovers those pieces,
// normalizes the heading into an ISO date, and degrades any section or item it cannot
// fully read to defaults instead of failing the whole page.
package scraper
