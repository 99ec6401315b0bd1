// Package calendar exports parsed day groups as an iCalendar (.ics) feed.
//
// Events whose day could not be dated are left out. An event whose time text starts
// with a recognisable clock time becomes a two-hour entry; anything else becomes an
// all-day entry. UIDs are derived from the event's date, title and link, so
// re-exporting the same page produces the same UIDs.
package calendar
