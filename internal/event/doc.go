// Package event provides the records produced by scraping the City Cast DC events page.
//
// A scrape yields an ordered list of DayGroup values, one per day section on the page,
// each holding the Event records listed under that day. Fields that may be missing in
// the source markup use Optional so that "absent" and "present but empty" stay distinct
// all the way to the JSON written on disk.
package event
