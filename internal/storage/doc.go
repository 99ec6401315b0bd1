// Package storage provides JSON-based persistence for parsed events.
//
// Each run overwrites events.json in the data directory with the full list of day
// groups from the page, absent values written as null. The default storage location
// is ~/.local/share/citycast-digest/.
package storage
