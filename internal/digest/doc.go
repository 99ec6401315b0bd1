// Package digest turns parsed day groups into the text message sent each day.
//
// Only the groups dated today or tomorrow are kept. Every event is squeezed onto a
// single short line, and the result is cut into fixed-size chunks that each fit
// in one SMS.
package digest
