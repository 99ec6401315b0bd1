package scraper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/citycast-digest/internal/event"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SegmentSeparator joins the text segments of a list item in FlattenText.
// It is a control character and never appears in page text.
const SegmentSeparator = "\x1f"

// ErrMalformedItem is returned by ParseItem when an item's text does not split
// into (emoji, title, details) or (title, details).
var ErrMalformedItem = errors.New("malformed event item")

// Details holds the fields recovered from the pipe-delimited part of an item
type Details struct {
	Time     event.Optional[string]
	Price    event.Optional[string]
	Location event.Optional[string]
}

type detailField int

const (
	fieldTime detailField = iota
	fieldPrice
	fieldLocation
	fieldCount
)

// detailLabels maps a lowercase "label:" prefix to the field it names
var detailLabels = map[string]detailField{
	"time":      fieldTime,
	"when":      fieldTime,
	"price":     fieldPrice,
	"cost":      fieldPrice,
	"admission": fieldPrice,
	"tickets":   fieldPrice,
	"location":  fieldLocation,
	"where":     fieldLocation,
	"venue":     fieldLocation,
}

// ParseItem converts one <li> into an Event.
//
// A list item looks like
//
//	<li>🎵 <a href="...">Jazz Night</a> | 7:00 PM | Free | Blues Alley</li>
//
// Its text nodes are read as separate segments: three segments are emoji, title
// and details, two are title and details. Any other count returns a placeholder
// Event marked Malformed together with ErrMalformedItem.
func ParseItem(li *goquery.Selection) (event.Event, error) {
	evt := event.NewEvent()

	if href, ok := li.Find("a").First().Attr("href"); ok {
		evt.Link = event.Some(strings.TrimSpace(href))
	}

	segments := textSegments(li)

	var details string
	switch len(segments) {
	case 3:
		evt.Emoji = event.Some(segments[0])
		evt.Title = segments[1]
		details = segments[2]
	case 2:
		evt.Title = segments[0]
		details = segments[1]
	default:
		evt.Malformed = true
		return evt, fmt.Errorf("%w: %d text segments", ErrMalformedItem, len(segments))
	}

	d := ParseDetails(details)
	evt.Time = d.Time.OrElse(event.UnknownTime)
	if price, ok := d.Price.Get(); ok {
		evt.Price = event.NormalizePrice(price)
	}
	evt.Location = d.Location.OrElse(event.UnknownLocation)

	return evt, nil
}

// ParseDetails reads the "| time | price | location" part of an item.
//
// Text before the first pipe is dropped. A piece starting with a known label such
// as "Price:" or "Where:" fills that field; the remaining pieces fill the fields
// still unset in the order time, price, location. Pieces past the third are ignored.
func ParseDetails(details string) Details {
	pieces := strings.Split(details, "|")[1:]

	var (
		values    [fieldCount]event.Optional[string]
		unlabeled []string
	)

	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if field, value, ok := labeledPiece(piece); ok && !values[field].IsPresent() {
			values[field] = event.Some(value)
			continue
		}
		unlabeled = append(unlabeled, piece)
	}

	next := 0
	for field := detailField(0); field < fieldCount && next < len(unlabeled); field++ {
		if values[field].IsPresent() {
			continue
		}
		values[field] = event.Some(unlabeled[next])
		next++
	}

	return Details{
		Time:     values[fieldTime],
		Price:    values[fieldPrice],
		Location: values[fieldLocation],
	}
}

// labeledPiece splits "Label: value" when Label is a known field name
func labeledPiece(piece string) (detailField, string, bool) {
	name, value, found := strings.Cut(piece, ":")
	if !found {
		return 0, "", false
	}
	field, ok := detailLabels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, "", false
	}
	return field, strings.TrimSpace(value), true
}

// FlattenText returns the item's text segments joined by SegmentSeparator
func FlattenText(sel *goquery.Selection) string {
	return strings.Join(textSegments(sel), SegmentSeparator)
}

// textSegments collects every non-blank descendant text node, trimmed, in
// document order. Script and style contents are not page text and are skipped.
func textSegments(sel *goquery.Selection) []string {
	segments := make([]string, 0, 3)
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collectText(c, &segments)
		}
	}
	return segments
}

func collectText(n *html.Node, segments *[]string) {
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			*segments = append(*segments, text)
		}
		return
	case html.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
	case html.CommentNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, segments)
	}
}
