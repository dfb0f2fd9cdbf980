package anpa

import "bytes"

// Publisher identifies the news agency variant of a wire message.
type Publisher int

const (
	// PublisherUnknown means no agency marker was found; the driver then
	// falls back to plain ANPA-1312 handling and skips every
	// publisher-specific heuristic, including date layouts.
	PublisherUnknown Publisher = iota
	AssociatedPress
	Reuters
	NewYorkTimes
	Bloomberg
)

// String returns the agency name.
func (p Publisher) String() string {
	switch p {
	case AssociatedPress:
		return "Associated Press"
	case Reuters:
		return "Reuters"
	case NewYorkTimes:
		return "New York Times"
	case Bloomberg:
		return "Bloomberg"
	default:
		return ""
	}
}

// publisherMarkers is checked in order; a later match overrides an
// earlier one. The order runs from the most common marker to the least.
var publisherMarkers = []struct {
	marker []byte
	pub    Publisher
}{
	{[]byte("ap-wf"), AssociatedPress},
	{[]byte("reuters"), Reuters},
	{[]byte("new york times"), NewYorkTimes},
	{[]byte("bloomberg news"), Bloomberg},
}

// DetectPublisher guesses the agency from content substrings. This is an
// explicit best-effort classifier: wire messages carry no structural
// field naming their source, so the agency tags that usually appear in
// the message text are all there is. When nothing matches the result is
// PublisherUnknown, never a guess.
func DetectPublisher(data []byte) Publisher {
	lower := bytes.ToLower(data)
	pub := PublisherUnknown
	for _, m := range publisherMarkers {
		if bytes.Contains(lower, m.marker) {
			pub = m.pub
		}
	}
	return pub
}
