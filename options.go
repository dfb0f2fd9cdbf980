package structext

import "github.com/structext/structext/model"

// ParseOptions holds configuration for a parse.
type ParseOptions struct {
	// Embedded object handling
	router          Router
	maxEmbeddedSize int // 0 means no cap

	// Event handling; nil means events are collected internally
	sink model.EventSink
}

// defaultOptions returns the default parse options.
func defaultOptions() ParseOptions {
	return ParseOptions{
		router:          nil, // embedded payloads are dropped
		maxEmbeddedSize: 0,
		sink:            nil,
	}
}

// clone creates a copy of ParseOptions.
func (o ParseOptions) clone() ParseOptions {
	return ParseOptions{
		router:          o.router,
		maxEmbeddedSize: o.maxEmbeddedSize,
		sink:            o.sink,
	}
}
