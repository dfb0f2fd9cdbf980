package structext

import "github.com/structext/structext/model"

// Router receives the payload of every embedded object a parse
// discovers. The core never parses embedded documents recursively; a
// router is the hook for callers who want to, or who want to save the
// payloads somewhere.
//
// A non-nil error from Route aborts the parse, the same way a sink
// error does.
type Router interface {
	Route(obj model.EmbeddedObject) error
}

// RouterFunc adapts a function to the Router interface.
type RouterFunc func(model.EmbeddedObject) error

// Route calls f(obj).
func (f RouterFunc) Route(obj model.EmbeddedObject) error { return f(obj) }

// routingSink sits between a driver and the caller's sink. Embedded
// object payloads go to the router; the forwarded event keeps the
// object's identity and hints but not its bytes, so event streams stay
// small regardless of what documents embed. All other events pass
// through untouched.
type routingSink struct {
	inner   model.EventSink
	router  Router
	maxSize int
}

func (s *routingSink) Accept(e model.Event) error {
	if e.Kind != model.EmbeddedObjectRef || e.Object == nil {
		return s.inner.Accept(e)
	}
	obj := *e.Object
	if s.router != nil && (s.maxSize == 0 || obj.Length <= s.maxSize) {
		if err := s.router.Route(obj); err != nil {
			return err
		}
	}
	stripped := obj
	stripped.Data = nil
	return s.inner.Accept(model.Event{Kind: model.EmbeddedObjectRef, Object: &stripped})
}
