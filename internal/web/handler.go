package web

// Handler declares a group of routes.
type Handler interface {
	Routes(r Router)
}

// HandlerFunc serves one route. A returned error goes to the ErrorHandler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler writes the response for a failed request.
type ErrorHandler func(c Context, err error) error
