// Package middleware wraps a generator with a chain of interceptors that see
// every prompt and completion.
package middleware

import (
	"context"

	"github.com/sweetpotato0/selfrag/agent"
)

// RequestIDKey is the metadata key holding the per-call request id.
const RequestIDKey = "request_id"

// Context represents the middleware execution context for one generation call.
type Context struct {
	// Prompt sent to the generator
	Prompt string

	// Response from the generator
	Response string

	// Metadata for passing data between middlewares
	Metadata map[string]any

	// Internal state
	context context.Context
}

// NewContext creates a new middleware context
func NewContext(ctx context.Context, prompt string) *Context {
	return &Context{
		Prompt:   prompt,
		Metadata: make(map[string]any),
		context:  ctx,
	}
}

// Context returns the underlying context.Context
func (c *Context) Context() context.Context {
	if c.context == nil {
		return context.Background()
	}
	return c.context
}

// Middleware defines the interface for middleware components
type Middleware interface {
	// Name returns the name of the middleware for logging and debugging
	Name() string

	// Execute runs the middleware logic
	// It receives the current context and a next handler to continue the chain
	// Returning error will stop the middleware chain
	Execute(ctx *Context, next Handler) error
}

// Handler is the function called to pass control to the next middleware
type Handler func(*Context) error

// MiddlewareChain represents a sequence of middleware to be executed
type MiddlewareChain struct {
	middlewares []Middleware
}

// NewChain creates a new middleware chain
func NewChain(middlewares ...Middleware) *MiddlewareChain {
	return &MiddlewareChain{
		middlewares: middlewares,
	}
}

// Add appends a middleware to the chain
func (c *MiddlewareChain) Add(m Middleware) *MiddlewareChain {
	c.middlewares = append(c.middlewares, m)
	return c
}

// Names lists the middlewares in execution order.
func (c *MiddlewareChain) Names() []string {
	names := make([]string, len(c.middlewares))
	for i, m := range c.middlewares {
		names[i] = m.Name()
	}
	return names
}

// Execute runs all middlewares in the chain
func (c *MiddlewareChain) Execute(ctx *Context, finalHandler Handler) error {
	if ctx == nil {
		return ErrInvalidContext
	}
	return c.executeMiddleware(ctx, 0, finalHandler)
}

// executeMiddleware recursively executes middlewares in sequence
func (c *MiddlewareChain) executeMiddleware(ctx *Context, index int, finalHandler Handler) error {
	if index >= len(c.middlewares) {
		return finalHandler(ctx)
	}

	nextHandler := func(ctx *Context) error {
		return c.executeMiddleware(ctx, index+1, finalHandler)
	}

	return c.middlewares[index].Execute(ctx, nextHandler)
}

var _ agent.Generator = (*Generator)(nil)

// Generator runs every Generate call through a middleware chain before it
// reaches the wrapped generator.
type Generator struct {
	next  agent.Generator
	chain *MiddlewareChain
}

// Wrap returns gen behind the given middlewares, outermost first.
func Wrap(gen agent.Generator, middlewares ...Middleware) *Generator {
	return &Generator{next: gen, chain: NewChain(middlewares...)}
}

// Chain exposes the middleware chain.
func (g *Generator) Chain() *MiddlewareChain {
	return g.chain
}

// Generate implements agent.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	mc := NewContext(ctx, prompt)
	err := g.chain.Execute(mc, func(c *Context) error {
		out, err := g.next.Generate(c.Context(), c.Prompt)
		if err != nil {
			return err
		}
		c.Response = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return mc.Response, nil
}

// Model implements agent.Generator.
func (g *Generator) Model() string {
	return g.next.Model()
}
