package filter

import "github.com/s0up4200/vkbot/api"

// Filter defines the basic interface for message filters
type Filter interface {
	// Match checks if a message matches the filter criteria
	Match(msg api.Message) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}

// FilterFunc adapts a plain function to Filter.
type FilterFunc func(msg api.Message) bool

// Match calls f(msg)
func (f FilterFunc) Match(msg api.Message) bool {
	return f(msg)
}
