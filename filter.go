package dynafile

// Filter is the opaque predicate the storage engine consumes: it never
// inspects a filter's origin, only calls it.
type Filter func(Item) bool

// ExpressionCompiler is the external collaborator that turns a string
// filter expression into a Filter. Dynafile's core treats the
// string-expression language as out of scope and never implements one
// itself; callers that want string filters supply a compiler via
// OpenOptions.ExpressionCompiler.
type ExpressionCompiler interface {
	Compile(expression string) (Filter, error)
}

// truthyFilter is the filter a nil filter value normalizes to: a
// non-empty item is truthy.
func truthyFilter(item Item) bool {
	return len(item) > 0
}

// normalizeFilter resolves a polymorphic filter argument into a Filter:
// nil -> truthy predicate, Filter -> itself, string -> compiler
// delegation, anything else -> UnsupportedFilterError.
func (t *Table) normalizeFilter(raw any) (Filter, error) {
	switch v := raw.(type) {
	case nil:
		return truthyFilter, nil
	case Filter:
		return v, nil
	case func(Item) bool:
		return Filter(v), nil
	case string:
		if t.compiler == nil {
			return nil, &UnsupportedFilterError{Reason: "string filter expressions require an ExpressionCompiler, none configured"}
		}
		return t.compiler.Compile(v)
	default:
		return nil, &UnsupportedFilterError{Reason: "unrecognized filter value"}
	}
}
