package filterexpr

import "github.com/dynafile-io/dynafile"

// Compiler implements dynafile.ExpressionCompiler, turning a filter
// expression string into a dynafile.Filter. It holds no state and is
// safe to share across tables.
type Compiler struct{}

// NewCompiler returns a ready-to-use Compiler. A table opts into
// string filters by passing one to dynafile.OpenOptions:
//
//	t, err := dynafile.Open(path, dynafile.OpenOptions{
//		ExpressionCompiler: filterexpr.NewCompiler(),
//	})
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile parses expression and returns a Filter that evaluates it
// against an Item. A malformed expression yields a *ParseError.
func (c *Compiler) Compile(expression string) (dynafile.Filter, error) {
	n, err := parse(expression)
	if err != nil {
		return nil, err
	}
	return func(item dynafile.Item) bool {
		return n.eval(item)
	}, nil
}
