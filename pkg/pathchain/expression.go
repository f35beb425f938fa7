package pathchain

import "strings"

// liveExpressions maps host expressions to the context key that answers them
// during a live preview.
var liveExpressions = []struct {
	Expr string
	Key  string
}{
	{"[value root.frame]", KeyFrame},
	{"[value root.first_frame]", KeyFirstFrame},
	{"[value root.last_frame]", KeyLastFrame},
	{"[file rootname [value root.name]]", KeyScene},
	{"[file dirname [value root.name]]", KeyScriptDir},
}

// EvalExpression substitutes every known host expression in expr whose
// context value is set. Unknown expressions are left verbatim.
func EvalExpression(expr string, c Context) string {
	out := expr
	for _, e := range liveExpressions {
		if !strings.Contains(out, e.Expr) {
			continue
		}
		if v, ok := c.Lookup(e.Key); ok {
			out = strings.ReplaceAll(out, e.Expr, v)
		}
	}
	return out
}
