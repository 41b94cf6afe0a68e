package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/rtable/internal/field"
)

// RecordVar is the CEL variable bound to the record under test.
const RecordVar = "_"

// ContainsFoldFunc is the CEL function used for Contains leaves:
// containsFold(_, "path.to.value", "term").
const ContainsFoldFunc = "containsFold"

// NewCELEnv returns a CEL environment with the record variable, the
// containsFold function and the common extension libraries. Extra options
// extend the environment.
func NewCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	all := make([]cel.EnvOption, 0, 6+len(opts))
	all = append(all,
		cel.Variable(RecordVar, cel.DynType),
		cel.Function(ContainsFoldFunc,
			cel.Overload("containsFold_dyn_string_string",
				[]*cel.Type{cel.DynType, cel.StringType, cel.StringType},
				cel.BoolType,
				cel.FunctionBinding(containsFoldBinding),
			),
		),
		celext.Strings(),
		celext.Lists(),
		celext.Math(),
	)
	all = append(all, opts...)
	env, err := cel.NewEnv(all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

func containsFoldBinding(args ...ref.Val) ref.Val {
	if len(args) != 3 {
		return types.NewErr("%s: expected 3 arguments, got %d", ContainsFoldFunc, len(args))
	}
	path, ok := args[1].(types.String)
	if !ok {
		return types.MaybeNoSuchOverloadErr(args[1])
	}
	term, ok := args[2].(types.String)
	if !ok {
		return types.MaybeNoSuchOverloadErr(args[2])
	}
	v, found := field.Raw(args[0].Value(), string(path))
	return types.Bool(found && ValueContains(v, string(term)))
}

// CEL renders e as a CEL boolean expression over the record variable.
func CEL(e Expr) string {
	switch t := e.(type) {
	case nil, All:
		return "true"
	case And:
		return celJoin(t.Children, " && ", "true")
	case Or:
		return celJoin(t.Children, " || ", "false")
	case Contains:
		return fmt.Sprintf("%s(%s, %s, %s)", ContainsFoldFunc, RecordVar, strconv.Quote(t.Path), strconv.Quote(t.Term))
	default:
		return "false"
	}
}

func celJoin(children []Expr, op, empty string) string {
	if len(children) == 0 {
		return empty
	}
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = CEL(c)
	}
	return "(" + strings.Join(parts, op) + ")"
}

// Predicate is a compiled CEL predicate over a single record.
type Predicate struct {
	source string
	prg    cel.Program
}

// Compile type-checks src in env and prepares it for evaluation. The
// expression must produce a bool (or dyn, checked at evaluation time).
func Compile(env *cel.Env, src string) (*Predicate, error) {
	ast, issues := env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("predicate %q must return bool, got %s", src, out)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Predicate{source: src, prg: prg}, nil
}

// Eval runs the predicate against record.
func (p *Predicate) Eval(record any) (bool, error) {
	out, _, err := p.prg.Eval(map[string]any{RecordVar: record})
	if err != nil {
		return false, fmt.Errorf("eval error in %q: %w", p.source, err)
	}
	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("predicate %q returned %s, not bool", p.source, out.Type())
	}
	return bool(b), nil
}

// String returns the predicate source.
func (p *Predicate) String() string { return p.source }
