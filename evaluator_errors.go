package tagconfig

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEvaluation matches every *EvaluationError.
	ErrEvaluation = errors.New("tagconfig: rule evaluation failed")
	// ErrEmptyExpression is the cause of an EvaluationError for a blank rule.
	ErrEmptyExpression = errors.New("tagconfig: expression must not be empty")
)

// EvaluationError reports a rule that failed to compile or run, along with
// the engine, the expression and the tags it ran under.
type EvaluationError struct {
	Engine string
	Expr   string
	Tags   string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("tagconfig: ")
	if e.Engine != "" {
		b.WriteString(e.Engine)
		b.WriteByte(' ')
	}
	b.WriteString("rule")
	if e.Expr != "" {
		fmt.Fprintf(&b, " %q", e.Expr)
	}
	if e.Tags != "" {
		fmt.Fprintf(&b, " under [%s]", e.Tags)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches ErrEvaluation.
func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluation
}

func errEmptyExpression(engine string) error {
	return &EvaluationError{Engine: engine, Err: ErrEmptyExpression}
}

// wrapEvaluationError attaches rule metadata to err. An EvaluationError
// already in the chain is completed in place instead of being nested, so the
// innermost engine name survives.
func wrapEvaluationError(engine, expr, tags string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return &EvaluationError{Engine: engine, Expr: expr, Tags: tags, Err: err}
	}
	if evalErr.Engine == "" {
		evalErr.Engine = engine
	}
	if evalErr.Expr == "" {
		evalErr.Expr = expr
	}
	if evalErr.Tags == "" {
		evalErr.Tags = tags
	}
	return err
}
