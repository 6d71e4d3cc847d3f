package reports

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"fuelstock/internal/core/types"
)

// Default threshold rules: below 20% of opening is critical, below 50%
// is low. Zero-opening rows are never flagged.
const (
	DefaultCriticalExpr = "opening > 0.0 && quantity < opening * 0.2"
	DefaultLowExpr      = "opening > 0.0 && quantity < opening * 0.5"
)

// Classifier evaluates stock-level rules over {quantity, opening}.
// Rules are CEL expressions so deployments can tune them per site
// without code changes.
type Classifier struct {
	critical cel.Program
	low      cel.Program
}

// NewClassifier compiles the given CEL expressions. Empty expressions
// fall back to the defaults.
func NewClassifier(criticalExpr, lowExpr string) (*Classifier, error) {
	if criticalExpr == "" {
		criticalExpr = DefaultCriticalExpr
	}
	if lowExpr == "" {
		lowExpr = DefaultLowExpr
	}

	env, err := cel.NewEnv(
		cel.Variable("quantity", cel.DoubleType),
		cel.Variable("opening", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	critical, err := compileRule(env, criticalExpr)
	if err != nil {
		return nil, fmt.Errorf("critical rule: %w", err)
	}
	low, err := compileRule(env, lowExpr)
	if err != nil {
		return nil, fmt.Errorf("low rule: %w", err)
	}

	return &Classifier{critical: critical, low: low}, nil
}

func compileRule(env *cel.Env, expr string) (cel.Program, error) {
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("expression %q must evaluate to bool", expr)
	}
	return env.Program(ast)
}

// Classify returns the level for a balance. Critical wins over low.
func (c *Classifier) Classify(quantity, opening types.Quantity) (Level, error) {
	vars := map[string]any{
		"quantity": quantity.Float64(),
		"opening":  opening.Float64(),
	}

	if hit, err := evalRule(c.critical, vars); err != nil {
		return "", err
	} else if hit {
		return LevelCritical, nil
	}

	if hit, err := evalRule(c.low, vars); err != nil {
		return "", err
	} else if hit {
		return LevelLow, nil
	}

	return LevelNormal, nil
}

func evalRule(prg cel.Program, vars map[string]any) (bool, error) {
	out, _, err := prg.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("eval rule: %w", err)
	}
	hit, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule returned %T, want bool", out.Value())
	}
	return hit, nil
}
