package cel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"switchboard/pkg/models"
)

// Evaluator compiles and runs rule expressions against a normalized event.
// Expressions see the canonical fields plus the raw provider payload, so a
// rule can reach attributes the normalizer did not promote.
type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("provider", cel.StringType),
		cel.Variable("event", cel.StringType),
		cel.Variable("external_id", cel.StringType),
		cel.Variable("customer", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("order", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("payload", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

func (e *Evaluator) ValidateExpression(expression string) error {
	_, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}
	return nil
}

func (e *Evaluator) ValidateFilterExpression(expression string) error {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return fmt.Errorf("filter expression must return bool, got %v", ast.OutputType())
	}

	return nil
}

func (e *Evaluator) EvaluateFilter(ctx context.Context, expression string, event *models.NormalizedEvent) (bool, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return false, fmt.Errorf("filter expression must return bool, got %v", ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("failed to create CEL program: %w", err)
	}

	result, _, err := program.ContextEval(ctx, e.eventVars(event))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}

func (e *Evaluator) eventVars(event *models.NormalizedEvent) map[string]interface{} {
	m := event.AsMap()

	customer, ok := m["customer"].(map[string]interface{})
	if !ok {
		customer = map[string]interface{}{}
	}

	order, ok := m["order"].(map[string]interface{})
	if !ok {
		order = map[string]interface{}{}
	}

	payload := event.Metadata
	if payload == nil {
		payload = map[string]interface{}{}
	}

	return map[string]interface{}{
		"id":          event.ID,
		"provider":    event.Provider,
		"event":       event.Event,
		"external_id": event.ExternalID,
		"customer":    customer,
		"order":       order,
		"payload":     payload,
	}
}
