//go:build js_eval

package tagconfig

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestJSEvaluatorSeesResolvedKeys(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("shout", func(args ...any) (any, error) {
		return strings.ToUpper(args[0].(string)), nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	cache := NewMemoryProgramCache()
	cfg := New(prepare(t).Chain(), mustTags(t, "production"),
		WithEvaluator(NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry))),
	)

	ok, err := cfg.EvaluateBool(`tags.indexOf("production") >= 0 && webservices_base_url.startsWith("http://production")`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !ok {
		t.Fatalf("expected rule to match")
	}
	resp, err := cfg.Evaluate(`shout(key1)`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if resp.Value != "KEY1-VALUE" {
		t.Fatalf("unexpected result %v", resp.Value)
	}
	if _, ok := cache.Get(jsCacheKey(`shout(key1)`)); !ok {
		t.Fatalf("expected program to be cached")
	}
}

func TestJSEvaluatorKeepsBuiltinsOverKeys(t *testing.T) {
	base := sessionFromMap(t, map[string]string{"tags": "x", "this": "kw", "port": "8080"}, "production")
	cfg := New(base.Chain(), mustTags(t, "production"), WithEvaluator(NewJSEvaluator()))

	ok, err := cfg.EvaluateBool(`tags.indexOf("production") === 0 && port === "8080" && config["tags"] === "x" && config["this"] === "kw"`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !ok {
		t.Fatalf("expected rule to match")
	}
}

func TestJSEvaluatorTimeout(t *testing.T) {
	evaluator := NewJSEvaluator(JSWithTimeout(20 * time.Millisecond))
	_, err := evaluator.Evaluate(RuleContext{}, `(function(){ for(;;){} })()`)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Engine != "js" {
		t.Fatalf("expected js EvaluationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "exceeded") {
		t.Fatalf("expected interrupt reason in %v", err)
	}
}
