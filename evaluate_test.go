package tagconfig

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRuleIdentifier(t *testing.T) {
	cases := map[string]string{
		"webservices-base-url": "webservices_base_url",
		"db.host":              "db_host",
		"already_ok":           "already_ok",
		"9lives":               "_9lives",
		"héllo":                "h_llo",
	}
	for key, want := range cases {
		if got := RuleIdentifier(key); got != want {
			t.Fatalf("RuleIdentifier(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestEvaluateBindsResolvedKeys(t *testing.T) {
	cfg := prepare(t, "production")

	ok, err := cfg.EvaluateBool(`webservices_base_url == "http://production.webservice" && "production" in tags`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !ok {
		t.Fatalf("expected rule to match")
	}

	resp, err := cfg.Evaluate(`config["i-am"]`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if resp.Value != "in-the-second-file-in-the-list" {
		t.Fatalf("unexpected raw config lookup %v", resp.Value)
	}
}

func TestEvaluateBoolRejectsNonBool(t *testing.T) {
	cfg := prepare(t)
	if _, err := cfg.EvaluateBool(`key1`); err == nil || !strings.Contains(err.Error(), "want bool") {
		t.Fatalf("expected non-bool error, got %v", err)
	}
}

func TestEvaluateWithCustomFunction(t *testing.T) {
	cfg := sessionFromMapWith(t, map[string]string{"name": "svc"},
		WithCustomFunction("upper", func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, errors.New("upper expects one argument")
			}
			s, _ := args[0].(string)
			return strings.ToUpper(s), nil
		}),
		WithProgramCache(NewMemoryProgramCache()),
	)
	resp, err := cfg.Evaluate(`upper(name)`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if resp.Value != "SVC" {
		t.Fatalf("expected SVC, got %v", resp.Value)
	}
}

func TestEvaluateWrapsErrors(t *testing.T) {
	cfg := prepare(t, "production")
	_, err := cfg.Evaluate(`1 +`)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %v", err)
	}
	if evalErr.Engine != "expr" || evalErr.Tags != "production" {
		t.Fatalf("unexpected evaluation error %+v", evalErr)
	}
	if _, err := cfg.Evaluate(""); err == nil {
		t.Fatalf("expected empty expression error")
	}
}

func TestEvaluateReportsInterpolationFailures(t *testing.T) {
	cfg := sessionFromMap(t, map[string]string{"a": "${b}", "b": "${a}"})
	if _, err := cfg.Evaluate(`true`); !errors.Is(err, ErrCircularReference) {
		t.Fatalf("expected snapshot failure to surface, got %v", err)
	}
}

func TestEvaluateWithExplicitContext(t *testing.T) {
	cfg := prepare(t)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	resp, err := cfg.EvaluateWith(RuleContext{
		Snapshot: map[string]any{"limit": 10},
		Tags:     []string{"canary"},
		Now:      &now,
		Args:     map[string]any{"requested": 4},
	}, `args.requested < limit && "canary" in tags && now.Year() == 2024`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if resp.Value != true {
		t.Fatalf("expected true, got %v", resp.Value)
	}
}

func TestCELEvaluator(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("greet", func(args ...any) (any, error) {
		return "hello " + args[0].(string), nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	cache := NewMemoryProgramCache()
	celCfg := New(prepare(t).Chain(), mustTags(t, "development"),
		WithEvaluator(NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry))),
	)

	ok, err := celCfg.EvaluateBool(`webservices_base_url.startsWith("http://development") && "development" in tags`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !ok {
		t.Fatalf("expected rule to match")
	}
	resp, err := celCfg.Evaluate(`greet(key1)`)
	if err != nil {
		t.Fatalf("evaluate greet: %v", err)
	}
	if resp.Value != "hello key1-value" {
		t.Fatalf("unexpected greet result %v", resp.Value)
	}
	resp, err = celCfg.Evaluate(`call("greet", [i_am])`)
	if err != nil {
		t.Fatalf("evaluate call: %v", err)
	}
	if resp.Value != "hello in-the-second-file-in-the-list" {
		t.Fatalf("unexpected call result %v", resp.Value)
	}
	if cache.Len() != 3 {
		t.Fatalf("expected 3 cached programs, got %d", cache.Len())
	}
	if _, err := celCfg.Evaluate(`greet(key1)`); err != nil {
		t.Fatalf("cached evaluate: %v", err)
	}
	if cache.Len() != 3 {
		t.Fatalf("expected cache hit, got %d entries", cache.Len())
	}

	_, err = celCfg.Evaluate(`unknown_var == 1`)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Engine != "cel" {
		t.Fatalf("expected cel EvaluationError, got %v", err)
	}
}

func TestCompiledRuleReuse(t *testing.T) {
	evaluator := NewExprEvaluator(ExprWithProgramCache(NewMemoryProgramCache()))
	rule, err := evaluator.Compile(`port > 1024`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for port, want := range map[int]bool{80: false, 8080: true} {
		got, err := rule.Evaluate(RuleContext{Snapshot: map[string]any{"port": port}})
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if got != want {
			t.Fatalf("port %d: expected %v, got %v", port, want, got)
		}
	}
}

func TestFunctionRegistryRejectsInvalidNames(t *testing.T) {
	registry := NewFunctionRegistry()
	fn := func(...any) (any, error) { return nil, nil }
	for _, name := range []string{"", "has-dash", "tags", "Config"} {
		if err := registry.Register(name, fn); !errors.Is(err, ErrFunctionName) {
			t.Fatalf("%q: expected ErrFunctionName, got %v", name, err)
		}
	}
	if err := registry.Register("Upper", fn); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("upper", fn); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if !registry.Has("UPPER") {
		t.Fatalf("expected case-insensitive lookup")
	}
	if err := registry.Register("nilfn", nil); err == nil {
		t.Fatalf("expected nil function error")
	}
}

func mustTags(t *testing.T, tags ...string) TagContext {
	t.Helper()
	ctx, err := NewTagContext(tags...)
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	return ctx
}

func TestKeysNamedLikeRuleBindingsStayInConfig(t *testing.T) {
	values := map[string]string{
		"tags": "x",
		"now":  "yesterday",
		"in":   "keyword",
		"port": "8080",
	}
	base := sessionFromMap(t, values, "production")

	cases := map[string]struct {
		cfg  *Configuration
		rule string
	}{
		"expr": {
			cfg:  base,
			rule: `"production" in tags && port == "8080" && config["tags"] == "x" && config["now"] == "yesterday" && now.Year() > 2000`,
		},
		"cel": {
			cfg:  New(base.Chain(), mustTags(t, "production"), WithEvaluator(NewCELEvaluator())),
			rule: `"production" in tags && port == "8080" && config["tags"] == "x" && config["in"] == "keyword"`,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ok, err := tc.cfg.EvaluateBool(tc.rule)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if !ok {
				t.Fatalf("expected rule to match")
			}
		})
	}
}

func TestKeysNamedLikeFunctionsStayInConfig(t *testing.T) {
	cfg := sessionFromMapWith(t, map[string]string{"upper": "not-a-function", "name": "svc"},
		WithCustomFunction("upper", func(args ...any) (any, error) {
			return strings.ToUpper(args[0].(string)), nil
		}),
	)
	resp, err := cfg.Evaluate(`upper(name) + "/" + config["upper"]`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if resp.Value != "SVC/not-a-function" {
		t.Fatalf("unexpected result %v", resp.Value)
	}
}

func TestEvaluationErrorsMatchSentinel(t *testing.T) {
	cfg := prepare(t)
	if _, err := cfg.Evaluate(""); !errors.Is(err, ErrEmptyExpression) || !errors.Is(err, ErrEvaluation) {
		t.Fatalf("expected empty expression error, got %v", err)
	}
	if _, err := NewCELEvaluator().Compile(""); !errors.Is(err, ErrEmptyExpression) {
		t.Fatalf("expected empty expression error from cel, got %v", err)
	}
	if _, err := cfg.Evaluate(`1 +`); !errors.Is(err, ErrEvaluation) {
		t.Fatalf("expected ErrEvaluation, got %v", err)
	}
}
