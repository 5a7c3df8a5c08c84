package errz

import "testing"

func TestPipelineRegisterRunUnregister(t *testing.T) {
	p := &Pipeline{byName: make(map[string]Middleware)}
	p.Register("mark", func(r *Record, next func(*Record) *Record) *Record {
		r.Message = r.Message + "-marked"
		return next(r)
	})

	r := CreateError("X", "base")
	out := p.Run(r)
	if out.Message != "base-marked" {
		t.Errorf("Message = %q, want %q", out.Message, "base-marked")
	}

	p.Unregister("mark")
	r2 := CreateError("X", "base")
	out2 := p.Run(r2)
	if out2.Message != "base" {
		t.Errorf("Message after unregister = %q, want %q", out2.Message, "base")
	}
}

func TestPipelineRunNilPassesThrough(t *testing.T) {
	p := &Pipeline{byName: make(map[string]Middleware)}
	if p.Run(nil) != nil {
		t.Fatal("expected a nil record to pass through Run untouched")
	}
}

func TestComposeOrdersMiddlewareInRegistrationOrder(t *testing.T) {
	var order []string
	m1 := func(r *Record, next func(*Record) *Record) *Record {
		order = append(order, "first")
		return next(r)
	}
	m2 := func(r *Record, next func(*Record) *Record) *Record {
		order = append(order, "second")
		return next(r)
	}
	compose(m1, m2)(CreateError("X", "m"), func(r *Record) *Record { return r })
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("order = %v, want [first second]", order)
	}
}

func TestFilterMiddlewareSkipsWhenPredicateFalse(t *testing.T) {
	applied := false
	inner := func(r *Record, next func(*Record) *Record) *Record {
		applied = true
		return next(r)
	}
	mw := FilterMiddleware(func(r *Record) bool { return r.Type == "Match" }, inner)
	mw(CreateError("NoMatch", "m"), func(r *Record) *Record { return r })
	if applied {
		t.Error("expected inner middleware to be skipped when the predicate is false")
	}
	mw(CreateError("Match", "m"), func(r *Record) *Record { return r })
	if !applied {
		t.Error("expected inner middleware to run when the predicate is true")
	}
}

func TestTransformMiddlewareRewritesRecord(t *testing.T) {
	mw := TransformMiddleware(func(r *Record) *Record {
		r.Message = "rewritten"
		return r
	})
	out := mw(CreateError("X", "original"), func(r *Record) *Record { return r })
	if out.Message != "rewritten" {
		t.Errorf("Message = %q, want %q", out.Message, "rewritten")
	}
}

func TestEnrichContextMiddlewareMergesContext(t *testing.T) {
	mw := EnrichContextMiddleware(func() Context { return Context{"added": true} })
	r := CreateError("X", "m", WithContext(Context{"base": 1}))
	out := mw(r, func(rec *Record) *Record { return rec })
	ctx := out.GetContext()
	if ctx["base"] != 1 || ctx["added"] != true {
		t.Errorf("merged context = %v, missing expected keys", ctx)
	}
}

func TestEnrichContextMiddlewareSkipsWhenEmpty(t *testing.T) {
	called := false
	mw := EnrichContextMiddleware(func() Context { return nil })
	r := CreateError("X", "m")
	mw(r, func(rec *Record) *Record { called = true; return rec })
	if !called {
		t.Fatal("expected next to be called even with an empty supplier")
	}
}

func TestRunMiddlewareSkipsSuccessAndAppliesTransform(t *testing.T) {
	globalPipeline.Register("uppercase-test-mw", func(r *Record, next func(*Record) *Record) *Record {
		return CreateError(r.Type, r.Message+"!")
	})
	defer globalPipeline.Unregister("uppercase-test-mw")

	ok := runMiddleware(Ok(1))
	if !ok.IsOk() {
		t.Error("expected success results to pass through runMiddleware untouched")
	}

	failed := Err[int](CreateError("X", "fail"))
	out := runMiddleware(failed)
	if out.Error().Message != "fail!" {
		t.Errorf("Message = %q, want %q", out.Error().Message, "fail!")
	}
}
