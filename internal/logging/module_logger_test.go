package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-lingo/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, CacheModule)
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger = logger.WithContext(context.Background())
	logger.Debug("noop")
}

func TestModuleLoggerUsesProviderAndAnnotatesFields(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, LoaderModule)

	if len(provider.requested) != 1 || provider.requested[0] != LoaderModule {
		t.Fatalf("expected module %s, got %v", LoaderModule, provider.requested)
	}
	if len(rec.fields) != 1 || rec.fields[0]["module"] != LoaderModule {
		t.Fatalf("expected module field %s, got %v", LoaderModule, rec.fields)
	}
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "")

	if provider.requested[0] != RootModule {
		t.Fatalf("expected default module %s, got %v", RootModule, provider.requested)
	}
}

func TestWithTranslationSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}

	_ = WithTranslation(rec, "fr", "")

	if len(rec.fields) != 1 {
		t.Fatalf("expected one WithFields call, got %d", len(rec.fields))
	}
	if rec.fields[0]["language"] != "fr" {
		t.Fatalf("expected language field, got %v", rec.fields[0])
	}
	if _, ok := rec.fields[0]["namespace"]; ok {
		t.Fatalf("expected namespace to be omitted, got %v", rec.fields[0])
	}

	_ = WithTranslation(rec, "", "")
	if len(rec.fields) != 1 {
		t.Fatalf("expected empty values to skip WithFields, got %d calls", len(rec.fields))
	}
}

func TestContextFieldsMerge(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"request_id": "a"})
	ctx = ContextWithFields(ctx, map[string]any{"language": "fr", "request_id": "b"})

	fields := ContextFields(ctx)
	if fields["request_id"] != "b" || fields["language"] != "fr" {
		t.Fatalf("unexpected merged fields %v", fields)
	}

	fields["language"] = "de"
	if ContextFields(ctx)["language"] != "fr" {
		t.Fatal("expected ContextFields to return a copy")
	}
}
