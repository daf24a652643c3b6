package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cogc/internal/classify"
	"cogc/internal/config"
	"cogc/internal/deploy"
	"cogc/internal/emitter"
	"cogc/internal/icbr"
	"cogc/internal/ir"
	"cogc/internal/learning"
	"cogc/internal/llmclient"
	"cogc/internal/logging"
	"cogc/internal/lowering"
	"cogc/internal/smoke"
	"cogc/internal/usage"
)

// widgetPartIR is a hand-built ApplicationIR fixture: a Widget entity
// with one nested Part child (FK-linked), a nested DELETE endpoint, a
// status-transition flow, a pure-read flow, and a create-child flow.
// It exercises every stratum (template/AST/LLM), nested-delete
// emission, and ICBR's Behavior lowering in one pass.
const widgetPartIR = `{
  "domain": {
    "entities": [
      {
        "name": "Widget",
        "fields": [
          {"name": "id", "type": "uuid", "nullable": false},
          {"name": "name", "type": "string", "nullable": false},
          {"name": "status", "type": "enum", "nullable": false, "enum_values": ["draft", "active"]},
          {"name": "stock", "type": "int", "nullable": false}
        ]
      },
      {
        "name": "Part",
        "fields": [
          {"name": "id", "type": "uuid", "nullable": false},
          {"name": "widget_id", "type": "uuid", "nullable": false, "is_foreign_key": true, "references": "Widget"},
          {"name": "label", "type": "string", "nullable": false}
        ]
      }
    ]
  },
  "api": {
    "endpoints": [
      {"method": "POST", "path": "/widgets", "operation_id": "create_widget", "entity": "Widget"},
      {"method": "GET", "path": "/widgets/{id}", "operation_id": "get_widget", "entity": "Widget", "path_params": ["id"]},
      {"method": "POST", "path": "/parts", "operation_id": "create_part", "entity": "Part"},
      {"method": "GET", "path": "/widgets/{id}/parts", "operation_id": "list_widget_parts", "entity": "Part", "parent_entity": "Widget", "parent_fk_field": "widget_id", "path_params": ["id"]},
      {"method": "DELETE", "path": "/widgets/{id}/parts/{part_id}", "operation_id": "delete_widget_part", "entity": "Part", "parent_entity": "Widget", "parent_fk_field": "widget_id", "inferred": true, "inference_source": "crud_best_practice", "path_params": ["id", "part_id"]}
    ]
  },
  "behavior": {
    "flows": [
      {
        "name": "activate_widget",
        "source_entity": "Widget",
        "steps": [{"kind": "update", "entity": "Widget", "detail": "set status active"}],
        "postconditions": [{"entity": "Widget", "field": "status", "operator": "eq", "value": "active"}],
        "status_transition": {"entity": "Widget", "field": "status", "from": "draft", "to": "active"}
      },
      {
        "name": "widget_summary",
        "source_entity": "Widget",
        "steps": [{"kind": "read", "entity": "Widget", "detail": "read widget"}]
      },
      {
        "name": "attach_part",
        "source_entity": "Widget",
        "creates_entity": "Part",
        "steps": [{"kind": "create", "entity": "Part", "detail": "create part under widget"}],
        "postconditions": [{"entity": "Part", "field": "widget_id", "operator": "eq", "value": "parent.id"}]
      }
    ]
  },
  "infrastructure": {
    "database": "postgres",
    "target_language": "python",
    "runtime": "python3.12",
    "ports": [{"name": "db", "number": 5432, "is_primary_db": true}],
    "health_check": "/health",
    "metrics_path": "/metrics"
  }
}`

// fakeLLM dispatches canned structured responses by request slot,
// mirroring internal/lowering/lowering_test.go's fakeLLM pattern.
type fakeLLM struct {
	irJSON     string
	slotBody   string
	fallbackIR string

	synthesizeCalls int
	slotCalls       int
	fallbackCalls   int
}

func (f *fakeLLM) Complete(ctx context.Context, req llmclient.Request) (*llmclient.Response, error) {
	switch {
	case req.Slot == "lowering.synthesize":
		f.synthesizeCalls++
		return &llmclient.Response{JSON: json.RawMessage(f.irJSON), Model: "fake-model"}, nil
	case strings.HasPrefix(req.Slot, "emitter.slot."):
		f.slotCalls++
		body := f.slotBody
		if body == "" {
			body = "    return {}\n"
		}
		resp, _ := json.Marshal(map[string]string{"body": body})
		return &llmclient.Response{JSON: resp, Model: "fake-model"}, nil
	case req.Slot == "repair.llm_fallback":
		f.fallbackCalls++
		fb := f.fallbackIR
		if fb == "" {
			fb = `{"file_content":"    return {}\n","description":"llm fallback rewrite"}`
		}
		return &llmclient.Response{JSON: json.RawMessage(fb), Model: "fake-model"}, nil
	default:
		return nil, fmt.Errorf("fakeLLM: unexpected slot %q", req.Slot)
	}
}

// fakeDeployer is a no-op Deployer standing in for Docker/in-process
// deployment so Run can be driven without a listening server.
type fakeDeployer struct {
	baseURL         string
	builds, ups, downs int
}

func (d *fakeDeployer) Build(ctx context.Context, sourceDir string, noCache bool) error {
	d.builds++
	return nil
}

func (d *fakeDeployer) Up(ctx context.Context) (string, error) {
	d.ups++
	return d.baseURL, nil
}

func (d *fakeDeployer) Down(ctx context.Context) error {
	d.downs++
	return nil
}

func (d *fakeDeployer) Kind() string { return "fake" }

// testHarness bundles one Pipeline built against a fresh temp
// workspace plus the fakes it was wired with, so a test can both drive
// Run and inspect what the fakes observed afterward.
type testHarness struct {
	pipeline *Pipeline
	llm      *fakeLLM
	deployer *fakeDeployer
}

func newTestPipeline(t *testing.T, mode config.ExecutionMode, runSmoke func(ctx context.Context, baseURL string, app ir.ApplicationIR) smoke.SmokeResult) *testHarness {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Execution.Mode = mode

	logger := zap.NewNop()
	audit, err := logging.NewAuditLogger(filepath.Join(dir, "audit.log"))
	require.NoError(t, err)

	fake := &fakeLLM{irJSON: widgetPartIR}

	cache, err := lowering.OpenCache(filepath.Join(dir, "ir_cache.sqlite"))
	require.NoError(t, err)

	engine, err := icbr.NewEngine(icbr.DefaultConfig())
	require.NoError(t, err)

	store, err := learning.Open(filepath.Join(dir, "learning.sqlite"))
	require.NoError(t, err)

	tracker, err := usage.NewTracker(dir)
	require.NoError(t, err)

	dep := &fakeDeployer{baseURL: "http://fake-app.local"}

	p := &Pipeline{
		cfg:          cfg,
		logger:       logger,
		audit:        audit,
		llm:          fake,
		lowerer:      lowering.New(fake, cache),
		cache:        cache,
		engine:       engine,
		store:        store,
		bridge:       learning.NewBridge(store),
		tracker:      tracker,
		workspaceDir: dir,
		newDeployer: func(ir.Infrastructure, bool) (deploy.Deployer, error) {
			return dep, nil
		},
		runSmoke: runSmoke,
	}

	t.Cleanup(func() { p.Close() })
	return &testHarness{pipeline: p, llm: fake, deployer: dep}
}

func convergedResult() smoke.SmokeResult {
	return smoke.SmokeResult{ScenariosTotal: 5, ScenariosPassed: 5, PassRate: 1.0}
}

// TestRunDeterministicSafeModeConverges covers the "Deterministic SAFE
// run" property: in ModeSafe the LLM stratum must never be called for
// a flow's service body, and the spliced body is the fixed
// deterministic fallback.
func TestRunDeterministicSafeModeConverges(t *testing.T) {
	calls := 0
	h := newTestPipeline(t, config.ModeSafe, func(ctx context.Context, baseURL string, app ir.ApplicationIR) smoke.SmokeResult {
		calls++
		return convergedResult()
	})

	result, err := h.pipeline.Run(context.Background(), "safe-app", "build a widget tracker")
	require.NoError(t, err)

	assert.Equal(t, StatusConverged, result.Status)
	assert.Equal(t, 0, result.Iterations)
	assert.Equal(t, 1, calls)
	assert.Zero(t, h.llm.slotCalls, "ModeSafe must never invoke the LLM stratum")

	body, ok := result.SourceTree["src/services/widget_summary_service.py"]
	require.True(t, ok)
	assert.Contains(t, body, "return None", "pure-read flow falls back to a no-op read")

	writeBody, ok := result.SourceTree["src/services/activate_widget_service.py"]
	require.True(t, ok)
	assert.Contains(t, writeBody, "NotImplementedError", "mutating flow falls back to a guarded stub")
}

// TestRunInferredNestedDeleteEmitsGuardFile covers the "Inferred
// nested delete" property: a nested DELETE endpoint (FK-verified
// parent/child relationship) must produce its dedicated nested-delete
// guard file via the AST stratum.
func TestRunInferredNestedDeleteEmitsGuardFile(t *testing.T) {
	h := newTestPipeline(t, config.ModeHybrid, func(ctx context.Context, baseURL string, app ir.ApplicationIR) smoke.SmokeResult {
		return convergedResult()
	})

	result, err := h.pipeline.Run(context.Background(), "nested-delete-app", "build a widget tracker")
	require.NoError(t, err)
	require.Equal(t, StatusConverged, result.Status)

	content, ok := result.SourceTree["src/routes/part_nested_delete.py"]
	require.True(t, ok, "nested DELETE endpoint must emit a nested-delete guard file")
	assert.NotEmpty(t, content)

	rec, ok := result.Manifest.Find("src/routes/part_nested_delete.py")
	require.True(t, ok)
	assert.Equal(t, emitter.StratumAST, rec.Stratum)
}

// TestRunRepairCycleConverges covers the "Repair cycle converges"
// property: one violation routed to ValidationStrategy is fixed and
// the next smoke pass converges.
func TestRunRepairCycleConverges(t *testing.T) {
	iteration := 0
	h := newTestPipeline(t, config.ModeHybrid, func(ctx context.Context, baseURL string, app ir.ApplicationIR) smoke.SmokeResult {
		defer func() { iteration++ }()
		if iteration == 0 {
			return smoke.SmokeResult{
				ScenariosTotal:  5,
				ScenariosPassed: 4,
				PassRate:        0.5,
				Violations: []smoke.Violation{{
					Endpoint:       "/parts",
					ScenarioName:   "create_part_happy",
					ExpectedStatus: 201,
					ActualStatus:   422,
					ErrorType:      "SCHEMA_VALIDATION",
					StackTrace:     "pydantic.ValidationError: field required",
				}},
			}
		}
		return convergedResult()
	})

	result, err := h.pipeline.Run(context.Background(), "repair-app", "build a widget tracker")
	require.NoError(t, err)

	assert.Equal(t, StatusConverged, result.Status)
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, 2, iteration)

	schema, ok := result.SourceTree["src/models/schemas.part.py"]
	require.True(t, ok)
	assert.Contains(t, schema, "constraint added by repair")
}

// TestRunLearningBridgeRecordsFixOutcome covers the "Learning bridges
// a bug" property: a successful repair must leave a replayable
// FixPattern in the LearningStore under the violation's signature.
func TestRunLearningBridgeRecordsFixOutcome(t *testing.T) {
	iteration := 0
	h := newTestPipeline(t, config.ModeHybrid, func(ctx context.Context, baseURL string, app ir.ApplicationIR) smoke.SmokeResult {
		defer func() { iteration++ }()
		if iteration == 0 {
			return smoke.SmokeResult{
				ScenariosTotal:  5,
				ScenariosPassed: 4,
				PassRate:        0.5,
				Violations: []smoke.Violation{{
					Endpoint:       "/parts",
					ScenarioName:   "create_part_happy",
					ExpectedStatus: 201,
					ActualStatus:   422,
					ErrorType:      "SCHEMA_VALIDATION",
					StackTrace:     "pydantic.ValidationError: field required",
				}},
			}
		}
		return convergedResult()
	})

	result, err := h.pipeline.Run(context.Background(), "learning-app", "build a widget tracker")
	require.NoError(t, err)
	require.Equal(t, StatusConverged, result.Status)

	ek := learning.ErrorKnowledge{
		EndpointNormalized: learning.NormalizeEndpoint("/parts"),
		ErrorType:          string(classify.CategoryValidation),
		ExceptionClass:     "ValidationError",
	}
	pattern, ok, err := h.pipeline.store.FixPatternFor(ek.Signature())
	require.NoError(t, err)
	require.True(t, ok, "a successful repair must record a replayable fix pattern")
	assert.Equal(t, "request_schema_constraint", pattern.FixType)
	assert.Equal(t, 1, pattern.SuccessCount)
}

// TestRunTemplateProtectionHolds covers the "Template protection
// holds" property: static infrastructure files stay template-stratum
// and ordinary AST-stratum output (migrations, schemas) is never
// template-protected, even though both live under similarly-prefixed
// directories.
func TestRunTemplateProtectionHolds(t *testing.T) {
	h := newTestPipeline(t, config.ModeHybrid, func(ctx context.Context, baseURL string, app ir.ApplicationIR) smoke.SmokeResult {
		return convergedResult()
	})

	result, err := h.pipeline.Run(context.Background(), "protection-app", "build a widget tracker")
	require.NoError(t, err)
	require.Equal(t, StatusConverged, result.Status)

	for _, protected := range []string{"Dockerfile", "docker-compose.yml", "src/core/config.py", "src/routes/health.py"} {
		rec, ok := result.Manifest.Find(protected)
		require.True(t, ok, "%s must be emitted", protected)
		assert.Equal(t, emitter.StratumTemplate, rec.Stratum)
		assert.True(t, emitter.IsTemplateProtected(protected))
	}

	for _, astPath := range []string{"migrations/widget.py", "src/models/schemas.widget.py", "src/routes/part_nested_delete.py"} {
		assert.False(t, emitter.IsTemplateProtected(astPath), "%s must remain writable by the AST stratum", astPath)
		_, ok := result.SourceTree[astPath]
		assert.True(t, ok)
	}
}

// TestRunRegressedStopsLoop covers the "Regression rollback" property:
// a pass rate that drops between iterations must halt the loop with
// StatusRegressed rather than continuing to repair.
func TestRunRegressedStopsLoop(t *testing.T) {
	iteration := 0
	h := newTestPipeline(t, config.ModeHybrid, func(ctx context.Context, baseURL string, app ir.ApplicationIR) smoke.SmokeResult {
		defer func() { iteration++ }()
		violation := smoke.Violation{
			Endpoint:       "/parts",
			ScenarioName:   "create_part_happy",
			ExpectedStatus: 201,
			ActualStatus:   422,
			ErrorType:      "SCHEMA_VALIDATION",
			StackTrace:     "pydantic.ValidationError: field required",
		}
		if iteration == 0 {
			return smoke.SmokeResult{ScenariosTotal: 5, ScenariosPassed: 3, PassRate: 0.6, Violations: []smoke.Violation{violation}}
		}
		return smoke.SmokeResult{ScenariosTotal: 5, ScenariosPassed: 1, PassRate: 0.3, Violations: []smoke.Violation{violation}}
	})

	result, err := h.pipeline.Run(context.Background(), "regression-app", "build a widget tracker")
	require.NoError(t, err)

	assert.Equal(t, StatusRegressed, result.Status)
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, 2, iteration, "the loop must stop as soon as a regression is observed")
	assert.Equal(t, 2, h.deployer.builds)
}
