package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"cogc/internal/attribute"
	"cogc/internal/classify"
	"cogc/internal/compliance"
	"cogc/internal/config"
	"cogc/internal/convergence"
	"cogc/internal/deploy"
	"cogc/internal/emitter"
	"cogc/internal/errkind"
	"cogc/internal/icbr"
	"cogc/internal/ir"
	"cogc/internal/learning"
	"cogc/internal/llmclient"
	"cogc/internal/logging"
	"cogc/internal/lowering"
	"cogc/internal/repair"
	"cogc/internal/scheduler"
	"cogc/internal/smoke"
	"cogc/internal/usage"
)

// Pipeline is the long-lived handle one compile/repair run is driven
// through: every sub-component it owns is built once in New and reused
// across the run's iterations, matching
// `internal/campaign/orchestrator_execution.go`'s single long-lived
// Orchestrator holding its component handles for the campaign's
// duration rather than rebuilding them per step.
type Pipeline struct {
	cfg          *config.Config
	logger       *zap.Logger
	audit        *logging.AuditLogger
	llm          llmclient.Client
	lowerer      *lowering.Lowerer
	cache        *lowering.Cache
	engine       *icbr.Engine
	store        *learning.Store
	bridge       *learning.Bridge
	tracker      *usage.Tracker
	workspaceDir string

	// newDeployer and runSmoke are overridden by tests so Run can be
	// exercised without Docker or a real listening server. Both default
	// to the production path in New.
	newDeployer func(ir.Infrastructure, bool) (deploy.Deployer, error)
	runSmoke    func(ctx context.Context, baseURL string, app ir.ApplicationIR) smoke.SmokeResult
}

// New builds a Pipeline from cfg, rooted at workspaceDir (where the
// generated source tree, IR cache, LearningStore, and usage/audit logs
// are persisted under .cogc/).
func New(cfg *config.Config, workspaceDir string) (*Pipeline, error) {
	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, errkind.Wrap(errkind.Fatal, "pipeline.new", "build logger", err)
	}

	stateDir := filepath.Join(workspaceDir, ".cogc")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, errkind.Wrap(errkind.Fatal, "pipeline.new", "create state dir", err)
	}

	audit, err := logging.NewAuditLogger(filepath.Join(stateDir, cfg.Logging.AuditPath))
	if err != nil {
		return nil, errkind.Wrap(errkind.Fatal, "pipeline.new", "open audit log", err)
	}

	rawLLM, err := llmclient.New(cfg.LLM)
	if err != nil {
		return nil, errkind.Wrap(errkind.Fatal, "pipeline.new", "build llm client", err)
	}
	llm := llmclient.WithRetry(rawLLM)

	cache, err := lowering.OpenCache(filepath.Join(stateDir, "ir_cache.sqlite"))
	if err != nil {
		return nil, errkind.Wrap(errkind.Fatal, "pipeline.new", "open IR cache", err)
	}

	engine, err := icbr.NewEngine(icbr.DefaultConfig())
	if err != nil {
		return nil, errkind.Wrap(errkind.Fatal, "pipeline.new", "build ICBR engine", err)
	}

	store, err := learning.Open(filepath.Join(stateDir, "learning.sqlite"))
	if err != nil {
		return nil, errkind.Wrap(errkind.Fatal, "pipeline.new", "open LearningStore", err)
	}

	tracker, err := usage.NewTracker(workspaceDir)
	if err != nil {
		return nil, errkind.Wrap(errkind.Fatal, "pipeline.new", "open usage tracker", err)
	}

	tracked := newTrackingClient(llm, tracker)

	return &Pipeline{
		cfg:          cfg,
		logger:       logger,
		audit:        audit,
		llm:          tracked,
		lowerer:      lowering.New(tracked, cache),
		cache:        cache,
		engine:       engine,
		store:        store,
		bridge:       learning.NewBridge(store),
		tracker:      tracker,
		workspaceDir: workspaceDir,
		newDeployer:  deploy.New,
		runSmoke:     runSmokeBattery,
	}, nil
}

// runSmokeBattery is the production smoke-running path: generate the
// deterministic scenario battery from app and drive it against baseURL
// over real HTTP.
func runSmokeBattery(ctx context.Context, baseURL string, app ir.ApplicationIR) smoke.SmokeResult {
	gen := smoke.NewUUIDGenerator()
	scenarios := smoke.GenerateScenarios(app, gen)
	runner := smoke.NewRunner(baseURL, http.DefaultClient, 4)
	return runner.Run(ctx, scenarios)
}

// Close releases every resource New opened.
func (p *Pipeline) Close() error {
	p.tracker.Save()
	p.store.Close()
	p.cache.Close()
	p.engine.Close()
	return p.audit.Close()
}

// Run drives one application from a spec to a converged (or otherwise
// terminal) deployed state, implementing the top-level
// RepairOrchestrator loop verbatim:
//
//	for i in 0..max_iterations:
//	    smoke = SmokeRunner.run()
//	    record_iteration(i, smoke.pass_rate)
//	    if ConvergenceMonitor.repair_cycle_detected(history): return RepairCycleDetected
//	    if smoke.pass_rate >= target: return Converged(i, smoke)
//	    if ConvergenceMonitor.regressed(history): return Regressed
//	    if ConvergenceMonitor.stalled(history, eps): return Converged(i, smoke)
//	    learn_from(smoke)
//	    for v in smoke.violations:
//	        classify(v); attribute_cause(v); apply_strategy(v)
//	    realign_IR(mutations)
//	    if docker_rebuild_enabled: rebuild_container_no_cache()
//	return MaxIterationsExhausted
func (p *Pipeline) Run(ctx context.Context, appID, specText string) (Result, error) {
	ctx = context.WithValue(ctx, runInfoKey{}, usage.RunSlotInfo{RunID: appID, Stratum: "llm"})
	runCtx, cancel := scheduler.WithDeadline(ctx, scheduler.RepairCycleDeadline)
	defer cancel()

	lowerLog := logging.PhaseLogger(p.logger, appID, "lower")
	app, err := p.lowerer.Lower(runCtx, specText, ir.EnrichmentConfig{StrictMode: p.cfg.Execution.StrictMode})
	if err != nil {
		return Result{}, errkind.Wrap(errkind.Fatal, "pipeline.run", "lower spec", err)
	}
	app.AppID = appID
	lowerLog.Info("lowered", zap.Int("entities", len(app.Domain.Entities)), zap.Int("endpoints", len(app.API.Endpoints)))

	if err := icbr.BehaviorLowering(runCtx, p.engine, app.Behavior); err != nil {
		return Result{}, errkind.Wrap(errkind.Fatal, "pipeline.run", "behavior lowering", err)
	}

	emitLog := logging.PhaseLogger(p.logger, appID, "emit")
	em := emitter.New(p.llm, emitter.ForbiddenLiteralsFromDomain(app.Domain))
	tree, manifest, err := p.emitSourceTree(runCtx, em, app)
	if err != nil {
		return Result{}, errkind.Wrap(errkind.Fatal, "pipeline.run", "initial emission", err)
	}
	emitLog.Info("emitted", zap.Int("files", len(manifest.Files)), zap.Int("failed", len(manifest.Failed())))
	p.audit.Log(logging.AuditEvent{EventType: logging.AuditManifestWrite, AppID: appID, Target: "initial", Success: len(manifest.Failed()) == 0})

	deployer, err := p.newDeployer(app.Infrastructure, p.cfg.Execution.EnforceDockerRuntime)
	if err != nil {
		return Result{}, errkind.Wrap(errkind.Fatal, "pipeline.run", "select deployer", err)
	}

	monitor := convergence.New(p.cfg.Repair.TargetPassRate, p.cfg.Repair.ConvergenceEpsilon)
	delta := convergence.NewDeltaValidator()
	budget := repair.NewViolationBudget(p.cfg.Repair.PerViolationBudget)
	history := repair.NewMutationHistory()
	backprop := repair.NewIRBackpropagator()
	attributor := attribute.New(attribute.DefaultWeights(), nil)
	strategies := repair.Registry(
		repair.NewPatternReplayStrategy(p.store, violationSignature),
		repair.NewLLMFallback(p.llm),
	)

	var lastSmoke smoke.SmokeResult
	var escalated []EscalatedViolation
	repairLog := logging.PhaseLogger(p.logger, appID, "repair")

	for i := 0; i < p.cfg.Repair.MaxIterations; i++ {
		sourceDir := filepath.Join(p.workspaceDir, "generated")
		if err := writeSourceTree(sourceDir, tree); err != nil {
			return Result{}, errkind.Wrap(errkind.Fatal, "pipeline.run", "write source tree", err)
		}
		if err := deployer.Build(runCtx, sourceDir, i > 0 && p.cfg.Execution.DockerRebuildBetweenRepairs); err != nil {
			return Result{}, errkind.Wrap(errkind.IterationLocal, "pipeline.run", "deploy build", err)
		}
		baseURL, err := deployer.Up(runCtx)
		if err != nil {
			return Result{}, errkind.Wrap(errkind.IterationLocal, "pipeline.run", "deploy up", err)
		}

		result := p.runSmoke(runCtx, baseURL, app)
		delta.ObserveFullSmoke()
		lastSmoke = result
		deployer.Down(runCtx)

		monitor.Record(convergence.Iteration{Index: i, PassRate: result.PassRate, FixSignature: lastFixSignature(history, i)})
		repairLog.Info("smoke", zap.Int("iteration", i), zap.Float64("pass_rate", result.PassRate), zap.Int("violations", len(result.Violations)))
		p.audit.Log(logging.AuditEvent{EventType: logging.AuditRepairIteration, AppID: appID, Target: fmt.Sprintf("%d", i), Success: result.PassRate >= p.cfg.Repair.TargetPassRate})

		if sig, cycling := monitor.RepairCycleDetected(); cycling {
			repairLog.Warn("repair cycle detected", zap.String("signature", sig))
			return p.finish(app, manifest, tree, monitor, lastSmoke, escalated, StatusRepairCycleDetected, i), nil
		}
		if monitor.ReachedTarget() {
			return p.finish(app, manifest, tree, monitor, lastSmoke, escalated, StatusConverged, i), nil
		}
		if monitor.Regressed() {
			return p.finish(app, manifest, tree, monitor, lastSmoke, escalated, StatusRegressed, i), nil
		}
		if monitor.Stalled() {
			return p.finish(app, manifest, tree, monitor, lastSmoke, escalated, StatusConverged, i), nil
		}

		p.learnFrom(result)

		for _, v := range result.Violations {
			cv := toClassifyViolation(app, v)
			category := classify.Classify(cv)
			exceptionClass := learning.ExtractExceptionClass(v.StackTrace)
			key := repair.Key(v.Endpoint, string(category), exceptionClass)

			if !budget.Allow(key) {
				escalated = append(escalated, EscalatedViolation{Key: key, Violation: v})
				continue
			}

			historyScore := p.historyScoreFor(key)
			chain, aerr := attributor.Attribute(runCtx, cv, app, []string{v.StackTrace}, historyScore)
			if aerr != nil {
				repairLog.Warn("attribution failed", zap.String("endpoint", v.Endpoint), zap.Error(aerr))
				continue
			}

			strat := repair.Select(strategies, cv, chain)
			if strat == nil {
				continue
			}

			fix, perr := strat.ProposeFix(runCtx, cv, chain, tree)
			if perr != nil {
				repairLog.Warn("propose fix failed", zap.String("strategy", strat.Name()), zap.Error(perr))
				strat.RecordOutcome(fix, false)
				continue
			}
			newContent, aferr := strat.ApplyFix(runCtx, fix, tree)
			succeeded := aferr == nil
			if succeeded {
				tree[fix.FilePath] = newContent
				fix.Success = true
			}
			strat.RecordOutcome(fix, succeeded)
			history.Record(i+1, key, fix, strat.Name(), time.Now())
			p.audit.Log(logging.AuditEvent{EventType: logging.AuditMutationApplied, AppID: appID, Target: fix.FilePath, Success: succeeded})

			targetPath := fmt.Sprintf("endpoint.%s.%s", v.Endpoint, fix.FixType)
			app = backprop.RealignFromOutcome(app, i+1, targetPath, repair.Outcome{Strategy: strat.Name(), Fix: fix, Succeeded: succeeded})

			if succeeded {
				p.absorbLearning(v, category, exceptionClass, fix)
			}
		}
	}

	return p.finish(app, manifest, tree, monitor, lastSmoke, escalated, StatusMaxIterationsExhausted, p.cfg.Repair.MaxIterations), nil
}

func (p *Pipeline) learnFrom(result smoke.SmokeResult) {
	now := time.Now()
	for _, v := range result.Violations {
		ek := learning.ErrorKnowledge{
			EndpointNormalized: learning.NormalizeEndpoint(v.Endpoint),
			ErrorType:          v.ErrorType,
			ExceptionClass:     learning.ExtractExceptionClass(v.StackTrace),
			FirstSeen:          now,
			LastSeen:           now,
			OccurrenceCount:    1,
		}
		if err := p.store.RecordError(ek); err != nil {
			p.logger.Warn("learning: record error failed", zap.Error(err))
		}
	}
}

func (p *Pipeline) absorbLearning(v smoke.Violation, category classify.Category, exceptionClass string, fix repair.Fix) {
	ek := learning.ErrorKnowledge{
		EndpointNormalized: learning.NormalizeEndpoint(v.Endpoint),
		ErrorType:          string(category),
		ExceptionClass:     exceptionClass,
		FirstSeen:          time.Now(),
		LastSeen:           time.Now(),
		OccurrenceCount:    1,
	}
	if err := p.bridge.Absorb(ek, "", fix.NewContent); err != nil {
		p.logger.Warn("learning: bridge absorb failed", zap.Error(err))
	}
	if err := p.store.RecordFixOutcome(ek.Signature(), fix.FixType, fix.NewContent, fix.Success); err != nil {
		p.logger.Warn("learning: record fix outcome failed", zap.Error(err))
	}
}

func (p *Pipeline) historyScoreFor(signature string) float64 {
	pattern, ok, err := p.store.FixPatternFor(signature)
	if err != nil || !ok {
		return 0
	}
	return pattern.SuccessRate()
}

// finish runs the post-loop ComplianceValidator pass and quality gate,
// regardless of which terminal status the repair loop reached —
// compliance is always computed over the final emitted tree.
func (p *Pipeline) finish(app ir.ApplicationIR, manifest emitter.Manifest, tree SourceTree, monitor *convergence.Monitor, result smoke.SmokeResult, escalated []EscalatedViolation, status Status, iterations int) Result {
	validator := compliance.New()
	var code []compliance.Constraint
	for path, content := range tree {
		if emitter.Classify(path) != emitter.StratumAST {
			continue
		}
		code = append(code, compliance.ExtractORMConstraints(content)...)
		code = append(code, compliance.ExtractPydanticConstraints(content)...)
	}

	report := compliance.Report{}
	report.Semantic, report.Warnings = validator.Check(app, code, compliance.ViewSemantic)
	report.Relaxed, _ = validator.Check(app, code, compliance.ViewRelaxed)
	report.Strict, _ = validator.Check(app, code, compliance.ViewStrict)
	for _, r := range app.RepairHistory {
		report.Regressions = append(report.Regressions, r.TargetPath)
	}

	gate := compliance.Gate(p.cfg.Execution.QualityGateEnvironment, report, result.PassRate, len(escalated))
	p.audit.Log(logging.AuditEvent{EventType: logging.AuditComplianceResult, AppID: app.AppID, Target: string(gate.Status), Success: gate.Status == compliance.GatePassed})

	return Result{
		Status:     status,
		Iterations: iterations,
		FinalIR:    app,
		Manifest:   manifest,
		Smoke:      result,
		Trajectory: monitor.History(),
		Escalated:  escalated,
		Compliance: report,
		Gate:       gate,
		SourceTree: tree,
	}
}

func writeSourceTree(dir string, tree SourceTree) error {
	for _, path := range tree.Paths() {
		full := filepath.Join(dir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(tree[path]), 0644); err != nil {
			return err
		}
	}
	return nil
}

func violationSignature(v classify.Violation) string {
	return repair.Key(learning.NormalizeEndpoint(v.Endpoint), string(classify.Classify(v)), v.ExceptionClass)
}

func toClassifyViolation(app ir.ApplicationIR, v smoke.Violation) classify.Violation {
	_, routeDeclared := endpointByNormalizedPath(app, v.Endpoint)
	return classify.Violation{
		ExceptionClass:          learning.ExtractExceptionClass(v.StackTrace),
		HTTPStatus:              v.ActualStatus,
		Endpoint:                v.Endpoint,
		RouteDeclared:           routeDeclared,
		SchemaMatchesConstraint: v.ExpectedStatus == 422,
	}
}

func endpointByNormalizedPath(app ir.ApplicationIR, path string) (ir.Endpoint, bool) {
	normalized := learning.NormalizeEndpoint(path)
	for _, ep := range app.API.Endpoints {
		if learning.NormalizeEndpoint(ep.Path) == normalized {
			return ep, true
		}
	}
	return ir.Endpoint{}, false
}

func lastFixSignature(h *repair.MutationHistory, iteration int) string {
	entries := h.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Iteration == iteration {
			return entries[i].Strategy + ":" + entries[i].FilePath
		}
	}
	return ""
}
