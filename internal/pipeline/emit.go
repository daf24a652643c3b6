package pipeline

import (
	"context"
	"fmt"
	"strings"

	"cogc/internal/config"
	"cogc/internal/emitter"
	"cogc/internal/ir"
	"cogc/internal/smoke"
)

// emitSourceTree drives one full emission pass over app: every entity
// gets a migration file (AST stratum, emit_migration_column) and a
// schema file (AST stratum, emit_pydantic_field for Create/Update/Read
// views), every endpoint gets a repository method and, for nested
// DELETE endpoints, a nested-delete guard; every flow gets a service
// body filled through the LLM stratum (src/services/ is LLM-stratum by
// classification) with a deterministic non-LLM fallback, plus
// AST-stratum create-child and conversion-flow files when the flow
// creates an entity or maps fields. Static infrastructure (Dockerfile, compose, health route,
// core config) is emitted once as template-stratum skeleton, and the
// seed fixture script that backs the smoke battery's foreign-key-
// dependent scenarios is emitted from the same deterministic
// UUIDGenerator those scenarios substitute their path params from.
func (p *Pipeline) emitSourceTree(ctx context.Context, em *emitter.Emitter, app ir.ApplicationIR) (SourceTree, emitter.Manifest, error) {
	tree := SourceTree{}
	var manifest emitter.Manifest

	for _, tf := range staticTemplateFiles(app) {
		if err := em.EmitTemplateFile(&manifest, tf); err != nil {
			return nil, manifest, fmt.Errorf("pipeline: emit template %s: %w", tf.Path, err)
		}
		tree[tf.Path] = tf.Content
	}

	for _, e := range app.Domain.Entities {
		if err := emitMigration(em, &manifest, tree, e); err != nil {
			return nil, manifest, err
		}
		if err := emitSchema(em, &manifest, tree, e); err != nil {
			return nil, manifest, err
		}
	}

	if err := emitSeedFixtures(em, &manifest, tree, app); err != nil {
		return nil, manifest, err
	}

	for _, ep := range app.API.Endpoints {
		if err := emitRepository(em, &manifest, tree, ep); err != nil {
			return nil, manifest, err
		}
		if ep.IsNested() && ep.Method == ir.MethodDelete {
			path := fmt.Sprintf("src/routes/%s_nested_delete.py", snake(ep.Entity))
			content, err := em.EmitASTFile(&manifest, path, "ast:emit_nested_delete",
				emitter.EmitNestedDelete(ep, ep.ParentEntity, ep.Entity, ep.ParentFKField),
				[]string{emitter.EndpointAtomID(ep)})
			if err != nil {
				return nil, manifest, err
			}
			tree[path] = content
		}
	}

	safeMode := p.cfg.Execution.Mode == config.ModeSafe
	for _, flow := range app.Behavior.Flows {
		if err := emitFlow(ctx, em, &manifest, tree, app, flow, safeMode); err != nil {
			return nil, manifest, err
		}
	}

	return tree, manifest, nil
}

func emitMigration(em *emitter.Emitter, m *emitter.Manifest, tree SourceTree, e ir.Entity) error {
	path := fmt.Sprintf("migrations/%s.py", snake(e.Name))
	var body string
	var atomIDs []string
	for _, f := range e.Fields {
		body += emitter.EmitMigrationColumn(f) + "\n"
		atomIDs = append(atomIDs, emitter.FieldAtomID(e.Name, f))
	}
	content, err := em.EmitASTFile(m, path, "ast:emit_migration_column", body, atomIDs)
	if err != nil {
		return fmt.Errorf("pipeline: emit migration for %s: %w", e.Name, err)
	}
	tree[path] = content
	return nil
}

func emitSchema(em *emitter.Emitter, m *emitter.Manifest, tree SourceTree, e ir.Entity) error {
	path := fmt.Sprintf("src/models/schemas.%s.py", snake(e.Name))
	var body string
	var atomIDs []string
	for _, kind := range []emitter.SchemaKind{emitter.SchemaCreate, emitter.SchemaUpdate, emitter.SchemaRead} {
		for _, f := range e.Fields {
			body += emitter.EmitPydanticField(f, kind) + "\n"
			atomIDs = append(atomIDs, emitter.FieldAtomID(e.Name, f))
		}
	}
	content, err := em.EmitASTFile(m, path, "ast:emit_pydantic_field", body, atomIDs)
	if err != nil {
		return fmt.Errorf("pipeline: emit schema for %s: %w", e.Name, err)
	}
	tree[path] = content
	return nil
}

func emitRepository(em *emitter.Emitter, m *emitter.Manifest, tree SourceTree, ep ir.Endpoint) error {
	path := fmt.Sprintf("src/repositories/%s_repository.py", snake(ep.Entity))
	op := repositoryOpFor(ep.Method)
	content, err := em.EmitASTFile(m, path, "ast:emit_repository_method",
		emitter.EmitRepositoryMethod(ep.Entity, op), []string{emitter.EndpointAtomID(ep)})
	if err != nil {
		return fmt.Errorf("pipeline: emit repository for %s: %w", ep.OperationID, err)
	}
	// Multiple endpoints target the same entity's repository file;
	// later methods are appended rather than overwriting earlier ones.
	tree[path] += content + "\n"
	return nil
}

func emitFlow(ctx context.Context, em *emitter.Emitter, m *emitter.Manifest, tree SourceTree, app ir.ApplicationIR, flow ir.Flow, safeMode bool) error {
	path := fmt.Sprintf("src/services/%s_service.py", snake(flow.Name))

	if flow.CreatesEntity != "" {
		// The created entity's parent foreign key field is the field on
		// CreatesEntity that references SourceEntity.
		fkField := ""
		if created, ok := app.Domain.EntityByName(flow.CreatesEntity); ok {
			for _, f := range created.Fields {
				if f.IsForeignKey && f.References == flow.SourceEntity {
					fkField = f.Name
					break
				}
			}
		}
		content, err := em.EmitASTFile(m,
			fmt.Sprintf("src/services/%s_create_child.py", snake(flow.Name)),
			"ast:emit_create_child",
			emitter.EmitCreateChild(flow, flow.SourceEntity, flow.CreatesEntity, fkField),
			[]string{emitter.FlowAtomID(flow)})
		if err != nil {
			return fmt.Errorf("pipeline: emit create-child for %s: %w", flow.Name, err)
		}
		tree[fmt.Sprintf("src/services/%s_create_child.py", snake(flow.Name))] = content
	}

	if len(flow.FieldMappings) > 0 {
		content, err := em.EmitASTFile(m,
			fmt.Sprintf("src/services/%s_conversion.py", snake(flow.Name)),
			"ast:emit_conversion_flow",
			emitter.EmitConversionFlow(flow, flow.SourceEntity, flow.TargetEntity, flow.FieldMappings),
			[]string{emitter.FlowAtomID(flow)})
		if err != nil {
			return fmt.Errorf("pipeline: emit conversion for %s: %w", flow.Name, err)
		}
		tree[fmt.Sprintf("src/services/%s_conversion.py", snake(flow.Name))] = content
	}

	slots, err := emitter.FindSlots(flowServiceSkeleton(flow))
	if err != nil {
		return fmt.Errorf("pipeline: flow %s skeleton slots: %w", flow.Name, err)
	}
	body := flowServiceSkeleton(flow)
	for _, s := range slots {
		fallback := deterministicFlowFallback(flow)
		if safeMode {
			// ModeSafe never calls the LLM stratum: output must be
			// byte-identical across runs for a fixed IR.
			body = s.Before + fallback + s.After
			continue
		}
		filled, ferr := em.EmitLLMSlot(ctx, m, path, s,
			"Generate the business-logic body for one service method implementing the described flow. Return only the method body.",
			flowPromptFor(flow), fallback, []string{emitter.FlowAtomID(flow)})
		if ferr != nil && filled == "" {
			filled = fallback
		}
		body = s.Before + filled + s.After
	}
	tree[path] = body
	return nil
}

// emitSeedFixtures emits scripts/seed_fixtures.py, one INSERT per
// entity in dependency order, rows keyed by a fresh UUIDGenerator. A
// fresh generator is used rather than threading the one runSmokeBattery
// builds because both are seeded from the same fixed namespace and
// walk entities/fields in the same deterministic order: the two never
// need to be the same Go value to produce the same ids, only to be
// constructed and driven identically, which GenerateFixtures and
// GenerateScenarios both do.
func emitSeedFixtures(em *emitter.Emitter, m *emitter.Manifest, tree SourceTree, app ir.ApplicationIR) error {
	rows := smoke.GenerateFixtures(app.Domain, smoke.NewUUIDGenerator())
	if len(rows) == 0 {
		return nil
	}
	path := "scripts/seed_fixtures.py"
	content := renderSeedScript(rows)
	if err := em.EmitTemplateFile(m, emitter.TemplateFile{Path: path, Content: content}); err != nil {
		return fmt.Errorf("pipeline: emit seed fixtures: %w", err)
	}
	tree[path] = content
	return nil
}

// renderSeedScript writes one raw-SQL INSERT per FixtureRow, run from a
// standalone asyncio script against the same database the application
// connects to. Table names follow the lowercase-entity-name convention
// EmitMigrationColumn's ForeignKey targets already assume.
func renderSeedScript(rows []smoke.FixtureRow) string {
	var b strings.Builder
	b.WriteString("# Generated by the compiler's seed-DB emitter: one row per entity,\n")
	b.WriteString("# in foreign-key dependency order, with ids matching the smoke battery's\n")
	b.WriteString("# deterministic UUIDGenerator so fixture rows and scenario requests\n")
	b.WriteString("# name the same resource.\n")
	b.WriteString("import asyncio\n\n")
	b.WriteString("from sqlalchemy import text\n\n")
	b.WriteString("from src.core.db import AsyncSession, engine\n\n\n")
	b.WriteString("STATEMENTS = [\n")
	for _, row := range rows {
		table := strings.ToLower(row.Entity)
		cols := make([]string, len(row.Fields))
		params := make([]string, len(row.Fields))
		pairs := make([]string, len(row.Fields))
		for i, f := range row.Fields {
			cols[i] = f.Name
			params[i] = ":" + f.Name
			pairs[i] = fmt.Sprintf("%q: %s", f.Name, pyLiteral(f.Value))
		}
		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(params, ", "))
		fmt.Fprintf(&b, "    (%q, {%s}),\n", stmt, strings.Join(pairs, ", "))
	}
	b.WriteString("]\n\n\n")
	b.WriteString("async def seed() -> None:\n")
	b.WriteString("    async with AsyncSession(engine) as db:\n")
	b.WriteString("        for statement, params in STATEMENTS:\n")
	b.WriteString("            await db.execute(text(statement), params)\n")
	b.WriteString("        await db.commit()\n\n\n")
	b.WriteString("if __name__ == \"__main__\":\n")
	b.WriteString("    asyncio.run(seed())\n")
	return b.String()
}

// pyLiteral renders a fixture value as a Python literal: bool and
// numeric values unquoted, everything else (ids, strings, datetimes)
// as a quoted string.
func pyLiteral(v any) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "True"
		}
		return "False"
	case int:
		return fmt.Sprintf("%d", t)
	case float64:
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%q", fmt.Sprintf("%v", t))
	}
}

func repositoryOpFor(method ir.HTTPMethod) emitter.RepositoryOp {
	switch method {
	case ir.MethodGet:
		return emitter.OpGet
	case ir.MethodPost:
		return emitter.OpCreate
	case ir.MethodPut, ir.MethodPatch:
		return emitter.OpUpdate
	case ir.MethodDelete:
		return emitter.OpDelete
	default:
		return emitter.OpList
	}
}
