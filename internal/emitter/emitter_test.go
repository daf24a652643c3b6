package emitter_test

import (
	"testing"

	"cogc/internal/emitter"
	"cogc/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDeterministicTable(t *testing.T) {
	assert.Equal(t, emitter.StratumTemplate, emitter.Classify("Dockerfile"))
	assert.Equal(t, emitter.StratumAST, emitter.Classify("src/models/entities.py"))
	assert.Equal(t, emitter.StratumAST, emitter.Classify("src/repositories/widget_repository.py"))
	assert.Equal(t, emitter.StratumLLM, emitter.Classify("src/services/widget_service.py"))
}

func TestTemplateProtectedPathsRejectASTAndLLM(t *testing.T) {
	assert.True(t, emitter.IsTemplateProtected("docker-compose.yml"))
	assert.True(t, emitter.IsTemplateProtected("src/core/config.py"))
	assert.False(t, emitter.IsTemplateProtected("src/services/widget_service.py"))
}

func TestEmitMigrationColumnMapsSemanticTypes(t *testing.T) {
	field := ir.Field{Name: "sku", Type: ir.TypeString, Nullable: false,
		Constraints: []ir.FieldConstraint{{Type: ir.ConstraintUniqueness}}}
	out := emitter.EmitMigrationColumn(field)
	assert.Contains(t, out, "sku = Column(String")
	assert.Contains(t, out, "nullable=False")
	assert.Contains(t, out, "unique=True")
}

func TestEmitMigrationColumnForeignKey(t *testing.T) {
	field := ir.Field{Name: "order_id", Type: ir.TypeUUID, IsForeignKey: true, References: "Order"}
	out := emitter.EmitMigrationColumn(field)
	assert.Contains(t, out, `ForeignKey("order.id")`)
}

func TestEmitPydanticFieldUpdateKindIsOptional(t *testing.T) {
	field := ir.Field{Name: "name", Type: ir.TypeString,
		Constraints: []ir.FieldConstraint{{Type: ir.ConstraintLengthMin, Value: "1"}}}
	out := emitter.EmitPydanticField(field, emitter.SchemaUpdate)
	assert.Contains(t, out, "Optional[str]")
	assert.Contains(t, out, "None")
}

func TestEmitPydanticFieldCreateKindRequiresValue(t *testing.T) {
	field := ir.Field{Name: "price", Type: ir.TypeDecimal,
		Constraints: []ir.FieldConstraint{{Type: ir.ConstraintRangeMin, Value: "0"}}}
	out := emitter.EmitPydanticField(field, emitter.SchemaCreate)
	assert.Contains(t, out, "ge=0")
	assert.Contains(t, out, "...")
}

func TestEmitRepositoryMethodCoversAllOps(t *testing.T) {
	for _, op := range []emitter.RepositoryOp{emitter.OpList, emitter.OpGet, emitter.OpCreate, emitter.OpUpdate, emitter.OpDelete} {
		out := emitter.EmitRepositoryMethod("Widget", op)
		assert.NotEmpty(t, out)
	}
}

func TestEmitNestedDeleteChecksForeignKey(t *testing.T) {
	out := emitter.EmitNestedDelete(ir.Endpoint{}, "Order", "LineItem", "order_id")
	assert.Contains(t, out, "row.order_id != order_id")
	assert.Contains(t, out, "delete_lineitem")
}

func TestEmitConversionFlowCopiesFieldMappings(t *testing.T) {
	mappings := []ir.FieldMapping{{SourceField: "total", TargetField: "amount_due"}}
	out := emitter.EmitConversionFlow(ir.Flow{Name: "convert_quote_to_invoice"}, "Quote", "Invoice", mappings)
	assert.Contains(t, out, "amount_due=source.total")
	assert.Contains(t, out, "convert_quote_to_invoice")
}

func TestFindSlotsParsesPairedMarkers(t *testing.T) {
	src := "def handler():\n    # LLM_SLOT:start:body\n    # LLM_SLOT:end:body\n    pass\n"
	slots, err := emitter.FindSlots(src)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "body", slots[0].Name)
}

func TestFindSlotsUnmatchedStartIsError(t *testing.T) {
	src := "# LLM_SLOT:start:body\npass\n"
	_, err := emitter.FindSlots(src)
	assert.Error(t, err)
}

func TestValidateSlotFillRejectsImports(t *testing.T) {
	err := emitter.ValidateSlotFill("import os\nreturn 1", emitter.SlotConstraint{ForbidImports: true})
	assert.Error(t, err)
}

func TestValidateSlotFillRejectsMissingReturn(t *testing.T) {
	err := emitter.ValidateSlotFill("x = 1", emitter.SlotConstraint{MustEndWithReturn: true})
	assert.Error(t, err)
}

func TestFillFallsBackAfterTwoFailedAttempts(t *testing.T) {
	s := emitter.Slot{Name: "s", Constraint: emitter.SlotConstraint{MustEndWithReturn: true}}
	calls := 0
	body, err := emitter.Fill(s, func(emitter.Slot) (string, error) {
		calls++
		return "no return here", nil
	}, "return None")
	require.NoError(t, err)
	assert.Equal(t, "return None", body)
	assert.Equal(t, 2, calls)
}

func TestEmitTemplateFileRejectsNonTemplatePath(t *testing.T) {
	e := emitter.New(nil, nil)
	m := &emitter.Manifest{}
	err := e.EmitTemplateFile(m, emitter.TemplateFile{Path: "src/services/widget_service.py", Content: "x"})
	assert.Error(t, err)
}

func TestEmitASTFileRejectsTemplateProtectedPath(t *testing.T) {
	e := emitter.New(nil, nil)
	m := &emitter.Manifest{}
	_, err := e.EmitASTFile(m, "src/core/config.py", "ast:x", "content", nil)
	assert.Error(t, err)
	require.Len(t, m.Files, 1)
	assert.Equal(t, emitter.ValidationTemplateGuard, m.Files[0].Status)
}

func TestForbiddenLiteralsFromDomainListsAllNames(t *testing.T) {
	dom := ir.Domain{Entities: []ir.Entity{{Name: "Widget", Fields: []ir.Field{{Name: "sku"}}}}}
	lits := emitter.ForbiddenLiteralsFromDomain(dom)
	assert.Contains(t, lits, "Widget")
	assert.Contains(t, lits, "sku")
}

func TestManifestCountByStratum(t *testing.T) {
	m := &emitter.Manifest{}
	m.Add(emitter.FileRecord{Stratum: emitter.StratumAST, Status: emitter.ValidationOK})
	m.Add(emitter.FileRecord{Stratum: emitter.StratumAST, Status: emitter.ValidationOK})
	m.Add(emitter.FileRecord{Stratum: emitter.StratumLLM, Status: emitter.ValidationSlotFallback})
	counts := m.CountByStratum()
	assert.Equal(t, 2, counts[emitter.StratumAST])
	require.Len(t, m.Failed(), 1)
}
