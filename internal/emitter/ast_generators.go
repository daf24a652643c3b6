package emitter

import (
	"fmt"
	"strings"

	"cogc/internal/ir"
)

// columnTypeTable maps a Field's normalized SemanticType to the
// SQLAlchemy column type the AST stratum emits. Kept as a table, not a
// switch on field or entity name, so emit_migration_column stays a
// pure function of Field.
var columnTypeTable = map[ir.SemanticType]string{
	ir.TypeUUID:     "UUID(as_uuid=True)",
	ir.TypeString:   "String",
	ir.TypeInt:      "Integer",
	ir.TypeDecimal:  "Numeric(12, 2)",
	ir.TypeBool:     "Boolean",
	ir.TypeDatetime: "DateTime(timezone=True)",
	ir.TypeEnum:     "String",
}

// EmitMigrationColumn renders one SQLAlchemy Column(...) declaration
// for field — the AST stratum's emit_migration_column(field) contract.
func EmitMigrationColumn(field ir.Field) string {
	colType, ok := columnTypeTable[field.Type]
	if !ok {
		colType = "String"
	}
	var opts []string
	if field.IsForeignKey {
		opts = append(opts, fmt.Sprintf(`ForeignKey("%s.id")`, strings.ToLower(field.References)))
	}
	if !field.Nullable {
		opts = append(opts, "nullable=False")
	}
	for _, c := range field.Constraints {
		if c.Type == ir.ConstraintUniqueness {
			opts = append(opts, "unique=True")
		}
	}
	if field.Default != nil {
		if field.Default.IsSQLExpression {
			opts = append(opts, fmt.Sprintf(`server_default=text("%s")`, field.Default.Value))
		} else {
			opts = append(opts, fmt.Sprintf("default=%s", field.Default.Value))
		}
	}
	line := fmt.Sprintf("%s = Column(%s", field.Name, colType)
	for _, o := range opts {
		line += ", " + o
	}
	return line + ")"
}

// SchemaKind selects the nullability rule EmitPydanticField applies to
// a Pydantic schema — Create makes every field required, Update treats
// every field as optional, Read echoes storage nullability as-is.
type SchemaKind string

const (
	SchemaCreate SchemaKind = "create"
	SchemaUpdate SchemaKind = "update"
	SchemaRead   SchemaKind = "read"
)

// pydanticTypeTable maps SemanticType to the Python/Pydantic type
// annotation the AST stratum emits.
var pydanticTypeTable = map[ir.SemanticType]string{
	ir.TypeUUID:     "UUID",
	ir.TypeString:   "str",
	ir.TypeInt:      "int",
	ir.TypeDecimal:  "Decimal",
	ir.TypeBool:     "bool",
	ir.TypeDatetime: "datetime",
	ir.TypeEnum:     "str",
}

// EmitPydanticField renders one field: type[= default] line for a
// Pydantic schema class — the AST stratum's
// emit_pydantic_field(field, schema_kind) contract.
func EmitPydanticField(field ir.Field, kind SchemaKind) string {
	pyType, ok := pydanticTypeTable[field.Type]
	if !ok {
		pyType = "str"
	}
	var kwargs []string
	for _, c := range field.Constraints {
		switch c.Type {
		case ir.ConstraintLengthMin:
			kwargs = append(kwargs, "min_length="+c.Value)
		case ir.ConstraintLengthMax:
			kwargs = append(kwargs, "max_length="+c.Value)
		case ir.ConstraintRangeMin:
			kwargs = append(kwargs, "ge="+c.Value)
		case ir.ConstraintRangeMax:
			kwargs = append(kwargs, "le="+c.Value)
		case ir.ConstraintPattern:
			kwargs = append(kwargs, fmt.Sprintf(`pattern=r"%s"`, c.Value))
		}
	}

	optional := kind == SchemaUpdate || (field.Nullable && kind == SchemaRead)
	typeExpr := pyType
	if optional {
		typeExpr = "Optional[" + pyType + "]"
	}

	if len(kwargs) == 0 {
		if optional {
			return fmt.Sprintf("    %s: %s = None", field.Name, typeExpr)
		}
		return fmt.Sprintf("    %s: %s", field.Name, typeExpr)
	}
	def := "..."
	if optional {
		def = "None"
	}
	return fmt.Sprintf("    %s: %s = Field(%s, %s)", field.Name, typeExpr, def, strings.Join(kwargs, ", "))
}

// RepositoryOp is the closed set of repository methods
// emit_repository_method knows how to render.
type RepositoryOp string

const (
	OpList   RepositoryOp = "list"
	OpGet    RepositoryOp = "get"
	OpCreate RepositoryOp = "create"
	OpUpdate RepositoryOp = "update"
	OpDelete RepositoryOp = "delete"
)

// EmitRepositoryMethod renders one CRUD method body for entity under
// op — the AST stratum's emit_repository_method(entity, op) contract.
// Output is deterministic template text, not LLM-authored, per the
// StratifiedEmitter's AST-stratum determinism guarantee.
func EmitRepositoryMethod(entity string, op RepositoryOp) string {
	lower := strings.ToLower(entity)
	switch op {
	case OpList:
		return fmt.Sprintf(`    async def list(self, db: AsyncSession) -> list[%s]:
        result = await db.execute(select(%s))
        return list(result.scalars().all())`, entity, entity)
	case OpGet:
		return fmt.Sprintf(`    async def get(self, db: AsyncSession, %s_id: UUID) -> %s | None:
        return await db.get(%s, %s_id)`, lower, entity, entity, lower)
	case OpCreate:
		return fmt.Sprintf(`    async def create(self, db: AsyncSession, data: %sCreate) -> %s:
        row = %s(**data.model_dump())
        db.add(row)
        await db.flush()
        return row`, entity, entity, entity)
	case OpUpdate:
		return fmt.Sprintf(`    async def update(self, db: AsyncSession, row: %s, data: %sUpdate) -> %s:
        for field, value in data.model_dump(exclude_unset=True).items():
            setattr(row, field, value)
        await db.flush()
        return row`, entity, entity, entity)
	case OpDelete:
		return fmt.Sprintf(`    async def delete(self, db: AsyncSession, row: %s) -> None:
        await db.delete(row)
        await db.flush()`, entity)
	default:
		return fmt.Sprintf("    # unknown repository op %q for %s", op, entity)
	}
}

// EmitNestedDelete renders the service-layer cascade method for a
// nested-delete endpoint — the AST stratum's
// emit_nested_delete(endpoint, parent, child, fk_field) contract. It
// loads the child, raises NotFoundError unless the child exists and its
// fk_field equals the parent id, then deletes the child — the same shape StratifiedEmitter must produce
// whether the nesting was declared explicitly or inferred by
// IREnricher.
func EmitNestedDelete(endpoint ir.Endpoint, parent, child, fkField string) string {
	lp, lc := strings.ToLower(parent), strings.ToLower(child)
	return fmt.Sprintf(`    async def delete_%s(self, db: AsyncSession, %s_id: UUID, %s_id: UUID) -> None:
        row = await db.get(%s, %s_id)
        if row is None or row.%s != %s_id:
            raise NotFoundError("%s not found under %s")
        await db.delete(row)
        await db.flush()`, lc, lp, lc, child, lc, fkField, lp, child, parent)
}

// EmitCreateChild renders the service-layer method that creates a
// child row nested under a parent and stamps its foreign key — the
// AST stratum's emit_create_child(flow, parent, child, fk_field) contract.
func EmitCreateChild(flow ir.Flow, parent, child, fkField string) string {
	lp, lc := strings.ToLower(parent), strings.ToLower(child)
	return fmt.Sprintf(`    async def create_%s(self, db: AsyncSession, %s_id: UUID, data: %sCreate) -> %s:
        row = %s(**data.model_dump(), %s=%s_id)
        db.add(row)
        await db.flush()
        return row`, lc, lp, child, child, child, fkField, lp)
}

// EmitConversionFlow renders the service-layer method that copies
// field_mappings from a source entity instance to a newly created
// target entity instance — the AST stratum's
// emit_conversion_flow(flow, source, target, field_mappings) contract.
func EmitConversionFlow(flow ir.Flow, source, target string, mappings []ir.FieldMapping) string {
	ls := strings.ToLower(source)
	var assigns strings.Builder
	for _, m := range mappings {
		fmt.Fprintf(&assigns, "\n            %s=source.%s,", m.TargetField, m.SourceField)
	}
	return fmt.Sprintf(`    async def %s(self, db: AsyncSession, %s_id: UUID) -> %s:
        source = await db.get(%s, %s_id)
        if source is None:
            raise NotFoundError("%s not found")
        row = %s(%s
        )
        db.add(row)
        await db.flush()
        return row`, flow.Name, ls, target, source, ls, source, target, assigns.String())
}
