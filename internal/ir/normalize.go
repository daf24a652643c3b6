package ir

import "strings"

// ActionVerbTranslations maps common non-English or synonymous action
// verbs to the canonical English vocabulary SpecLowering normalizes
// flow/endpoint names to. This is the hard contract's "translation
// table for common action verbs" — it eliminates downstream locale
// coupling so nothing past lowering ever branches on spec-language.
var ActionVerbTranslations = map[string]string{
	"crear":     "create",
	"creer":     "create",
	"erstellen": "create",
	"actualizar": "update",
	"mettre_a_jour": "update",
	"aktualisieren": "update",
	"eliminar":  "delete",
	"supprimer": "delete",
	"loeschen":  "delete",
	"listar":    "list",
	"lister":    "list",
	"obtener":   "get",
	"obtenir":   "get",
	"procesar":  "process",
	"cancelar":  "cancel",
	"annuler":   "cancel",
	"pagar":     "pay",
	"payer":     "pay",
}

// NormalizeActionVerb applies ActionVerbTranslations, falling back to
// the input lowercased when no translation applies.
func NormalizeActionVerb(verb string) string {
	lower := strings.ToLower(verb)
	if canon, ok := ActionVerbTranslations[lower]; ok {
		return canon
	}
	return lower
}

// ToSnakeCase canonicalizes a field identifier to ASCII snake_case.
// Idempotent: ToSnakeCase(ToSnakeCase(x)) == ToSnakeCase(x).
func ToSnakeCase(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '-':
			b.WriteByte('_')
			prevLower = false
		case r >= 'A' && r <= 'Z':
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = r >= 'a' && r <= 'z' || (r >= '0' && r <= '9')
		}
	}
	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_")
}

// ToPascalCase canonicalizes an entity identifier to ASCII PascalCase.
// Idempotent for the same reason as ToSnakeCase.
func ToPascalCase(s string) string {
	snake := ToSnakeCase(s)
	parts := strings.Split(snake, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// Normalize canonicalizes identifiers in an ApplicationIR in place and
// returns it: entity names and FK References become PascalCase, field
// names snake_case, endpoint Entity/ParentEntity PascalCase and
// ParentFKField snake_case, and flow names go through
// NormalizeActionVerb. Entity and field names referenced inside flows
// are left as given. It is idempotent: Normalize(Normalize(app))
// produces byte-identical output to Normalize(app).
func (app ApplicationIR) Normalize() ApplicationIR {
	for i, e := range app.Domain.Entities {
		app.Domain.Entities[i].Name = ToPascalCase(e.Name)
		for j, f := range e.Fields {
			app.Domain.Entities[i].Fields[j].Name = ToSnakeCase(f.Name)
			if f.IsForeignKey {
				app.Domain.Entities[i].Fields[j].References = ToPascalCase(f.References)
			}
		}
	}
	for i, ep := range app.API.Endpoints {
		app.API.Endpoints[i].Entity = ToPascalCase(ep.Entity)
		if ep.ParentEntity != "" {
			app.API.Endpoints[i].ParentEntity = ToPascalCase(ep.ParentEntity)
		}
		if ep.ParentFKField != "" {
			app.API.Endpoints[i].ParentFKField = ToSnakeCase(ep.ParentFKField)
		}
	}
	for i, f := range app.Behavior.Flows {
		app.Behavior.Flows[i].Name = NormalizeActionVerb(f.Name)
	}
	return app
}

// NormalizeConstraint canonicalizes a single FieldConstraint's value
// representation so that two equivalent constraints compare equal: it
// trims the value and each comma-separated enum member, and leaves case
// unchanged. It is idempotent by construction (trimming an already
// trimmed string is a no-op).
func NormalizeConstraint(c FieldConstraint) FieldConstraint {
	c.Value = strings.TrimSpace(c.Value)
	if c.Type == ConstraintEnum {
		parts := strings.Split(c.Value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		c.Value = strings.Join(parts, ",")
	}
	return c
}
