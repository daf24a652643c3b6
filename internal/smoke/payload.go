package smoke

import (
	"strconv"
	"strings"

	"cogc/internal/ir"
)

// SynthesizeValid produces one JSON-able value map for entity's
// non-FK Create-schema fields: numeric fields with a range_min pick
// min+1, enums pick the first allowed value, UUIDs are generated,
// emails follow a canonical template, and strings are a fixed sample
// padded to length_min. range_max, length_max and pattern constraints
// are not consulted, so a value may violate one of them.
func SynthesizeValid(e ir.Entity, gen *UUIDGenerator) map[string]any {
	payload := make(map[string]any, len(e.Fields))
	for _, f := range e.Fields {
		if f.IsForeignKey {
			continue // FK params are substituted from fixtures by the caller, not synthesized here
		}
		payload[f.Name] = synthesizeField(f, gen)
	}
	return payload
}

// SynthesizeInvalid mutates a valid payload for entity so exactly one
// constrained field violates its FieldConstraint, producing the
// validation-error scenario's body.
func SynthesizeInvalid(e ir.Entity, gen *UUIDGenerator) (map[string]any, string) {
	payload := SynthesizeValid(e, gen)
	for _, f := range e.Fields {
		for _, c := range f.Constraints {
			switch c.Type {
			case ir.ConstraintRangeMin:
				min, _ := strconv.ParseFloat(c.Value, 64)
				payload[f.Name] = min - 1
				return payload, f.Name
			case ir.ConstraintLengthMin:
				payload[f.Name] = ""
				return payload, f.Name
			case ir.ConstraintPresence:
				delete(payload, f.Name)
				return payload, f.Name
			case ir.ConstraintFormatEmail:
				payload[f.Name] = "not-an-email"
				return payload, f.Name
			}
		}
	}
	return payload, ""
}

func synthesizeField(f ir.Field, gen *UUIDGenerator) any {
	for _, c := range f.Constraints {
		switch c.Type {
		case ir.ConstraintEnum:
			values := strings.Split(c.Value, ",")
			if len(values) > 0 {
				return strings.TrimSpace(values[0])
			}
		case ir.ConstraintRangeMin:
			min, err := strconv.ParseFloat(c.Value, 64)
			if err == nil {
				if f.Type == ir.TypeInt {
					return int(min) + 1
				}
				return min + 1
			}
		case ir.ConstraintFormatEmail:
			return "smoke.fixture@example.com"
		}
	}

	switch f.Type {
	case ir.TypeUUID:
		return gen.Next(f.Name).String()
	case ir.TypeString:
		return validString(f)
	case ir.TypeInt:
		return 1
	case ir.TypeDecimal:
		return 1.0
	case ir.TypeBool:
		return true
	case ir.TypeDatetime:
		return "2026-01-01T00:00:00Z"
	case ir.TypeEnum:
		if len(f.EnumValues) > 0 {
			return f.EnumValues[0]
		}
		return ""
	default:
		return nil
	}
}

// validString returns a fixed sample string, padded to f's length_min
// constraint if it has one; length_max and pattern are not consulted.
func validString(f ir.Field) string {
	minLen := 0
	for _, c := range f.Constraints {
		if c.Type == ir.ConstraintLengthMin {
			if n, err := strconv.Atoi(c.Value); err == nil {
				minLen = n
			}
		}
	}
	base := "smoke-sample"
	if len(base) < minLen {
		base = base + strings.Repeat("x", minLen-len(base))
	}
	return base
}
