package smoke

import "cogc/internal/ir"

// Scenario is one TestsIR entry: a single deterministic HTTP call
// against the generated application, plus what the runner should check
// the response against.
type Scenario struct {
	Name           string
	FlowID         string // name of the Flow this scenario exercises, "" for pure CRUD scenarios
	Endpoint       ir.Endpoint
	Method         string
	Path           string // endpoint path with {param} placeholders substituted
	Payload        map[string]any
	ExpectedStatus int
	DependsOn      string // Name of a scenario that must pass first, "" if independent
	Mutating       bool   // true if this scenario writes to shared fixture state
}

// GenerateScenarios derives the full TestsIR battery from app
// deterministically: one happy-path and one validation-error scenario
// per endpoint, plus one end-to-end scenario per flow.
func GenerateScenarios(app ir.ApplicationIR, gen *UUIDGenerator) []Scenario {
	var scenarios []Scenario
	for _, ep := range app.API.Endpoints {
		scenarios = append(scenarios, endpointScenarios(app, ep, gen)...)
	}
	for _, flow := range app.Behavior.Flows {
		scenarios = append(scenarios, flowScenario(app, flow, gen))
	}
	return scenarios
}

func endpointScenarios(app ir.ApplicationIR, ep ir.Endpoint, gen *UUIDGenerator) []Scenario {
	entity, ok := app.Domain.EntityByName(ep.Entity)
	if !ok {
		return nil
	}

	path := substitutePathParams(ep, gen)
	happy := Scenario{
		Name:           ep.OperationID + "_happy_path",
		Endpoint:       ep,
		Method:         string(ep.Method),
		Path:           path,
		ExpectedStatus: happyStatusFor(ep.Method),
		Mutating:       ep.Method != ir.MethodGet,
	}
	if ep.Method == ir.MethodPost || ep.Method == ir.MethodPut || ep.Method == ir.MethodPatch {
		happy.Payload = SynthesizeValid(entity, gen)
	}
	// A nested endpoint's parent row is already in place: the seed-DB
	// emitter inserts one fixture row per entity, keyed by this same
	// generator, before the container accepts any request. No DependsOn
	// is needed for the row to exist by the time this scenario runs.

	scenarios := []Scenario{happy}

	if ep.RequestSchema != "" {
		invalidPayload, _ := SynthesizeInvalid(entity, gen)
		scenarios = append(scenarios, Scenario{
			Name:           ep.OperationID + "_validation_error",
			Endpoint:       ep,
			Method:         string(ep.Method),
			Path:           path,
			Payload:        invalidPayload,
			ExpectedStatus: 422,
			DependsOn:      happy.Name,
		})
	}
	return scenarios
}

func happyStatusFor(m ir.HTTPMethod) int {
	switch m {
	case ir.MethodPost:
		return 201
	case ir.MethodDelete:
		return 204
	default:
		return 200
	}
}

func substitutePathParams(ep ir.Endpoint, gen *UUIDGenerator) string {
	path := ep.Path
	for _, p := range ep.PathParams {
		entity := ep.Entity
		if ep.IsNested() && p != "id" {
			entity = ep.ParentEntity
		}
		id := gen.At(entity, 0)
		path = replaceParam(path, p, id.String())
	}
	return path
}

func replaceParam(path, param, value string) string {
	token := "{" + param + "}"
	out := make([]byte, 0, len(path))
	for i := 0; i < len(path); {
		if i+len(token) <= len(path) && path[i:i+len(token)] == token {
			out = append(out, value...)
			i += len(token)
			continue
		}
		out = append(out, path[i])
		i++
	}
	return string(out)
}

// flowScenario derives the single end-to-end scenario a Flow produces:
// a call to whichever endpoint names this flow as its operation, or a
// synthetic direct invocation if no endpoint maps to it 1:1.
func flowScenario(app ir.ApplicationIR, flow ir.Flow, gen *UUIDGenerator) Scenario {
	for _, ep := range app.API.Endpoints {
		if ep.OperationID == flow.Name {
			path := substitutePathParams(ep, gen)
			s := Scenario{
				Name:           "flow_" + flow.Name,
				FlowID:         flow.Name,
				Endpoint:       ep,
				Method:         string(ep.Method),
				Path:           path,
				ExpectedStatus: happyStatusFor(ep.Method),
				Mutating:       true,
			}
			if entity, ok := app.Domain.EntityByName(ep.Entity); ok {
				s.Payload = SynthesizeValid(entity, gen)
			}
			return s
		}
	}
	return Scenario{Name: "flow_" + flow.Name, FlowID: flow.Name, ExpectedStatus: 200}
}
