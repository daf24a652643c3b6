package icbr

import (
	"context"
	"fmt"
	"sort"

	"cogc/internal/ir"
)

// BehaviorLowering derives ICBR from an ApplicationIR's BehaviorModel:
// it asserts one fact per guard, precondition, postcondition, and step
// of every flow, then lets the engine's fixpoint evaluator compute
// atomic_op/guarded_op/reaches_state/terminal_state from the rules in
// Schema. Flow order is preserved in the Index column of flow_step so
// the derivation is deterministic and re-derivable: the same Behavior
// always produces byte-identical facts.
func BehaviorLowering(ctx context.Context, e *Engine, b ir.Behavior) error {
	if err := e.LoadSchemaString(Schema); err != nil {
		return fmt.Errorf("icbr: loading schema: %w", err)
	}
	var facts []Fact
	for _, flow := range b.Flows {
		facts = append(facts, flowFacts(flow)...)
	}
	if err := e.AddFactsContext(ctx, facts); err != nil {
		return fmt.Errorf("icbr: lowering behavior: %w", err)
	}
	return nil
}

func flowFacts(flow ir.Flow) []Fact {
	var facts []Fact
	for _, g := range flow.Guards {
		facts = append(facts, Fact{
			Predicate: "flow_guard",
			Args:      []interface{}{flow.Name, predicateKey(g), g.Field, g.Operator, g.Value},
		})
	}
	for _, p := range flow.Preconditions {
		facts = append(facts, Fact{
			Predicate: "flow_precondition",
			Args:      []interface{}{flow.Name, predicateKey(p), predicateDescription(p)},
		})
	}
	for _, p := range flow.Postconditions {
		facts = append(facts, Fact{
			Predicate: "flow_postcondition",
			Args:      []interface{}{flow.Name, predicateKey(p), predicateDescription(p)},
		})
	}
	for i, s := range flow.Steps {
		facts = append(facts, Fact{
			Predicate: "flow_step",
			Args:      []interface{}{flow.Name, i, string(s.Kind), s.Entity, s.Detail},
		})
	}
	if st := flow.StatusTransition; st != nil {
		facts = append(facts, Fact{
			Predicate: "status_transition",
			Args:      []interface{}{flow.Name, st.Entity, st.From, st.To},
		})
	}
	for _, fm := range flow.FieldMappings {
		facts = append(facts, Fact{
			Predicate: "field_mapping",
			Args:      []interface{}{flow.Name, fm.SourceField, fm.TargetField},
		})
	}
	return facts
}

func predicateKey(p ir.Predicate) string {
	return p.Entity + "." + p.Field + "." + p.Operator
}

func predicateDescription(p ir.Predicate) string {
	return fmt.Sprintf("%s.%s %s %s", p.Entity, p.Field, p.Operator, p.Value)
}

// AtomicOperations returns the atomic_op facts derived for a flow, in
// Step order, for the emitter's stratified code generator to walk.
func AtomicOperations(e *Engine, flowName string) ([]Fact, error) {
	facts, err := e.GetFacts("atomic_op")
	if err != nil {
		return nil, fmt.Errorf("icbr: querying atomic_op: %w", err)
	}
	var out []Fact
	for _, f := range facts {
		if len(f.Args) > 0 && f.Args[0] == flowName {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := out[i].Args[1].(int64)
		b, _ := out[j].Args[1].(int64)
		return a < b
	})
	return out, nil
}

// ReachableStates returns the statuses flowName moves entity into, as
// derived by the reaches_state rule from that flow's own
// status_transition facts. Transitions of other flows are not chained
// in: a state reached only through a later flow is not included.
func ReachableStates(e *Engine, flowName, entity string) ([]string, error) {
	facts, err := e.GetFacts("reaches_state")
	if err != nil {
		return nil, fmt.Errorf("icbr: querying reaches_state: %w", err)
	}
	var states []string
	for _, f := range facts {
		if len(f.Args) < 3 {
			continue
		}
		if f.Args[0] == flowName && f.Args[1] == entity {
			if s, ok := f.Args[2].(string); ok {
				states = append(states, s)
			}
		}
	}
	return states, nil
}
