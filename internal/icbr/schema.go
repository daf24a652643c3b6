package icbr

// Schema is the fixed Mangle program declaring ICBR's canonical
// predicate vocabulary: one base predicate per BehaviorModel concept
// (guard, precondition, postcondition, step, status transition, field
// mapping) plus the derived predicates the fixpoint evaluator computes
// from them (atomic_op, guarded_op, reaches_state, terminal_state,
// op_count). SpecLowering never writes Mangle
// source directly; it only ever asserts facts over this fixed schema,
// which is what keeps ICBR re-derivable and diffable across runs of the
// same Flow.
const Schema = `
Decl flow_guard(FlowName, PredicateName, FieldPath, Op, Value)
  descr [
    mode("+", "+", "+", "+", "+")
  ].

Decl flow_precondition(FlowName, PredicateName, Description)
  descr [
    mode("+", "+", "+")
  ].

Decl flow_postcondition(FlowName, PredicateName, Description)
  descr [
    mode("+", "+", "+")
  ].

Decl flow_step(FlowName, Index, Kind, Target, Description)
  descr [
    mode("+", "+", "+", "+", "+")
  ].

Decl status_transition(FlowName, EntityName, FromStatus, ToStatus)
  descr [
    mode("+", "+", "+", "+")
  ].

Decl field_mapping(FlowName, SourceField, TargetField)
  descr [
    mode("+", "+", "+")
  ].

atomic_op(FlowName, Index, Kind, Target) :-
  flow_step(FlowName, Index, Kind, Target, _).

guarded_op(FlowName, Index, Kind, Target) :-
  atomic_op(FlowName, Index, Kind, Target),
  flow_guard(FlowName, _, _, _, _).

reaches_state(FlowName, EntityName, ToStatus) :-
  status_transition(FlowName, EntityName, _, ToStatus).

terminal_state(FlowName, EntityName, ToStatus) :-
  reaches_state(FlowName, EntityName, ToStatus),
  !status_transition(FlowName, EntityName, ToStatus, _).

op_count(FlowName, Count) :-
  atomic_op(FlowName, _, _, _) |> do fn:group_by(FlowName), let Count = fn:count().
`

