package icbr

import (
	"context"
	"testing"

	"cogc/internal/ir"
)

func testBehavior() ir.Behavior {
	return ir.Behavior{Flows: []ir.Flow{
		{
			Name:         "place_order",
			SourceEntity: "Order",
			Guards: []ir.Predicate{
				{Entity: "Product", Field: "stock", Operator: "ge", Value: "quantity"},
			},
			Postconditions: []ir.Predicate{
				{Entity: "Order", Field: "status", Operator: "eq", Value: "placed"},
			},
			Steps: []ir.Step{
				{Kind: ir.StepRead, Entity: "Product"},
				{Kind: ir.StepCreate, Entity: "Order"},
				{Kind: ir.StepUpdate, Entity: "Product", Detail: "decrement stock"},
			},
			StatusTransition: &ir.StatusTransition{
				Entity: "Order", Field: "status", From: "draft", To: "placed",
			},
		},
		{
			Name: "cancel_order",
			StatusTransition: &ir.StatusTransition{
				Entity: "Order", Field: "status", From: "placed", To: "cancelled",
				IsCancellation: true, ReversesFlow: "place_order",
			},
			Steps: []ir.Step{
				{Kind: ir.StepTransition, Entity: "Order"},
			},
		},
	}}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestBehaviorLoweringAssertsOneFactPerStep(t *testing.T) {
	e := newTestEngine(t)
	if err := BehaviorLowering(context.Background(), e, testBehavior()); err != nil {
		t.Fatalf("BehaviorLowering: %v", err)
	}
	steps, err := e.GetFacts("flow_step")
	if err != nil {
		t.Fatalf("GetFacts(flow_step): %v", err)
	}
	if len(steps) != 4 {
		t.Fatalf("expected 4 flow_step facts (3 + 1), got %d", len(steps))
	}
}

func TestBehaviorLoweringDerivesAtomicOps(t *testing.T) {
	e := newTestEngine(t)
	if err := BehaviorLowering(context.Background(), e, testBehavior()); err != nil {
		t.Fatalf("BehaviorLowering: %v", err)
	}
	ops, err := AtomicOperations(e, "place_order")
	if err != nil {
		t.Fatalf("AtomicOperations: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("expected 3 atomic ops for place_order, got %d", len(ops))
	}
}

func TestBehaviorLoweringIsDeterministic(t *testing.T) {
	b := testBehavior()

	e1 := newTestEngine(t)
	if err := BehaviorLowering(context.Background(), e1, b); err != nil {
		t.Fatalf("BehaviorLowering (1): %v", err)
	}
	e2 := newTestEngine(t)
	if err := BehaviorLowering(context.Background(), e2, b); err != nil {
		t.Fatalf("BehaviorLowering (2): %v", err)
	}

	f1, _ := e1.GetFacts("flow_step")
	f2, _ := e2.GetFacts("flow_step")
	if len(f1) != len(f2) {
		t.Fatalf("non-deterministic lowering: %d facts vs %d facts", len(f1), len(f2))
	}
}

func TestReachableStatesIncludesCancellation(t *testing.T) {
	e := newTestEngine(t)
	if err := BehaviorLowering(context.Background(), e, testBehavior()); err != nil {
		t.Fatalf("BehaviorLowering: %v", err)
	}
	states, err := ReachableStates(e, "place_order", "Order")
	if err != nil {
		t.Fatalf("ReachableStates: %v", err)
	}
	found := false
	for _, s := range states {
		if s == "placed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'placed' among reachable states, got %v", states)
	}

	cancelStates, err := ReachableStates(e, "cancel_order", "Order")
	if err != nil {
		t.Fatalf("ReachableStates(cancel_order): %v", err)
	}
	cancelled := false
	for _, s := range cancelStates {
		if s == "cancelled" {
			cancelled = true
		}
	}
	if !cancelled {
		t.Fatalf("expected 'cancelled' among reachable states of cancel_order, got %v", cancelStates)
	}
}
