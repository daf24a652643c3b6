package ir

import "testing"

func widgetIR() ApplicationIR {
	return ApplicationIR{
		Domain: Domain{Entities: []Entity{
			{Name: "Widget", Fields: []Field{
				{Name: "id", Type: TypeUUID},
				{Name: "name", Type: TypeString},
			}},
		}},
		API: API{Endpoints: []Endpoint{
			{Method: MethodPost, Path: "/widgets", OperationID: "create_widget", Entity: "Widget"},
		}},
	}
}

func TestValidateAcceptsWellFormedIR(t *testing.T) {
	if err := widgetIR().Validate(); err != nil {
		t.Fatalf("expected valid IR, got error: %v", err)
	}
}

func TestValidateRejectsDuplicateEntity(t *testing.T) {
	app := widgetIR()
	app.Domain.Entities = append(app.Domain.Entities, app.Domain.Entities[0])
	if err := app.Validate(); err == nil {
		t.Fatal("expected error for duplicate entity")
	}
}

func TestValidateRejectsDanglingFK(t *testing.T) {
	app := widgetIR()
	app.Domain.Entities[0].Fields = append(app.Domain.Entities[0].Fields, Field{
		Name: "category_id", Type: TypeUUID, IsForeignKey: true, References: "Category",
	})
	if err := app.Validate(); err == nil {
		t.Fatal("expected error for FK referencing unknown entity")
	}
}

func TestValidateRejectsDuplicateOperationID(t *testing.T) {
	app := widgetIR()
	app.API.Endpoints = append(app.API.Endpoints, app.API.Endpoints[0])
	if err := app.Validate(); err == nil {
		t.Fatal("expected error for duplicate operation id")
	}
}

func TestValidateRejectsUnverifiedNestedFK(t *testing.T) {
	app := widgetIR()
	app.Domain.Entities = append(app.Domain.Entities, Entity{
		Name: "Gadget", Fields: []Field{{Name: "id", Type: TypeUUID}},
	})
	app.API.Endpoints = append(app.API.Endpoints, Endpoint{
		Method: MethodPost, Path: "/widgets/{id}/gadgets", OperationID: "create_gadget",
		Entity: "Gadget", ParentEntity: "Widget", ParentFKField: "widget_id",
	})
	if err := app.Validate(); err == nil {
		t.Fatal("expected error: nested endpoint FK not present on child entity")
	}
}

func TestValidateInfrastructurePortUniqueness(t *testing.T) {
	infra := Infrastructure{Ports: []Port{
		{Name: "http", Number: 8080, IsPrimaryDB: false},
		{Name: "http", Number: 8081, IsPrimaryDB: false},
	}}
	if err := infra.validate(); err == nil {
		t.Fatal("expected error for duplicate port name")
	}
}

func TestValidateInfrastructureRequiresExactlyOnePrimaryDB(t *testing.T) {
	infra := Infrastructure{Ports: []Port{
		{Name: "db1", Number: 5432, IsPrimaryDB: true},
		{Name: "db2", Number: 5433, IsPrimaryDB: true},
	}}
	if err := infra.validate(); err == nil {
		t.Fatal("expected error for more than one primary DB")
	}
}
