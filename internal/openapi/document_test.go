package openapi

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func loadFixture(t *testing.T) *Document {
	t.Helper()
	doc, err := Load(filepath.Join("testdata", "purelymail.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return doc
}

func TestLoad_Fixture(t *testing.T) {
	doc := loadFixture(t)

	if doc.OpenAPI != "3.0.0" {
		t.Errorf("expected openapi 3.0.0, got %q", doc.OpenAPI)
	}
	if doc.Title() != "Purelymail API" {
		t.Errorf("expected title Purelymail API, got %q", doc.Title())
	}
	if doc.Version() != "0.1.0" {
		t.Errorf("expected version 0.1.0, got %q", doc.Version())
	}
	if doc.Paths.Len() != 5 {
		t.Errorf("expected 5 paths, got %d", doc.Paths.Len())
	}
	if len(doc.Components.Schemas) != 2 {
		t.Errorf("expected 2 schemas, got %d", len(doc.Components.Schemas))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing document")
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParse_NoPaths(t *testing.T) {
	doc, err := Parse([]byte(`{"openapi":"3.0.0"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Paths == nil || doc.Paths.Len() != 0 {
		t.Error("expected empty path map")
	}
	if entries := ExtractOperations(doc); len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestParse_PreservesPathOrder(t *testing.T) {
	doc, err := Parse([]byte(`{"paths":{"/z":{},"/a":{},"/m":{}}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []string{"/z", "/a", "/m"}
	i := 0
	for pair := doc.Paths.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key != want[i] {
			t.Errorf("path %d: expected %s, got %s", i, want[i], pair.Key)
		}
		i++
	}
}

func TestDocument_Operation(t *testing.T) {
	doc := loadFixture(t)

	op, ok := doc.Operation("/api/v0/createUser", "POST")
	if !ok {
		t.Fatal("expected operation for POST /api/v0/createUser")
	}
	if op.OperationID != "Create User" {
		t.Errorf("expected Create User, got %s", op.OperationID)
	}

	if _, ok := doc.Operation("/api/v0/createUser", "get"); ok {
		t.Error("expected no GET operation")
	}
	if _, ok := doc.Operation("/nope", "post"); ok {
		t.Error("expected no operation for unknown path")
	}
}

func TestOperation_ResponseExample(t *testing.T) {
	doc := loadFixture(t)

	op, _ := doc.Operation("/api/v0/checkAccountCredit", "post")
	example, ok := op.ResponseExample("200")
	if !ok {
		t.Fatal("expected a 200 example")
	}
	if string(example) != `{"result": {"credit": "25.50"}}` {
		t.Errorf("unexpected example: %s", example)
	}

	if _, ok := op.ResponseExample("201"); ok {
		t.Error("expected no 201 example")
	}

	created, _ := doc.Operation("/api/v0/createUser", "post")
	if !created.HasResponse("200") {
		t.Error("expected createUser to declare 200")
	}
	if _, ok := created.ResponseExample("200"); ok {
		t.Error("expected no example for createUser")
	}
}

func TestOperation_NullExampleIsAbsent(t *testing.T) {
	op := &Operation{Responses: []byte(`{"200":{"content":{"application/json":{"example":null}}}}`)}
	if _, ok := op.ResponseExample("200"); ok {
		t.Error("null example should be treated as absent")
	}
}

func TestLoad_WrittenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.json")
	if err := os.WriteFile(path, []byte(`{"paths":{"/x":{"get":{"operationId":"X"}}}}`), 0644); err != nil {
		t.Fatal(err)
	}
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(ExtractOperations(doc)) != 1 {
		t.Error("expected one operation")
	}
}

func TestParse_TopLevelNotObject(t *testing.T) {
	for _, input := range []string{`[1, 2]`, `"spec"`, `null`} {
		if _, err := Parse([]byte(input)); !errors.Is(err, ErrInvalidDocument) {
			t.Errorf("Parse(%s): expected ErrInvalidDocument, got %v", input, err)
		}
	}
}

func TestParse_SkipsNonObjectPathEntries(t *testing.T) {
	doc, err := Parse([]byte(`{
		"openapi": "3.0.0",
		"paths": {
			"/a": {"post": {"operationId": "A"}},
			"x-internal": true,
			"x-owner": "mail-team",
			"/b": {"get": {"operationId": "B"}}
		}
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Paths.Len() != 2 {
		t.Errorf("expected 2 paths, got %d", doc.Paths.Len())
	}

	entries := ExtractOperations(doc)
	if len(entries) != 2 || entries[0].Operation.OperationID != "A" || entries[1].Operation.OperationID != "B" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestParse_MalformedSectionsAreAbsent(t *testing.T) {
	doc, err := Parse([]byte(`{
		"openapi": 3,
		"paths": [],
		"components": {"schemas": "none", "requestBodies": 7}
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.OpenAPI != "" {
		t.Errorf("expected non-string openapi to be ignored, got %q", doc.OpenAPI)
	}
	if doc.Paths.Len() != 0 {
		t.Errorf("expected no paths, got %d", doc.Paths.Len())
	}
	if doc.Components.Schemas != nil || doc.Components.RequestBodies != nil {
		t.Error("expected malformed components to be absent")
	}
}
