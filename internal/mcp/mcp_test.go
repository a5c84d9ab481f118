package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/purelymail-mcp/internal/client"
	"github.com/bobmcallan/purelymail-mcp/internal/common"
	"github.com/bobmcallan/purelymail-mcp/internal/config"
	"github.com/bobmcallan/purelymail-mcp/internal/openapi"
	"github.com/bobmcallan/purelymail-mcp/internal/tools"
)

// --- Helpers ---

const testDoc = `{
  "paths": {
    "/api/v0/createUser": {
      "post": {
        "operationId": "Create User",
        "summary": "Create a user",
        "tags": ["User"],
        "requestBody": {"$ref": "#/components/requestBodies/CreateUserRequest"}
      }
    },
    "/api/v0/checkAccountCredit": {
      "post": {
        "operationId": "Check Account Credit",
        "summary": "Check credit",
        "tags": ["Billing"],
        "responses": {
          "200": {"content": {"application/json": {"example": {"result": {"credit": "25.50"}}}}}
        }
      }
    }
  },
  "components": {
    "requestBodies": {
      "CreateUserRequest": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/CreateUserRequest"}}}}
    },
    "schemas": {
      "CreateUserRequest": {
        "type": "object",
        "properties": {"userName": {"type": "string"}, "domainName": {"type": "string"}},
        "required": ["userName"]
      }
    }
  }
}`

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveToolCall(tool, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, tool+":"+outcome)
}

func newReplayServer(t *testing.T, strategy tools.Strategy, observer Observer) (*mcpserver.MCPServer, int) {
	t.Helper()
	logger := common.NewSilentLogger()

	doc, err := openapi.Parse([]byte(testDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	dispatcher := tools.NewDispatcher(client.NewReplayClient(doc, logger), logger)
	registry := tools.NewAssembler(dispatcher, logger).Build(doc, strategy)

	return NewServer(config.NewDefaultConfig(), registry, observer, logger)
}

// listTools calls tools/list on the MCPServer and returns the tools.
func listTools(t *testing.T, s *mcpserver.MCPServer) []mcpgo.Tool {
	t.Helper()

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	result := s.HandleMessage(context.Background(), msg)

	resp, ok := result.(mcpgo.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T", result)
	}

	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var toolsResult mcpgo.ListToolsResult
	if err := json.Unmarshal(resultJSON, &toolsResult); err != nil {
		t.Fatalf("failed to unmarshal ListToolsResult: %v", err)
	}

	return toolsResult.Tools
}

// listToolsRaw returns the raw tools/list result for schema assertions.
func listToolsRaw(t *testing.T, s *mcpserver.MCPServer) map[string]json.RawMessage {
	t.Helper()

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	resp, ok := s.HandleMessage(context.Background(), msg).(mcpgo.JSONRPCResponse)
	if !ok {
		t.Fatal("expected JSONRPCResponse")
	}
	resultJSON, _ := json.Marshal(resp.Result)

	var raw struct {
		Tools []struct {
			Name        string          `json:"name"`
			InputSchema json.RawMessage `json:"inputSchema"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(resultJSON, &raw); err != nil {
		t.Fatalf("failed to unmarshal tools: %v", err)
	}

	out := make(map[string]json.RawMessage, len(raw.Tools))
	for _, tool := range raw.Tools {
		out[tool.Name] = tool.InputSchema
	}
	return out
}

// callTool calls a tool on the MCPServer and returns the result.
func callTool(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]interface{}) *mcpgo.CallToolResult {
	t.Helper()

	argsJSON, _ := json.Marshal(args)
	result, err := callToolRaw(s, name, string(argsJSON))
	if err != nil {
		t.Fatal(err)
	}
	return result
}

// callToolRaw sends a tools/call with arguments given as raw JSON. It does not
// touch t, so it is safe to use from other goroutines.
func callToolRaw(s *mcpserver.MCPServer, name, argsJSON string) (*mcpgo.CallToolResult, error) {
	nameJSON, _ := json.Marshal(name)
	msg := json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":` + string(nameJSON) + `,"arguments":` + argsJSON + `}}`)
	result := s.HandleMessage(context.Background(), msg)

	resp, ok := result.(mcpgo.JSONRPCResponse)
	if !ok {
		return nil, fmt.Errorf("expected JSONRPCResponse, got %T", result)
	}

	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	var toolResult mcpgo.CallToolResult
	if err := json.Unmarshal(resultJSON, &toolResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal CallToolResult: %w", err)
	}
	return &toolResult, nil
}

// extractText extracts the text field from an MCP content block.
func extractText(t *testing.T, content mcpgo.Content) string {
	t.Helper()
	contentJSON, _ := json.Marshal(content)
	var tc struct {
		Text string `json:"text"`
	}
	json.Unmarshal(contentJSON, &tc)
	return tc.Text
}

// --- Tests ---

func TestNewServer_RegistersTools(t *testing.T) {
	s, count := newReplayServer(t, tools.PerOperation, nil)
	if count != 2 {
		t.Fatalf("expected 2 registered tools, got %d", count)
	}

	names := map[string]string{}
	for _, tool := range listTools(t, s) {
		names[tool.Name] = tool.Description
	}
	if names["create_user"] != "Create a user" {
		t.Errorf("expected create_user with description, got %v", names)
	}
	if _, ok := names["check_account_credit"]; !ok {
		t.Errorf("expected check_account_credit, got %v", names)
	}
}

func TestNewServer_RawInputSchema(t *testing.T) {
	s, _ := newReplayServer(t, tools.PerOperation, nil)
	schemas := listToolsRaw(t, s)

	var create map[string]any
	if err := json.Unmarshal(schemas["create_user"], &create); err != nil {
		t.Fatalf("invalid schema: %v", err)
	}
	if create["type"] != "object" {
		t.Errorf("expected object schema, got %v", create["type"])
	}
	required, _ := create["required"].([]any)
	if len(required) != 1 || required[0] != "userName" {
		t.Errorf("expected required [userName], got %v", create["required"])
	}

	var credit map[string]any
	json.Unmarshal(schemas["check_account_credit"], &credit)
	if props, ok := credit["properties"].(map[string]any); !ok || len(props) != 0 {
		t.Errorf("expected empty properties object, got %v", credit["properties"])
	}
}

func TestCallTool_ReplayExample(t *testing.T) {
	observer := &recordingObserver{}
	s, _ := newReplayServer(t, tools.PerOperation, observer)

	result := callTool(t, s, "check_account_credit", map[string]interface{}{})
	if result.IsError {
		t.Fatalf("unexpected error result: %s", extractText(t, result.Content[0]))
	}

	want := "{\n  \"result\": {\n    \"credit\": \"25.50\"\n  }\n}"
	if got := extractText(t, result.Content[0]); got != want {
		t.Errorf("expected indented JSON\n%s\ngot\n%s", want, got)
	}

	if len(observer.calls) != 1 || observer.calls[0] != "check_account_credit:success" {
		t.Errorf("expected one successful observation, got %v", observer.calls)
	}
}

func TestCallTool_ResourceUnknownAction(t *testing.T) {
	observer := &recordingObserver{}
	s, _ := newReplayServer(t, tools.PerResource, observer)

	result := callTool(t, s, "manage_user", map[string]interface{}{"action": "Nonexistent"})
	if !result.IsError {
		t.Fatal("expected error result for unknown action")
	}
	text := extractText(t, result.Content[0])
	if !strings.HasPrefix(text, "Error: ") || !strings.Contains(text, "Nonexistent") {
		t.Errorf("unexpected error text %q", text)
	}
	if observer.calls[0] != "manage_user:unknown_operation" {
		t.Errorf("expected unknown_operation outcome, got %v", observer.calls)
	}

	// The server keeps serving after a failed call.
	ok := callTool(t, s, "manage_user", map[string]interface{}{"action": "Create User", "userName": "a", "domainName": "b.com"})
	if ok.IsError {
		t.Fatalf("unexpected error: %s", extractText(t, ok.Content[0]))
	}
	if !strings.Contains(extractText(t, ok.Content[0]), "Mock: Created user a@b.com") {
		t.Errorf("unexpected result %s", extractText(t, ok.Content[0]))
	}
}

func TestJSONResult_NoHTMLEscaping(t *testing.T) {
	result, _ := jsonResult(map[string]any{"message": "<a&b>"})
	if got := extractText(t, result.Content[0]); got != "{\n  \"message\": \"<a&b>\"\n}" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestErrorResult(t *testing.T) {
	result := errorResult("Error: boom")
	if !result.IsError {
		t.Error("expected IsError")
	}
	if extractText(t, result.Content[0]) != "Error: boom" {
		t.Error("unexpected text")
	}
}

func TestCallTool_NonObjectArguments(t *testing.T) {
	observer := &recordingObserver{}
	s, _ := newReplayServer(t, tools.PerOperation, observer)

	for _, raw := range []string{`"userName=a"`, `[1, 2]`, `42`} {
		result, err := callToolRaw(s, "create_user", raw)
		if err != nil {
			t.Fatal(err)
		}
		if !result.IsError {
			t.Errorf("arguments %s: expected error result", raw)
			continue
		}
		if got := extractText(t, result.Content[0]); got != "Error: arguments must be an object" {
			t.Errorf("arguments %s: unexpected text %q", raw, got)
		}
	}
	if len(observer.calls) != 3 || observer.calls[0] != "create_user:invalid_arguments" {
		t.Errorf("expected invalid_arguments observations, got %v", observer.calls)
	}

	// Omitted or null arguments still run the tool with an empty body.
	result, err := callToolRaw(s, "check_account_credit", `null`)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Errorf("unexpected error for null arguments: %s", extractText(t, result.Content[0]))
	}
}

func TestCallTool_Concurrent(t *testing.T) {
	for _, strategy := range []tools.Strategy{tools.PerOperation, tools.PerResource} {
		t.Run(string(strategy), func(t *testing.T) {
			observer := &recordingObserver{}
			s, _ := newReplayServer(t, strategy, observer)

			name, args := "check_account_credit", `{}`
			if strategy == tools.PerResource {
				name, args = "manage_billing", `{"action":"Check Account Credit"}`
			}

			const workers = 32
			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					result, err := callToolRaw(s, name, args)
					if err != nil {
						errs <- err
						return
					}
					if result.IsError || len(result.Content) == 0 {
						errs <- fmt.Errorf("unexpected result %+v", result)
						return
					}
					text, _ := json.Marshal(result.Content[0])
					if !strings.Contains(string(text), "25.50") {
						errs <- fmt.Errorf("unexpected content %s", text)
					}
				}()
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				t.Error(err)
			}
			if len(observer.calls) != workers {
				t.Errorf("expected %d observations, got %d", workers, len(observer.calls))
			}
		})
	}
}
