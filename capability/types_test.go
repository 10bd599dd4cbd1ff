package capability

import (
	"encoding/json"
	"testing"
)

func TestKind_IsValid(t *testing.T) {
	for _, k := range []Kind{KindTool, KindResource, KindPrompt} {
		if !k.IsValid() {
			t.Fatalf("expected %q valid", k)
		}
	}
	if Kind("gadget").IsValid() {
		t.Fatalf("expected gadget invalid")
	}
}

func TestDefinition_Key(t *testing.T) {
	tool := Definition{Kind: KindTool, Name: "echo"}
	if tool.Key() != "echo" {
		t.Fatalf("unexpected key %q", tool.Key())
	}
	res := Definition{Kind: KindResource, Name: "item", URIPattern: "items/{id}"}
	if res.Key() != "items/{id}" {
		t.Fatalf("unexpected key %q", res.Key())
	}
}

func TestResult_EnvelopeShape(t *testing.T) {
	ok := Success(TextContent("hi"))
	b, err := json.Marshal(ok)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["ok"] != true {
		t.Fatalf("expected ok:true, got %v", m)
	}
	if _, present := m["errorKind"]; present {
		t.Fatalf("success envelope leaked error fields: %v", m)
	}

	fail := Failure(ErrorNotFound, "tool not found: nope")
	b, _ = json.Marshal(fail)
	m = map[string]any{}
	_ = json.Unmarshal(b, &m)
	if m["ok"] != false || m["errorKind"] != string(ErrorNotFound) {
		t.Fatalf("unexpected failure envelope: %v", m)
	}
	if _, present := m["content"]; present {
		t.Fatalf("failure envelope carries content: %v", m)
	}
}
