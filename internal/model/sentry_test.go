package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestKeyValuesUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  KeyValues
	}{
		{
			name:  "mapping",
			input: `{"release":"1.2","browser":"Chrome"}`,
			want:  KeyValues{"release": "1.2", "browser": "Chrome"},
		},
		{
			name:  "pair-list",
			input: `[["release","1.2"],["browser","Chrome"]]`,
			want:  KeyValues{"release": "1.2", "browser": "Chrome"},
		},
		{
			name:  "object-list",
			input: `[{"key":"release","value":"1.2"},{"key":"browser","value":"Chrome"}]`,
			want:  KeyValues{"release": "1.2", "browser": "Chrome"},
		},
		{
			name:  "falsy-pairs-skipped",
			input: `[["release",""],["","x"],["os",null],["level",0],["flag",false],["short"],["version",2]]`,
			want:  KeyValues{"version": "2"},
		},
		{
			name:  "falsy-mapping-values-skipped",
			input: `{"release":"","os":null,"device":"iPhone"}`,
			want:  KeyValues{"device": "iPhone"},
		},
		{
			name:  "null",
			input: `null`,
			want:  nil,
		},
		{
			name:  "scalar-ignored",
			input: `"release"`,
			want:  nil,
		},
		{
			name:  "empty-mapping",
			input: `{}`,
			want:  KeyValues{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got KeyValues
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeyValuesLookupIgnoresCase(t *testing.T) {
	kv := KeyValues{"user-agent": "curl/8.0"}
	if got := kv.Lookup("User-Agent"); got != "curl/8.0" {
		t.Fatalf("Lookup() = %q, want %q", got, "curl/8.0")
	}
	var empty KeyValues
	if got := empty.Lookup("User-Agent"); got != "" {
		t.Fatalf("Lookup() on nil = %q, want empty", got)
	}
}

func TestFlexStringUnmarshal(t *testing.T) {
	var payload struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
		D FlexString `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a":"web","b":4505281256090153,"c":{"x":1},"d":null}`), &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.A != "web" || payload.B != "4505281256090153" || payload.C != "" || payload.D != "" {
		t.Fatalf("unexpected values: %+v", payload)
	}
}

func TestSentryWebhookShapes(t *testing.T) {
	var event SentryWebhook
	if err := json.Unmarshal([]byte(`{"project":"web","level":"error","title":"boom"}`), &event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !event.HasEventFields() || event.Data != nil {
		t.Fatalf("expected flat event fields, got %+v", event)
	}

	var action SentryWebhook
	if err := json.Unmarshal([]byte(`{"action":"triggered","data":{"error":{"project":1,"title":"boom"}}}`), &action); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action.Data == nil || action.Data.Error == nil || action.Data.Error.Project != "1" {
		t.Fatalf("expected action data.error, got %+v", action)
	}
	if action.HasEventFields() {
		t.Fatal("action payload should not expose flat event fields")
	}
}

func TestFlexIntAndFlexBool(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		lineno FlexInt
		inApp  FlexBool
	}{
		{name: "native", input: `{"lineno":12,"in_app":true}`, lineno: 12, inApp: true},
		{name: "strings", input: `{"lineno":"12","in_app":"true"}`, lineno: 12, inApp: true},
		{name: "float", input: `{"lineno":12.0,"in_app":1}`, lineno: 12, inApp: true},
		{name: "garbage", input: `{"lineno":"abc","in_app":"nope"}`},
		{name: "wrong-kind", input: `{"lineno":{"n":1},"in_app":[true]}`},
		{name: "null", input: `{"lineno":null,"in_app":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f SentryFrame
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Lineno != tt.lineno || f.InApp != tt.inApp {
				t.Fatalf("got lineno=%d in_app=%v, want lineno=%d in_app=%v", f.Lineno, f.InApp, tt.lineno, tt.inApp)
			}
		})
	}
}

func TestSentryWebhookToleratesWrongTypes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, w SentryWebhook)
	}{
		{
			name:  "numeric-scalars",
			input: `{"title":123,"level":40,"environment":true,"datetime":1705307400,"action":7}`,
			check: func(t *testing.T, w SentryWebhook) {
				if w.Title != "123" || w.Level != "40" || w.Environment != "true" || w.Datetime != "1705307400" || w.Action != "7" {
					t.Fatalf("unexpected scalars: %+v", w)
				}
			},
		},
		{
			name:  "scalar-in-place-of-object",
			input: `{"title":"x","user":"abc","request":1,"exception":"boom","contexts":[],"actor":"me","data":"x"}`,
			check: func(t *testing.T, w SentryWebhook) {
				if w.User != nil || w.Request != nil || w.Exception != nil || w.Contexts != nil || w.Actor != nil || w.Data != nil {
					t.Fatalf("wrong-typed objects should be absent: %+v", w)
				}
				if w.Title != "x" {
					t.Fatalf("title = %q, want x", w.Title)
				}
			},
		},
		{
			name:  "object-in-place-of-array",
			input: `{"exception":{"values":{}}}`,
			check: func(t *testing.T, w SentryWebhook) {
				if w.Exception == nil || len(w.Exception.Values) != 0 {
					t.Fatalf("expected exception with no values, got %+v", w.Exception)
				}
			},
		},
		{
			name:  "nested-wrong-types",
			input: `{"user":{"ip_address":["1.2.3.4"],"geo":"Hangzhou"},"exception":{"values":[{"type":1,"stacktrace":{"frames":{}}},"x"]},"contexts":{"browser":"Chrome"}}`,
			check: func(t *testing.T, w SentryWebhook) {
				if w.User == nil || w.User.IPAddress != "" || w.User.Geo != nil {
					t.Fatalf("unexpected user: %+v", w.User)
				}
				if w.Exception == nil || len(w.Exception.Values) != 2 {
					t.Fatalf("unexpected exception: %+v", w.Exception)
				}
				first := w.Exception.Values[0]
				if first.Type != "1" || first.Stacktrace == nil || len(first.Stacktrace.Frames) != 0 {
					t.Fatalf("unexpected first value: %+v", first)
				}
				if w.Exception.Values[1] != (SentryExceptionValue{}) {
					t.Fatalf("non-object value should be empty, got %+v", w.Exception.Values[1])
				}
				if w.Contexts == nil || w.Contexts.Browser != nil {
					t.Fatalf("unexpected contexts: %+v", w.Contexts)
				}
			},
		},
		{
			name:  "data-error-not-object",
			input: `{"action":"triggered","data":{"error":"boom"}}`,
			check: func(t *testing.T, w SentryWebhook) {
				if w.Data == nil || w.Data.Error != nil {
					t.Fatalf("expected data without error, got %+v", w.Data)
				}
			},
		},
		{
			name:  "top-level-array",
			input: `[1,2,3]`,
			check: func(t *testing.T, w SentryWebhook) {
				if w.HasEventFields() || w.Action != "" || w.Data != nil {
					t.Fatalf("expected zero webhook, got %+v", w)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w SentryWebhook
			if err := json.Unmarshal([]byte(tt.input), &w); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, w)
		})
	}
}

func TestHasEventFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "empty", input: `{}`, want: false},
		{name: "null-fields", input: `{"user":null,"tags":null,"title":null}`, want: false},
		{name: "wrong-typed-only", input: `{"user":"abc","tags":"x"}`, want: false},
		{name: "environment", input: `{"environment":"staging"}`, want: true},
		{name: "datetime", input: `{"datetime":"2024-01-15T08:30:00Z"}`, want: true},
		{name: "issue-id", input: `{"issue_id":123}`, want: true},
		{name: "project-name", input: `{"project_name":"web"}`, want: true},
		{name: "user", input: `{"user":{"ip_address":"1.2.3.4"}}`, want: true},
		{name: "request", input: `{"request":{"url":"https://example.com"}}`, want: true},
		{name: "contexts", input: `{"contexts":{}}`, want: true},
		{name: "tags", input: `{"tags":{"release":"1.2"}}`, want: true},
		{name: "web-url", input: `{"web_url":"https://sentry.io/1/"}`, want: true},
		{name: "url", input: `{"url":"https://sentry.io/1/"}`, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e SentryEvent
			if err := json.Unmarshal([]byte(tt.input), &e); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := e.HasEventFields(); got != tt.want {
				t.Fatalf("HasEventFields() = %v, want %v", got, tt.want)
			}
		})
	}
}
