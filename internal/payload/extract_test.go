package payload

import (
	"encoding/json"
	"errors"
	"testing"
)

func mustDecode(t *testing.T, body string) Value {
	t.Helper()
	v, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

func TestExtractFirstMatchWins(t *testing.T) {
	v := mustDecode(t, `{"a": {"b": {"x": 1}}, "c": [{"x": 2}]}`)

	got := ExtractNative(v, []string{"x"})

	if len(got) != 1 {
		t.Fatalf("Expected 1 key, got %d", len(got))
	}
	if got["x"] != json.Number("1") {
		t.Errorf("Expected x=1 (first in document order), got %v", got["x"])
	}
}

func TestExtractShallowBeforeLaterDeep(t *testing.T) {
	v := mustDecode(t, `{"items": [{"x": "deep"}], "x": "top"}`)

	got := ExtractNative(v, []string{"x"})

	if got["x"] != "deep" {
		t.Errorf("Expected the earlier occurrence to win, got %v", got["x"])
	}
}

func TestExtractDoesNotDescendIntoMatch(t *testing.T) {
	v := mustDecode(t, `{"amount": {"value": 1050, "currency": "EUR"}}`)

	got := Extract(v, []string{"amount", "value"})

	if _, ok := got["amount"].(Object); !ok {
		t.Fatalf("Expected amount to be an object, got %T", got["amount"])
	}
	if _, ok := got["value"]; ok {
		t.Errorf("Expected value inside a matched member to be skipped")
	}
}

func TestExtractNestedArraysAndObjects(t *testing.T) {
	v := mustDecode(t, `{
		"live": "false",
		"notificationItems": [
			{"NotificationRequestItem": {
				"amount": {"currency": "EUR", "value": 1050},
				"additionalData": {"paymentMethodVariant": "visa"},
				"pspReference": "psp-1",
				"success": "true"
			}}
		]
	}`)

	got := ExtractNative(v, []string{"live", "currency", "value", "paymentMethodVariant", "pspReference", "success", "reason"})

	want := map[string]any{
		"live":                 "false",
		"currency":             "EUR",
		"value":                json.Number("1050"),
		"paymentMethodVariant": "visa",
		"pspReference":         "psp-1",
		"success":              "true",
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d keys, got %d: %v", len(want), len(got), got)
	}
	for k, w := range want {
		if got[k] != w {
			t.Errorf("Expected %s=%v, got %v", k, w, got[k])
		}
	}
	if _, ok := got["reason"]; ok {
		t.Errorf("Expected reason to be absent")
	}
}

func TestExtractNullIsRecorded(t *testing.T) {
	v := mustDecode(t, `{"reason": null}`)

	got := ExtractNative(v, []string{"reason"})

	val, ok := got["reason"]
	if !ok {
		t.Fatalf("Expected reason key to be present")
	}
	if val != nil {
		t.Errorf("Expected nil, got %v", val)
	}
}

func TestExtractNoMatch(t *testing.T) {
	for _, body := range []string{`{}`, `[]`, `"scalar"`, `{"a": [1, 2, {"b": null}]}`} {
		got := Extract(mustDecode(t, body), []string{"x"})
		if len(got) != 0 {
			t.Errorf("Expected empty result for %s, got %v", body, got)
		}
	}
}

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	for _, body := range []string{"", "{invalid json", `{"a": 1} {"b": 2}`, `{"a": }`} {
		if _, err := Decode([]byte(body)); err == nil {
			t.Errorf("Expected error for %q", body)
		}
	}
}

func TestDecodePreservesKeyOrder(t *testing.T) {
	v := mustDecode(t, `{"z": 1, "a": 2, "m": 3}`)

	obj, ok := v.(Object)
	if !ok {
		t.Fatalf("Expected Object, got %T", v)
	}
	order := []string{"z", "a", "m"}
	for i, m := range obj {
		if m.Key != order[i] {
			t.Errorf("Expected key %s at %d, got %s", order[i], i, m.Key)
		}
	}
}

func TestItemsSplitsEnvelope(t *testing.T) {
	v := mustDecode(t, `{
		"live": "true",
		"notificationItems": [
			{"NotificationRequestItem": {"pspReference": "a"}},
			{"NotificationRequestItem": {"pspReference": "b", "live": "false"}}
		]
	}`)

	items := Items(v)

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	first := ExtractNative(items[0], []string{"pspReference", "live"})
	if first["pspReference"] != "a" || first["live"] != "true" {
		t.Errorf("Expected envelope live to be inherited, got %v", first)
	}
	second := ExtractNative(items[1], []string{"pspReference", "live"})
	if second["pspReference"] != "b" || second["live"] != "false" {
		t.Errorf("Expected item live to take precedence, got %v", second)
	}
}

func TestItemsWithoutEnvelope(t *testing.T) {
	v := mustDecode(t, `{"pspReference": "flat"}`)

	items := Items(v)

	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if got := ExtractNative(items[0], []string{"pspReference"}); got["pspReference"] != "flat" {
		t.Errorf("Expected flat, got %v", got["pspReference"])
	}
}

func TestDecodeRejectsDuplicateKeys(t *testing.T) {
	cases := map[string]string{
		"top level": `{"merchantReference": "attacker", "merchantReference": "order-1"}`,
		"nested":    `{"notificationItems": [{"NotificationRequestItem": {"amount": {"value": 1, "value": 2}}}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(body))
			if !errors.Is(err, ErrDuplicateKey) {
				t.Errorf("Expected ErrDuplicateKey, got %v", err)
			}
		})
	}
}

func TestDecodeAllowsSameKeyInSiblingObjects(t *testing.T) {
	v := mustDecode(t, `{"a": {"x": 1}, "b": {"x": 2}}`)

	if got := ExtractNative(v, []string{"x"}); got["x"] != json.Number("1") {
		t.Errorf("Expected x=1, got %v", got["x"])
	}
}
