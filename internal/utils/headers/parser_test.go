package headers

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	out, err := Parse([]string{"accept-language: de-DE", "X-Audit:  seo ", "Cookie: a=b: c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := map[string]string{
		"Accept-Language": "de-DE",
		"X-Audit":         "seo",
		"Cookie":          "a=b: c",
	}
	if !reflect.DeepEqual(out, expected) {
		t.Fatalf("unexpected parse result: %#v", out)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"BadHeader", ": value", "Bad Key: v"} {
		if _, err := Parse([]string{bad}); err == nil {
			t.Errorf("Parse(%q) expected error", bad)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	out, err := Parse(nil)
	if err != nil || len(out) != 0 {
		t.Fatalf("Parse(nil) = %v, %v", out, err)
	}
}
