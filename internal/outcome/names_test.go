package outcome

import "testing"

func TestNormalizeKind(t *testing.T) {
	cases := map[string]string{
		"bool":        "bool",
		"Boolean":     "bool",
		" BOOL ":      "bool",
		"kind_bool":   "bool",
		"integer":     "int",
		"INT":         "int",
		"double":      "float",
		"number":      "float",
		"one_of":      "choice",
		"kind-pick":   "choice",
		"custom_kind": "custom-kind",
		"":            "",
	}

	for in, want := range cases {
		if got := NormalizeKind(in); got != want {
			t.Fatalf("NormalizeKind(%q)=%q want=%q", in, got, want)
		}
	}
}

func TestResolveAcceptsAliases(t *testing.T) {
	resetKindRegistryForTests()
	t.Cleanup(resetKindRegistryForTests)

	kind, err := Resolve("Boolean")
	if err != nil {
		t.Fatalf("resolve alias: %v", err)
	}
	if kind.Name != "bool" {
		t.Fatalf("expected bool, got %s", kind.Name)
	}
}
