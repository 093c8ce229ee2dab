package main

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func loadSpec(t *testing.T) *YAMLSpec {
	t.Helper()
	data, err := os.ReadFile("../../api/shims.yaml")
	require.NoError(t, err)
	var spec YAMLSpec
	require.NoError(t, yaml.Unmarshal(data, &spec))
	return &spec
}

// The checked-in api/shims_gen.go must match what the generator renders.
func TestGeneratedFileUpToDate(t *testing.T) {
	spec := loadSpec(t)
	require.NoError(t, validate(spec))
	src, err := render(spec)
	require.NoError(t, err)

	current, err := os.ReadFile("../../api/shims_gen.go")
	require.NoError(t, err)
	assert.Equal(t, string(current), string(src), "run go generate ./api")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		spec YAMLSpec
		want string
	}{
		{"dup", YAMLSpec{Shims: []YAMLShim{{Module: "bios", Name: "A", Ret: "void"}, {Module: "bios", Name: "A", Ret: "void"}}}, "duplicate"},
		{"module", YAMLSpec{Shims: []YAMLShim{{Module: "gem", Name: "A", Ret: "void"}}}, "unknown module"},
		{"ret", YAMLSpec{Shims: []YAMLShim{{Module: "bios", Name: "A", Ret: "int16"}}}, "result type"},
		{"arg", YAMLSpec{Shims: []YAMLShim{{Module: "bios", Name: "A", Ret: "void", Args: []YAMLArg{{"x", "byte"}}}}}, "unknown type"},
	}
	for _, tc := range cases {
		err := validate(&tc.spec)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: got %v, want error containing %q", tc.name, err, tc.want)
		}
	}
}
