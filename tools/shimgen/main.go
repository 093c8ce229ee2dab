// Command shimgen renders api/shims_gen.go from api/shims.yaml.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v2"
)

// YAMLArg is one parameter of a shim.
type YAMLArg struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// YAMLShim is one entry of shims.yaml.
type YAMLShim struct {
	Module   string    `yaml:"module"`
	Name     string    `yaml:"name"`
	Selector int       `yaml:"selector"`
	Args     []YAMLArg `yaml:"args"`
	Ret      string    `yaml:"ret"`
}

// YAMLSpec is the root of shims.yaml.
type YAMLSpec struct {
	Shims []YAMLShim `yaml:"shims"`
}

var vectors = map[string]string{
	"gemdos": "VecGEMDOS",
	"bios":   "VecBIOS",
	"xbios":  "VecXBIOS",
}

var goTypes = map[string]string{
	"word":   "uint16",
	"long":   "uint32",
	"string": "string",
}

var ctors = map[string]string{
	"word":   "trap.W",
	"long":   "trap.L",
	"string": "trap.Str",
}

var funcs = template.FuncMap{
	"upper":  strings.ToUpper,
	"vector": func(m string) string { return vectors[m] },
	"gotype": func(t string) string { return goTypes[t] },
	"ctor":   func(t string) string { return ctors[t] },
	"quote":  func(s string) string { return fmt.Sprintf("%q", s) },
}

const tmpl = `// Code generated by shimgen; DO NOT EDIT.

package api

import "github.com/alirzasahb/PumpkinOS/trap"

// Shims lists every generated function.
var Shims = []Shim{
{{- range .Shims}}
	{Module: {{quote .Module}}, Name: {{quote .Name}}, Selector: {{.Selector}}, Args: []string{ {{- range $i, $a := .Args}}{{if $i}}, {{end}}{{quote $a.Type}}{{end -}} }, Ret: {{quote .Ret}}},
{{- end}}
}
{{range .Shims}}
// {{.Name}} calls {{upper .Module}} function {{.Selector}}.
func {{.Name}}(inv Invoker{{range .Args}}, {{.Name}} {{gotype .Type}}{{end}}) {{if eq .Ret "void"}}error{{else}}({{.Ret}}, error){{end}} {
{{- if eq .Ret "void"}}
	_, err := inv.Invoke({{vector .Module}}, {{.Selector}}{{range .Args}}, {{ctor .Type}}({{.Name}}){{end}})
	return err
{{- else}}
	d0, err := inv.Invoke({{vector .Module}}, {{.Selector}}{{range .Args}}, {{ctor .Type}}({{.Name}}){{end}})
	return {{if eq .Ret "int32"}}int32(d0){{else}}d0{{end}}, err
{{- end}}
}
{{end}}`

func validate(spec *YAMLSpec) error {
	seen := map[string]bool{}
	for _, s := range spec.Shims {
		if seen[s.Name] {
			return fmt.Errorf("duplicate shim %s", s.Name)
		}
		seen[s.Name] = true
		if _, ok := vectors[s.Module]; !ok {
			return fmt.Errorf("%s: unknown module %q", s.Name, s.Module)
		}
		switch s.Ret {
		case "void", "int32", "uint32":
		default:
			return fmt.Errorf("%s: unknown result type %q", s.Name, s.Ret)
		}
		for _, a := range s.Args {
			if _, ok := goTypes[a.Type]; !ok {
				return fmt.Errorf("%s: argument %s has unknown type %q", s.Name, a.Name, a.Type)
			}
		}
	}
	return nil
}

func render(spec *YAMLSpec) ([]byte, error) {
	t, err := template.New("shims").Funcs(funcs).Parse(tmpl)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, spec); err != nil {
		return nil, err
	}
	return format.Source(buf.Bytes())
}

func main() {
	in := flag.String("in", "shims.yaml", "shim definitions")
	out := flag.String("out", "shims_gen.go", "generated Go file")
	flag.Parse()

	data, err := os.ReadFile(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading YAML file: %v\n", err)
		os.Exit(1)
	}
	var spec YAMLSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing YAML: %v\n", err)
		os.Exit(1)
	}
	if err := validate(&spec); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid shim definitions: %v\n", err)
		os.Exit(1)
	}
	src, err := render(&spec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering shims: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, src, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Generated %d shims into %s\n", len(spec.Shims), *out)
}
