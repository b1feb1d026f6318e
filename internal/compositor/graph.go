package compositor

import "strings"

// Arg is one filter option. An empty Key writes a positional value.
type Arg struct {
	Key   string
	Value string
}

// Filter is a single filter invocation inside a chain.
type Filter struct {
	Name string
	Args []Arg
}

// NewFilter builds a filter from alternating key/value pairs.
func NewFilter(name string, kv ...string) Filter {
	f := Filter{Name: name}
	for i := 0; i+1 < len(kv); i += 2 {
		f.Args = append(f.Args, Arg{Key: kv[i], Value: kv[i+1]})
	}
	return f
}

func (f Filter) String() string {
	if len(f.Args) == 0 {
		return f.Name
	}
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		if a.Key == "" {
			parts[i] = a.Value
		} else {
			parts[i] = a.Key + "=" + a.Value
		}
	}
	return f.Name + "=" + strings.Join(parts, ":")
}

// Stage is one labelled chain: inputs, filters applied in order, one output.
type Stage struct {
	Inputs  []string
	Filters []Filter
	Output  string
}

func (s Stage) String() string {
	var b strings.Builder
	for _, in := range s.Inputs {
		b.WriteString("[" + in + "]")
	}
	for i, f := range s.Filters {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.String())
	}
	if s.Output != "" {
		b.WriteString("[" + s.Output + "]")
	}
	return b.String()
}

// Graph is an ordered list of stages serialized once into a filter_complex value.
type Graph struct {
	Stages []Stage
}

// Add appends a stage.
func (g *Graph) Add(s Stage) {
	g.Stages = append(g.Stages, s)
}

func (g Graph) String() string {
	parts := make([]string, len(g.Stages))
	for i, s := range g.Stages {
		parts[i] = s.String()
	}
	return strings.Join(parts, ";")
}

var (
	optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	graphEscaper  = strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`[`, `\[`,
		`]`, `\]`,
		`,`, `\,`,
		`;`, `\;`,
	)
)

// EscapeValue escapes a literal option value such as a file path for both the
// option parser and the graph parser.
func EscapeValue(v string) string {
	return graphEscaper.Replace(optionEscaper.Replace(v))
}
