package catalog

// Op is a comparison operator in an archetype rule.
type Op string

// Supported comparison operators.
const (
	OpGTE Op = ">="
	OpLTE Op = "<="
	OpGT  Op = ">"
	OpLT  Op = "<"
	OpEQ  Op = "=="
)

// Valid reports whether op is one of the supported operators.
func (op Op) Valid() bool {
	switch op {
	case OpGTE, OpLTE, OpGT, OpLT, OpEQ:
		return true
	}
	return false
}

// Condition is one node of an archetype rule tree. A node with Dim set is a
// comparison against that dimension's normalized score; otherwise it is a
// group where every All child and at least one Any child must hold. Empty
// lists are vacuously true.
type Condition struct {
	Dim   string  `yaml:"dim" json:"dim,omitempty"`
	Op    Op      `yaml:"op" json:"op,omitempty"`
	Value float64 `yaml:"value" json:"value,omitempty"`

	All []Condition `yaml:"all" json:"all,omitempty"`
	Any []Condition `yaml:"any" json:"any,omitempty"`
}

// IsComparison reports whether the node is a leaf comparison.
func (c Condition) IsComparison() bool { return c.Dim != "" }

// walk visits every node depth first.
func (c Condition) walk(fn func(Condition)) {
	fn(c)
	for _, child := range c.All {
		child.walk(fn)
	}
	for _, child := range c.Any {
		child.walk(fn)
	}
}
