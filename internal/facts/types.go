// Package facts defines the Fact Model: the structural facts mined from one
// C source file and consumed by the renderers and the structured exporter.
package facts

// DefaultLocalStaticVarMacroName is the helper macro recognized as a
// declaration form of function-local static variables.
const DefaultLocalStaticVarMacroName = "LOCAL_STATIC_VARIABLE"

// Include is a single inclusion statement such as `#include <stdio.h>`.
type Include struct {
	Captured string `json:"captured" yaml:"captured"`
}

// Typedef is a verbatim typedef statement, brace bodies included.
type Typedef struct {
	Captured string `json:"captured" yaml:"captured"`
}

// StaticVariable is a variable declared with static storage duration.
type StaticVariable struct {
	Captured  string `json:"captured" yaml:"captured"`
	NameExpr  string `json:"name_expr" yaml:"name_expr"` // like "array[10]"
	Name      string `json:"name" yaml:"name"`           // like "array"
	DType     string `json:"dtype" yaml:"dtype"`
	IsLocal   bool   `json:"is_local" yaml:"is_local"`   // declared within a function body
	FuncName  string `json:"func_name" yaml:"func_name"` // owning function, empty if global
	Init      string `json:"init" yaml:"init"`
	ArraySize int    `json:"array_size" yaml:"array_size"`
	IsConst   bool   `json:"is_const" yaml:"is_const"`

	// Offset is the byte offset of the declaration in the comment-stripped text.
	Offset int `json:"-" yaml:"-"`
}

// Function is a function definition (signature followed by a body).
type Function struct {
	Captured string `json:"captured" yaml:"captured"`
	Name     string `json:"name" yaml:"name"`
	IsLocal  bool   `json:"is_local" yaml:"is_local"`
	RType    string `json:"rtype" yaml:"rtype"`
	Args     string `json:"args" yaml:"args"`
	ATypes   string `json:"atypes" yaml:"atypes"`
	ANames   string `json:"anames" yaml:"anames"`

	// Offset is the byte offset of the signature in the comment-stripped text.
	Offset int `json:"-" yaml:"-"`
}

// NestedCall records that Callee is called from the body of Caller.
type NestedCall struct {
	Callee Function `json:"callee" yaml:"callee"`
	Caller Function `json:"caller" yaml:"caller"`
}

// Model is the immutable aggregate of everything extracted from one source
// snapshot. Only the naming metadata is filled in after construction.
type Model struct {
	SourceName              string `json:"sourcename" yaml:"sourcename"`
	SourceDirName           string `json:"sourcedirname" yaml:"sourcedirname"`
	LocalStaticVarMacroName string `json:"lsv_macro_name" yaml:"lsv_macro_name"`

	Incs       []Include        `json:"incs" yaml:"incs"`
	Typedefs   []Typedef        `json:"typedefs" yaml:"typedefs"`
	StaticVars []StaticVariable `json:"static_vars" yaml:"static_vars"`
	Fncs       []Function       `json:"fncs" yaml:"fncs"`
	Ncls       []NestedCall     `json:"ncls" yaml:"ncls"`
	Callees    []Function       `json:"callees" yaml:"callees"`
}

// GlobalStaticVars returns the static variables declared at file scope.
func (m *Model) GlobalStaticVars() []StaticVariable {
	var out []StaticVariable
	for _, v := range m.StaticVars {
		if !v.IsLocal {
			out = append(out, v)
		}
	}
	return out
}

// LocalStaticVars returns the static variables declared inside a function.
func (m *Model) LocalStaticVars() []StaticVariable {
	var out []StaticVariable
	for _, v := range m.StaticVars {
		if v.IsLocal {
			out = append(out, v)
		}
	}
	return out
}

// LocalFunctions returns the functions declared with static storage.
func (m *Model) LocalFunctions() []Function {
	var out []Function
	for _, f := range m.Fncs {
		if f.IsLocal {
			out = append(out, f)
		}
	}
	return out
}

// UniqueCalls returns the nested calls keeping only the first call of each
// distinct callee name, in traversal order.
func (m *Model) UniqueCalls() []NestedCall {
	seen := make(map[string]bool, len(m.Ncls))
	var out []NestedCall
	for _, ncl := range m.Ncls {
		if seen[ncl.Callee.Name] {
			continue
		}
		seen[ncl.Callee.Name] = true
		out = append(out, ncl)
	}
	return out
}
