package sqlgate

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// walk calls fn for every Node in the tree rooted at m, parents first.
func walk(m proto.Message, fn func(n *pg_query.Node)) {
	walkMessage(m.ProtoReflect(), fn)
}

func walkMessage(m protoreflect.Message, fn func(n *pg_query.Node)) {
	if n, ok := m.Interface().(*pg_query.Node); ok {
		fn(n)
	}
	m.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		if fd.Message() == nil || fd.IsMap() {
			return true
		}
		if fd.IsList() {
			list := v.List()
			for i := 0; i < list.Len(); i++ {
				walkMessage(list.Get(i).Message(), fn)
			}
			return true
		}
		walkMessage(v.Message(), fn)
		return true
	})
}

// names returns the lowercased String parts of a qualified name list.
func names(parts []*pg_query.Node) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s, ok := p.Node.(*pg_query.Node_String_); ok {
			out = append(out, strings.ToLower(s.String_.Sval))
		}
	}
	return out
}

func lastName(parts []*pg_query.Node) string {
	n := names(parts)
	if len(n) == 0 {
		return ""
	}
	return n[len(n)-1]
}

// columnName returns the column a ColumnRef node names, or "".
func columnName(n *pg_query.Node) string {
	if n == nil {
		return ""
	}
	ref, ok := n.Node.(*pg_query.Node_ColumnRef)
	if !ok {
		return ""
	}
	return lastName(ref.ColumnRef.Fields)
}

// numericConst reports whether n is an integer or float literal.
func numericConst(n *pg_query.Node) bool {
	if n == nil {
		return false
	}
	c, ok := n.Node.(*pg_query.Node_AConst)
	if !ok {
		return false
	}
	switch c.AConst.Val.(type) {
	case *pg_query.A_Const_Ival, *pg_query.A_Const_Fval:
		return true
	}
	return false
}

// intValue returns the value of an integer literal.
func intValue(n *pg_query.Node) (int32, bool) {
	if n == nil {
		return 0, false
	}
	c, ok := n.Node.(*pg_query.Node_AConst)
	if !ok {
		return 0, false
	}
	iv, ok := c.AConst.Val.(*pg_query.A_Const_Ival)
	if !ok {
		return 0, false
	}
	if iv.Ival == nil {
		return 0, true
	}
	return iv.Ival.Ival, true
}

func operator(e *pg_query.A_Expr) string {
	if e.Kind != pg_query.A_Expr_Kind_AEXPR_OP {
		return ""
	}
	return lastName(e.Name)
}
