// Package keytpl renders composite index key values from declarative templates.
package keytpl

import "strings"

// Separator joins the parts of a composite key value.
const Separator = "#"

// Segment is one element of a key template: either a literal string or a
// reference to an entity field whose value is substituted at build time.
type Segment struct {
	literal string
	field   string
}

// Lit returns a literal segment that is emitted verbatim.
func Lit(s string) Segment {
	return Segment{literal: s}
}

// Attr returns a segment that resolves to the named entity field.
func Attr(field string) Segment {
	return Segment{field: field}
}

// Template is an ordered list of segments for one key attribute.
type Template []Segment

// Parse converts declaration strings into a Template. A segment written as
// "{name}" declares a field reference; anything else is a literal.
func Parse(segments ...string) Template {
	tpl := make(Template, 0, len(segments))
	for _, s := range segments {
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && len(s) > 2 {
			tpl = append(tpl, Attr(s[1:len(s)-1]))
			continue
		}
		tpl = append(tpl, Lit(s))
	}
	return tpl
}

// Fields returns the entity fields referenced by the template, in order.
func (t Template) Fields() []string {
	var fields []string
	for _, seg := range t {
		if seg.field != "" {
			fields = append(fields, seg.field)
		}
	}
	return fields
}

// Render joins the prefix parts and the template's segments with Separator,
// substituting field references from values. Construction stops at the first
// field reference with no value: everything from that point on is dropped and
// the separator before it is kept, so the result is a valid begins_with
// prefix. Literal segments before the cut are preserved verbatim.
func Render(prefix []string, tpl Template, values map[string]string) string {
	parts := make([]string, 0, len(prefix)+len(tpl))
	parts = append(parts, prefix...)
	for _, seg := range tpl {
		if seg.field == "" {
			parts = append(parts, seg.literal)
			continue
		}
		v, ok := values[seg.field]
		if !ok {
			return strings.Join(parts, Separator) + Separator
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, Separator)
}

// Complete reports whether every field referenced by the template has a value.
func (t Template) Complete(values map[string]string) bool {
	for _, seg := range t {
		if seg.field == "" {
			continue
		}
		if _, ok := values[seg.field]; !ok {
			return false
		}
	}
	return true
}
