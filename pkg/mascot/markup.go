package mascot

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
)

// Group ids inside the base asset that the eye-state transforms target.
const (
	EyeFillGroup    = "Eye_Fill"
	EyeOutlineGroup = "Eye_Outline"
)

// WhiteStroke is the stroke value written by the white eye-state transform.
const WhiteStroke = "rgb(255, 255, 255)"

// attrPattern matches one name="value" pair inside a raw start tag.
var attrPattern = regexp.MustCompile(`\s([^\s=/>]+)\s*=\s*("[^"]*"|'[^']*')`)

// node is one element of the scanned document, with the byte offsets of its
// open tag and its full extent so edits can be spliced into the original text.
type node struct {
	name    string
	attrs   []xml.Attr
	start   int // offset of '<' of the open tag
	openEnd int // offset just past the open tag
	end     int // offset just past the matching close tag
	parent  *node
}

func (n *node) attr(local string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) isGroup(id string) bool {
	if n.name != "g" {
		return false
	}
	v, ok := n.attr("id")
	return ok && v == id
}

// within reports whether n is a strict descendant of ancestor.
func (n *node) within(ancestor *node) bool {
	for p := n.parent; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// parseNodes scans doc into a node tree, returned in document order.
func parseNodes(doc []byte) ([]*node, error) {
	d := xml.NewDecoder(bytes.NewReader(doc))
	d.Strict = false

	var (
		nodes []*node
		stack []*node
	)
	for {
		start := int(d.InputOffset())
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scan markup at offset %d: %w", start, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{
				name:    t.Name.Local,
				attrs:   t.Copy().Attr,
				start:   start,
				openEnd: int(d.InputOffset()),
				end:     -1,
			}
			if len(stack) > 0 {
				n.parent = stack[len(stack)-1]
			}
			nodes = append(nodes, n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected </%s> at offset %d", t.Name.Local, start)
			}
			top := stack[len(stack)-1]
			if top.name != t.Name.Local {
				return nil, fmt.Errorf("mismatched </%s> at offset %d, want </%s>", t.Name.Local, start, top.name)
			}
			top.end = int(d.InputOffset())
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed <%s> at offset %d", stack[len(stack)-1].name, stack[len(stack)-1].start)
	}
	return nodes, nil
}

type edit struct {
	start, end int
	repl       []byte
}

func applyEdits(doc []byte, edits []edit) []byte {
	if len(edits) == 0 {
		return doc
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	var buf bytes.Buffer
	buf.Grow(len(doc))
	pos := 0
	for _, e := range edits {
		buf.Write(doc[pos:e.start])
		buf.Write(e.repl)
		pos = e.end
	}
	buf.Write(doc[pos:])
	return buf.Bytes()
}

// StripGroups removes every <g> element whose id is one of ids, from its open
// tag through its matching close tag. Nested matches go with their ancestor.
// Applying it twice is the same as applying it once.
func StripGroups(doc []byte, ids ...string) ([]byte, error) {
	nodes, err := parseNodes(doc)
	if err != nil {
		return nil, err
	}
	var (
		edits   []edit
		removed []*node
	)
	for _, n := range nodes {
		if !matchesAny(n, ids) {
			continue
		}
		inside := false
		for _, r := range removed {
			if n.within(r) {
				inside = true
				break
			}
		}
		if inside {
			continue
		}
		removed = append(removed, n)
		edits = append(edits, edit{start: n.start, end: n.end})
	}
	return applyEdits(doc, edits), nil
}

func matchesAny(n *node, ids []string) bool {
	for _, id := range ids {
		if n.isGroup(id) {
			return true
		}
	}
	return false
}

// RecolorGroupStrokes rewrites the stroke attribute of every element inside
// the first <g> whose id is id. The group's own open tag and everything
// outside it are left byte for byte as they were. A document without the
// group is returned unchanged.
func RecolorGroupStrokes(doc []byte, id, color string) ([]byte, error) {
	nodes, err := parseNodes(doc)
	if err != nil {
		return nil, err
	}
	var group *node
	for _, n := range nodes {
		if n.isGroup(id) {
			group = n
			break
		}
	}
	if group == nil {
		return doc, nil
	}
	var edits []edit
	for _, n := range nodes {
		if !n.within(group) {
			continue
		}
		if _, ok := n.attr("stroke"); !ok {
			continue
		}
		tag := doc[n.start:n.openEnd]
		edits = append(edits, edit{
			start: n.start,
			end:   n.openEnd,
			repl:  setAttr(tag, "stroke", color, false),
		})
	}
	return applyEdits(doc, edits), nil
}

// FitRoot makes the root <svg> scale to its container, centred and aspect
// preserving.
func FitRoot(doc []byte) ([]byte, error) {
	nodes, err := parseNodes(doc)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 || nodes[0].name != "svg" {
		return nil, errors.New("markup has no root <svg> element")
	}
	root := nodes[0]
	tag := doc[root.start:root.openEnd]
	tag = setAttr(tag, "preserveAspectRatio", "xMidYMid meet", true)
	tag = setAttr(tag, "style", "width:100%;height:100%;display:block", true)
	return applyEdits(doc, []edit{{start: root.start, end: root.openEnd, repl: tag}}), nil
}

// setAttr replaces the value of attribute name in a raw start tag. When the
// attribute is absent and add is true it is appended before the tag closes.
func setAttr(tag []byte, name, value string, add bool) []byte {
	quoted := []byte(`"` + value + `"`)
	found := false
	out := attrPattern.ReplaceAllFunc(tag, func(m []byte) []byte {
		sub := attrPattern.FindSubmatchIndex(m)
		if string(m[sub[2]:sub[3]]) != name {
			return m
		}
		found = true
		res := make([]byte, 0, len(m))
		res = append(res, m[:sub[4]]...)
		return append(res, quoted...)
	})
	if found || !add {
		return out
	}
	closeAt := len(out) - 1
	if closeAt > 0 && out[closeAt-1] == '/' {
		closeAt--
	}
	res := make([]byte, 0, len(out)+len(name)+len(quoted)+2)
	res = append(res, out[:closeAt]...)
	res = append(res, ' ')
	res = append(res, name...)
	res = append(res, '=')
	res = append(res, quoted...)
	return append(res, out[closeAt:]...)
}

// transformBase applies the eye-state transform to freshly fetched markup.
func transformBase(doc []byte, eye EyeState) ([]byte, error) {
	out, err := FitRoot(doc)
	if err != nil {
		return nil, err
	}
	switch eye {
	case EyeClosed:
		return StripGroups(out, EyeFillGroup, EyeOutlineGroup)
	case EyeWhite:
		return RecolorGroupStrokes(out, EyeFillGroup, WhiteStroke)
	default:
		return out, nil
	}
}
