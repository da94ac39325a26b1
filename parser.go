package helml

import (
	"strconv"

	"github.com/helml-lang/go-helml/vc85"
)

// parser builds a tree from the lines produced by a lexer.
//
// The key path of the open containers is kept on a stack; each line's level
// decides how many entries are popped before its key is resolved against
// the container at the top of the path.
type parser struct {
	codec *Codec
	lex   *lexer
	root  *Container

	stack     []string // Keys from the root to the open container.
	minLevel  int      // Smallest level seen so far, -1 before the first line.
	baseLevel int      // Offset added by ">>" indent-shift blocks.

	layerInit string          // Layer restored on every dedent.
	layerCurr string          // Layer values are currently assigned to.
	requested map[string]bool // Layers whose values are kept.
	layers    []string        // Discovered layers in order.
	seen      map[string]bool
}

// newParser creates a parser that keeps values from the given layers.
func (c *Codec) newParser(l *lexer, layers []string) *parser {
	p := &parser{
		codec:     c,
		lex:       l,
		root:      NewMap(),
		minLevel:  -1,
		layerInit: "0",
		layerCurr: "0",
		requested: make(map[string]bool, len(layers)),
		seen:      map[string]bool{"0": true},
		layers:    []string{"0"},
	}
	for _, id := range layers {
		p.requested[id] = true
	}
	return p
}

// parse consumes every line and returns the root container.
func (p *parser) parse() (*Container, error) {
	for {
		ln := p.lex.next()
		if ln.kind == lineEOF {
			break
		}
		if err := p.parseLine(ln); err != nil {
			return nil, err
		}
	}

	if len(p.layers) > 1 {
		ids := NewList()
		for _, id := range p.layers {
			ids.Append(layerValue(id))
		}
		p.root.Set(LayersKey, Of(ids))
	}
	return p.root, nil
}

// parseLine applies a single line to the tree.
func (p *parser) parseLine(ln line) error {
	level := ln.level + p.baseLevel
	switch ln.kind {
	case lineShiftOpen:
		p.baseLevel++
		return nil
	case lineShiftClose:
		if p.baseLevel > 0 {
			p.baseLevel--
		}
		return nil
	}
	if ln.shift {
		p.baseLevel++
	}

	if p.minLevel < 0 || p.minLevel > level {
		p.minLevel = level
	}

	// Leaving nested containers restores the initial layer.
	if extra := len(p.stack) - level + p.minLevel; extra > 0 {
		if extra > len(p.stack) {
			extra = len(p.stack)
		}
		p.stack = p.stack[:len(p.stack)-extra]
		p.layerCurr = p.layerInit
	}

	parent := p.parent()

	key := ln.key
	switch {
	case ln.kind == lineLayer:
		p.setLayer(ln.key, ln.value)
		return nil
	case key == autoIndexKey:
		key = strconv.Itoa(parent.Len())
	default:
		key = decodeKey(key)
	}

	if ln.kind == lineOpen {
		if len(p.stack)+1 >= p.codec.cfg.maxDepth() {
			return p.lex.errorf(ln.num, "%w", ErrTooDeep)
		}
		parent.Set(key, Of(NewMap()))
		p.stack = append(p.stack, key)
		return nil
	}

	// Fenced blocks are consumed even when their layer is dropped, so the
	// body never leaks into the tree as regular lines.
	v, err := p.value(ln)
	if err != nil {
		return err
	}
	if !p.requested[p.layerCurr] {
		return nil
	}
	p.assign(parent, key, v)
	return nil
}

// value decodes the value part of ln, reading a fenced block if it opens one.
func (p *parser) value(ln line) (Value, error) {
	closer, ok := isFence(ln.value)
	if !ok {
		if !p.requested[p.layerCurr] {
			return Value{}, nil
		}
		v, err := p.codec.DecodeValue(ln.value, p.lex.d.spc)
		if err != nil {
			return Value{}, p.lex.errorf(ln.num, "%w", err)
		}
		return v, nil
	}

	body, ok := p.lex.readFence(closer)
	if !ok {
		return String(UnclosedFence), nil
	}
	if closer == ">" && p.requested[p.layerCurr] {
		b, err := vc85.Decode(body)
		if err != nil {
			return Value{}, p.lex.errorf(ln.num, "%w", err)
		}
		return String(string(b)), nil
	}
	return String(body), nil
}

// parent returns the container at the top of the key path, replacing any
// scalar found on the way with an empty map.
func (p *parser) parent() *Container {
	cur := p.root
	for _, key := range p.stack {
		v, ok := cur.Get(key)
		if !ok || !v.IsContainer() {
			child := NewMap()
			cur.Set(key, Of(child))
			cur = child
			continue
		}
		cur = v.Container()
	}
	return cur
}

// assign stores v at key, coalescing repeated keys into a list when
// DuplicateKeyList is set.
func (p *parser) assign(parent *Container, key string, v Value) {
	if p.codec.cfg.DuplicateKeyList {
		if old, ok := parent.Get(key); ok {
			if old.IsContainer() {
				old.Container().Append(v)
			} else {
				parent.Set(key, Of(NewList(old, v)))
			}
			return
		}
	}
	parent.Set(key, v)
}

// setLayer applies a layer directive.
func (p *parser) setLayer(key, value string) {
	switch key {
	case layerInitKey:
		p.layerInit = value
		if p.layerInit == "" {
			p.layerInit = "0"
		}
		p.layerCurr = p.layerInit
	case layerNextKey:
		switch {
		case value != "":
			p.layerCurr = value
		default:
			if n, err := strconv.Atoi(p.layerCurr); err == nil {
				p.layerCurr = strconv.Itoa(n + 1)
			} else {
				p.layerCurr = "0"
			}
		}
	}

	if !p.seen[p.layerCurr] {
		p.seen[p.layerCurr] = true
		p.layers = append(p.layers, p.layerCurr)
	}
}

// layerValue returns numeric layer ids as integers.
func layerValue(id string) Value {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil && strconv.FormatInt(n, 10) == id {
		return Int(n)
	}
	return String(id)
}
