package shader

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// preProcessor resolves the annotations of one module and everything it includes.
type preProcessor struct {
	read      func(name string) (string, error)
	constants map[string]float64

	// included holds every module already emitted, stack the include chain being processed.
	included map[string]bool
	stack    []string

	declared map[string]bool
	vertex   []Annotation
}

func newPreProcessor(read func(name string) (string, error), constants map[string]float64) *preProcessor {
	return &preProcessor{
		read:      read,
		constants: constants,
		included:  make(map[string]bool),
		declared:  make(map[string]bool),
	}
}

// Process returns the source of a module with all annotations replaced. Every constant passed to the pre-processor
// must be declared by the module or one of its includes.
func (p *preProcessor) Process(name string) (string, error) {
	var out []string
	if err := p.process(name, &out); err != nil {
		return "", err
	}
	for _, k := range slices.Sorted(maps.Keys(p.constants)) {
		if !p.declared[k] {
			return "", fmt.Errorf("constant %s is not declared", k)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) process(name string, out *[]string) error {
	if slices.Contains(p.stack, name) {
		return fmt.Errorf("include cycle %s -> %s", strings.Join(p.stack, " -> "), name)
	}
	if p.included[name] {
		return nil
	}
	source, err := p.read(name)
	if err != nil {
		return err
	}
	p.included[name] = true
	p.stack = append(p.stack, name)
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()

	for i, line := range strings.Split(source, "\n") {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if a == nil {
			*out = append(*out, line)
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			if err := p.process(a.Args[0], out); err != nil {
				return err
			}
		case AnnotationTypeConstant:
			decl, err := p.constant(*a)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*out = append(*out, decl)
		case AnnotationTypeVertex:
			p.vertex = append(p.vertex, *a)
		}
	}
	return nil
}

func (p *preProcessor) constant(a Annotation) (string, error) {
	name, wgslType := a.Args[0], a.Args[1]
	if p.declared[name] {
		return "", fmt.Errorf("line %d: constant %s declared twice", a.Line, name)
	}
	p.declared[name] = true

	var value string
	if v, ok := p.constants[name]; ok {
		value = formatConstant(wgslType, v)
	} else if len(a.Args) == 3 {
		value = a.Args[2]
		if wgslType != "bool" {
			f, _ := strconv.ParseFloat(value, 64)
			value = formatConstant(wgslType, f)
		}
	} else {
		return "", fmt.Errorf("line %d: constant %s has no value", a.Line, name)
	}
	return fmt.Sprintf("const %s: %s = %s;", name, wgslType, value), nil
}

func formatConstant(wgslType string, v float64) string {
	switch wgslType {
	case "bool":
		return strconv.FormatBool(v != 0)
	case "u32":
		return strconv.FormatUint(uint64(max(v, 0)), 10) + "u"
	case "i32":
		return strconv.FormatInt(int64(v), 10) + "i"
	default:
		s := strconv.FormatFloat(v, 'f', -1, 32)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
}

// VertexLayouts returns the vertex buffer layouts declared by the processed modules, ordered by slot.
func (p *preProcessor) VertexLayouts() ([]VertexLayout, error) {
	layouts := make([]VertexLayout, 0, len(p.vertex))
	for _, a := range p.vertex {
		slot, _ := strconv.ParseUint(a.Args[0], 10, 32)
		if slices.ContainsFunc(layouts, func(l VertexLayout) bool { return l.Slot == uint32(slot) }) {
			return nil, fmt.Errorf("line %d: vertex slot %d declared twice", a.Line, slot)
		}
		layout := VertexLayout{Slot: uint32(slot), Instance: a.Args[1] == "instance"}
		for _, name := range a.Args[2:] {
			f, _ := parseVertexFormat(name)
			layout.Attributes = append(layout.Attributes, VertexAttribute{Format: f, Offset: layout.Stride})
			layout.Stride += f.Size()
		}
		layouts = append(layouts, layout)
	}
	slices.SortFunc(layouts, func(a, b VertexLayout) int { return int(a.Slot) - int(b.Slot) })

	var location uint32
	for i := range layouts {
		for j := range layouts[i].Attributes {
			layouts[i].Attributes[j].Location = location
			location++
		}
	}
	return layouts, nil
}
