// Package shader resolves WGSL modules by name for the GPU backend. Modules are read from a file system, run
// through the @oxy: pre-processor and cached per constant set.
package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// ErrUnknownModule is returned when no file exists for a module name.
var ErrUnknownModule = errors.New("unknown shader module")

// VertexFormat is the format of a single vertex attribute.
type VertexFormat int

const (
	VertexFormatFloat32 VertexFormat = iota
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
	VertexFormatUint32
	VertexFormatUint32x2
	VertexFormatUint32x4
	VertexFormatSint32
	VertexFormatUnorm8x4
)

var vertexFormats = []struct {
	name string
	size uint64
}{
	VertexFormatFloat32:   {"float32", 4},
	VertexFormatFloat32x2: {"float32x2", 8},
	VertexFormatFloat32x3: {"float32x3", 12},
	VertexFormatFloat32x4: {"float32x4", 16},
	VertexFormatUint32:    {"uint32", 4},
	VertexFormatUint32x2:  {"uint32x2", 8},
	VertexFormatUint32x4:  {"uint32x4", 16},
	VertexFormatSint32:    {"sint32", 4},
	VertexFormatUnorm8x4:  {"unorm8x4", 4},
}

func parseVertexFormat(name string) (VertexFormat, bool) {
	for i, f := range vertexFormats {
		if f.name == name {
			return VertexFormat(i), true
		}
	}
	return 0, false
}

func (f VertexFormat) String() string {
	if f < 0 || int(f) >= len(vertexFormats) {
		return fmt.Sprintf("VertexFormat(%d)", int(f))
	}
	return vertexFormats[f].name
}

// Size returns the size of the attribute in bytes.
func (f VertexFormat) Size() uint64 {
	return vertexFormats[f].size
}

// VertexAttribute is one attribute of a vertex buffer layout.
type VertexAttribute struct {
	Format   VertexFormat
	Offset   uint64
	Location uint32
}

// VertexLayout describes one vertex buffer slot. Attributes are tightly packed in declaration order.
type VertexLayout struct {
	Slot       uint32
	Instance   bool
	Stride     uint64
	Attributes []VertexAttribute
}

// Module is a processed shader module ready for pipeline creation.
type Module struct {
	// Name is the module name the pipeline referenced.
	Name string
	// Source is the WGSL source with includes and constants resolved.
	Source string
	// VertexLayouts are ordered by slot.
	VertexLayouts []VertexLayout
}

// Library resolves shader modules by name. Implementations are safe for concurrent use.
type Library interface {
	// Module returns the processed module for a name and a constant set.
	//
	// Parameters:
	//   - name: the module name, resolved to the file <name>.wgsl
	//   - constants: values of the module's @oxy:constant declarations
	//
	// Returns:
	//   - Module: the processed module
	//   - error: ErrUnknownModule, or a pre-processor error
	Module(name string, constants map[string]float64) (Module, error)
}

// library is the implementation of the Library interface.
type library struct {
	fsys fs.FS

	mu    sync.Mutex
	cache map[string]Module
}

var _ Library = &library{}

// NewLibrary creates a Library reading <name>.wgsl files from fsys.
//
// Parameters:
//   - fsys: the file system holding the WGSL sources
//
// Returns:
//   - Library: the library
func NewLibrary(fsys fs.FS) Library {
	return &library{
		fsys:  fsys,
		cache: make(map[string]Module),
	}
}

func (l *library) Module(name string, constants map[string]float64) (Module, error) {
	key := cacheKey(name, constants)

	l.mu.Lock()
	defer l.mu.Unlock()

	if m, ok := l.cache[key]; ok {
		return m, nil
	}

	p := newPreProcessor(l.read, constants)
	source, err := p.Process(name)
	if err != nil {
		return Module{}, fmt.Errorf("shader %q: %w", name, err)
	}
	layouts, err := p.VertexLayouts()
	if err != nil {
		return Module{}, fmt.Errorf("shader %q: %w", name, err)
	}
	m := Module{Name: name, Source: source, VertexLayouts: layouts}
	l.cache[key] = m
	return m, nil
}

func (l *library) read(name string) (string, error) {
	data, err := fs.ReadFile(l.fsys, name+".wgsl")
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w %q", ErrUnknownModule, name)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func cacheKey(name string, constants map[string]float64) string {
	var b strings.Builder
	b.WriteString(name)
	for _, k := range slices.Sorted(maps.Keys(constants)) {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(constants[k], 'g', -1, 64))
	}
	return b.String()
}
