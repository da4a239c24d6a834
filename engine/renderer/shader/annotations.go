// annotations.go defines the annotation types and parser of the Oxy WGSL pre-processor. Annotations are single-line
// WGSL comments prefixed with @oxy: that include shared modules, declare pipeline constants and describe vertex
// buffer layouts so the GPU backend can create pipelines from a module name alone.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeInclude injects the processed source of another module at the annotation site. Each module is
	// included at most once per processed shader.
	//
	// Syntax: //@oxy:include <module>
	//
	// Example: //@oxy:include common
	AnnotationTypeInclude AnnotationType = "include"

	// AnnotationTypeConstant declares a pipeline constant. The line is replaced with a WGSL const declaration whose
	// value comes from the pipeline, or from the default when the pipeline does not set it.
	//
	// Syntax: //@oxy:constant <name> <f32|u32|i32|bool> [default]
	//
	// Example: //@oxy:constant SAMPLE_COUNT u32 1
	AnnotationTypeConstant AnnotationType = "constant"

	// AnnotationTypeVertex declares the layout of a vertex buffer slot. Attribute locations are assigned in order,
	// continuing across slots.
	//
	// Syntax: //@oxy:vertex <slot> <vertex|instance> <format>...
	//
	// Example: //@oxy:vertex 0 vertex float32x3 float32x3 float32x2
	AnnotationTypeVertex AnnotationType = "vertex"
)

// Annotation represents a single parsed @oxy: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments, excluding the type:
	//   - include:  [0] = module name
	//   - constant: [0] = name, [1] = WGSL type, [2] = default (optional)
	//   - vertex:   [0] = slot, [1] = step mode, [2:] = attribute formats
	Args []string

	// Line is the 1-based line number in the module source. Used for error reporting.
	Line int
}

var constantTypes = []string{"f32", "u32", "i32", "bool"}

// parseAnnotation parses a single line of WGSL source.
//
// Parameters:
//   - line: the raw source line
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	after, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return nil, nil
	}
	after, ok = strings.CutPrefix(strings.TrimSpace(after), annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case AnnotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
	case AnnotationTypeConstant:
		if len(args) < 3 || len(args) > 4 {
			return nil, fmt.Errorf("line %d: @oxy constant annotation requires a name, a type and an optional default", lineNum)
		}
		if !slices.Contains(constantTypes, args[2]) {
			return nil, fmt.Errorf("line %d: unsupported constant type %q in @oxy constant annotation", lineNum, args[2])
		}
		if len(args) == 4 {
			if _, err := strconv.ParseFloat(args[3], 64); err != nil && args[3] != "true" && args[3] != "false" {
				return nil, fmt.Errorf("line %d: invalid default %q in @oxy constant annotation", lineNum, args[3])
			}
		}
	case AnnotationTypeVertex:
		if len(args) < 4 {
			return nil, fmt.Errorf("line %d: @oxy vertex annotation requires a slot, a step mode and at least one format", lineNum)
		}
		if _, err := strconv.ParseUint(args[1], 10, 32); err != nil {
			return nil, fmt.Errorf("line %d: invalid slot %q in @oxy vertex annotation: %v", lineNum, args[1], err)
		}
		if args[2] != "vertex" && args[2] != "instance" {
			return nil, fmt.Errorf("line %d: unknown step mode %q in @oxy vertex annotation", lineNum, args[2])
		}
		for _, f := range args[3:] {
			if _, ok := parseVertexFormat(f); !ok {
				return nil, fmt.Errorf("line %d: unknown vertex format %q in @oxy vertex annotation", lineNum, f)
			}
		}
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}

	return &Annotation{
		Type: AnnotationType(args[0]),
		Args: args[1:],
		Line: lineNum,
	}, nil
}

