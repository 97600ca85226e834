package ir

// Shape is the generation-time classification of a type. Exactly one
// shape applies to each descriptor.
type Shape int

const (
	ShapeSimple                Shape = iota // In the simple type registry
	ShapeArray                              // Fixed-length array
	ShapeList                               // Slice
	ShapeDictionary                         // Map with a string or integer key
	ShapePointer                            // Pointer, the nullable wrapper
	ShapeUnsupportedEnumerable              // Rangeable, but not an array, list or dictionary
	ShapeObject                             // Named struct
	ShapeUnsupported                        // No JSON mapping
)

// String returns the string representation of the shape.
func (s Shape) String() string {
	switch s {
	case ShapeSimple:
		return "Simple"
	case ShapeArray:
		return "Array"
	case ShapeList:
		return "List"
	case ShapeDictionary:
		return "Dictionary"
	case ShapePointer:
		return "Pointer"
	case ShapeUnsupportedEnumerable:
		return "UnsupportedEnumerable"
	case ShapeObject:
		return "Object"
	case ShapeUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// IsCollection reports whether the shape wraps element types.
func (s Shape) IsCollection() bool {
	switch s {
	case ShapeArray, ShapeList, ShapeDictionary, ShapePointer:
		return true
	}
	return false
}

// NeedsFrame reports whether a type of this shape gets generated metadata.
func (s Shape) NeedsFrame() bool {
	return s == ShapeObject || s.IsCollection()
}
