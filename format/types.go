// Package format defines the small shared enumerations used across tdtiles:
// ZIP compression methods and glTF metadata component/property types.
package format

// CompressionMethod identifies how a ZIP local file header's payload is
// compressed. Values match the PKZIP compression method field exactly.
type CompressionMethod uint16

const (
	CompressionStore      CompressionMethod = 0    // stored, no compression
	CompressionDeflate    CompressionMethod = 8    // raw DEFLATE, no zlib wrapper
	CompressionZstdLegacy CompressionMethod = 0x17 // legacy Zstandard method code
	CompressionZstd       CompressionMethod = 0x5D // Zstandard
)

func (c CompressionMethod) String() string {
	switch c {
	case CompressionStore:
		return "Store"
	case CompressionDeflate:
		return "Deflate"
	case CompressionZstd:
		return "Zstd"
	case CompressionZstdLegacy:
		return "ZstdLegacy"
	default:
		return "Unknown"
	}
}

// ComponentType identifies the numeric wire representation of a schema
// property's values.
type ComponentType string

const (
	Int8    ComponentType = "INT8"
	UInt8   ComponentType = "UINT8"
	Int16   ComponentType = "INT16"
	UInt16  ComponentType = "UINT16"
	Int32   ComponentType = "INT32"
	UInt32  ComponentType = "UINT32"
	Int64   ComponentType = "INT64"
	UInt64  ComponentType = "UINT64"
	Float32 ComponentType = "FLOAT32"
	Float64 ComponentType = "FLOAT64"
)

// Size returns the component type's fixed byte width, or 0 if unknown.
func (c ComponentType) Size() int {
	switch c {
	case Int8, UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Int64, UInt64, Float64:
		return 8
	default:
		return 0
	}
}

// Signed reports whether the component type is a signed integer type. Float
// types report false; callers should not normalize floats.
func (c ComponentType) Signed() bool {
	switch c {
	case Int8, Int16, Int32, Int64:
		return true
	default:
		return false
	}
}

// PropertyType identifies the logical shape of a schema property's values.
type PropertyType string

const (
	Scalar  PropertyType = "SCALAR"
	Vec2    PropertyType = "VEC2"
	Vec3    PropertyType = "VEC3"
	Vec4    PropertyType = "VEC4"
	Mat2    PropertyType = "MAT2"
	Mat3    PropertyType = "MAT3"
	Mat4    PropertyType = "MAT4"
	String  PropertyType = "STRING"
	Boolean PropertyType = "BOOLEAN"
	Enum    PropertyType = "ENUM"
	Array   PropertyType = "ARRAY"
)

// ComponentCount returns the number of scalar components packed into one
// value of the given property type (1 for SCALAR, 2/3/4 for VECn, 4/9/16 for
// MATn). STRING/BOOLEAN/ENUM/ARRAY are not fixed-width and return 0.
func (p PropertyType) ComponentCount() int {
	switch p {
	case Scalar:
		return 1
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4, Mat2:
		return 4
	case Mat3:
		return 9
	case Mat4:
		return 16
	default:
		return 0
	}
}

// Generation identifies which glTF metadata extension generation a document
// uses. The two generations describe the same logical data with different
// JSON key names (see package metadata's FieldsFor).
type Generation uint8

const (
	GenerationUnknown Generation = iota
	GenerationFeatureMetadata
	GenerationStructuralMetadata
)

func (g Generation) String() string {
	switch g {
	case GenerationFeatureMetadata:
		return "EXT_feature_metadata"
	case GenerationStructuralMetadata:
		return "EXT_structural_metadata"
	default:
		return "Unknown"
	}
}
