package propdecode

import (
	"fmt"

	"github.com/nimbusgeo/tdtiles/errs"
	"github.com/nimbusgeo/tdtiles/format"
)

// EnumSchema is a normalized glTF schema enum: its raw value type (default
// UINT16) and a value-to-name lookup built from its "values" array.
type EnumSchema struct {
	ValueType format.ComponentType
	ToName    map[int64]string
}

// BuildEnumSchema normalizes a raw schema enum definition (the
// "enums"[enumType] entry) into an EnumSchema.
func BuildEnumSchema(raw map[string]any) (EnumSchema, error) {
	valueType := format.UInt16
	if vt, ok := raw["valueType"].(string); ok && vt != "" {
		valueType = format.ComponentType(vt)
	}

	values, ok := raw["values"].([]any)
	if !ok {
		return EnumSchema{}, fmt.Errorf("%w: enum definition has no values array", errs.ErrSchemaError)
	}

	toName := make(map[int64]string, len(values))
	for _, item := range values {
		entry, _ := item.(map[string]any)
		name, _ := entry["name"].(string)
		value, _ := entry["value"].(float64)
		toName[int64(value)] = name
	}

	return EnumSchema{ValueType: valueType, ToName: toName}, nil
}

// Name resolves a raw decoded numeric value to its enum name.
func (e EnumSchema) Name(raw float64) (string, error) {
	name, ok := e.ToName[int64(raw)]
	if !ok {
		return "", fmt.Errorf("%w: %v", errs.ErrUnknownEnumValue, int64(raw))
	}
	return name, nil
}

// DecodeEnumScalar decodes elementCount raw enum values and maps each to
// its name.
func DecodeEnumScalar(schema EnumSchema, elementCount int, data []byte) ([]string, error) {
	raw, err := ReadScalarValues(schema.ValueType, elementCount, data)
	if err != nil {
		return nil, err
	}

	out := make([]string, elementCount)
	for i, v := range raw {
		name, err := schema.Name(v)
		if err != nil {
			return nil, err
		}
		out[i] = name
	}
	return out, nil
}

// DecodeEnumFixedArray decodes elementCount rows of componentCount raw enum
// values and maps each to its name.
func DecodeEnumFixedArray(schema EnumSchema, elementCount, componentCount int, data []byte) ([][]string, error) {
	rows, err := ReadFixedSizeArrayValues(schema.ValueType, elementCount, componentCount, data)
	if err != nil {
		return nil, err
	}
	return mapEnumRows(schema, rows)
}

// DecodeEnumDynamicArray decodes a dynamic (non-fixed-count) ARRAY of enum
// values using arrayOffsets the same way ReadDynamicSizeArrayValues does.
func DecodeEnumDynamicArray(schema EnumSchema, arrayOffsets []float64, data []byte) ([][]string, error) {
	rows, err := ReadDynamicSizeArrayValues(schema.ValueType, arrayOffsets, data)
	if err != nil {
		return nil, err
	}
	return mapEnumRows(schema, rows)
}

func mapEnumRows(schema EnumSchema, rows [][]float64) ([][]string, error) {
	out := make([][]string, len(rows))
	for i, row := range rows {
		names := make([]string, len(row))
		for j, v := range row {
			name, err := schema.Name(v)
			if err != nil {
				return nil, err
			}
			names[j] = name
		}
		out[i] = names
	}
	return out, nil
}
