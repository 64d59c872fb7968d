package propdecode

import (
	"fmt"

	"github.com/nimbusgeo/tdtiles/errs"
	"github.com/nimbusgeo/tdtiles/format"
	"github.com/nimbusgeo/tdtiles/gltf"
	"github.com/nimbusgeo/tdtiles/metadata"
)

// Table binds a normalized property table to its document, so repeated
// DecodeProperty calls against the same table don't re-resolve its schema
// class, enum, and field-name mapping every time.
type Table struct {
	Doc     *gltf.Document
	Table   metadata.PropertyTable
	Fields  metadata.Fields
	Classes map[string]any
	Enums   map[string]any
}

// NewTable binds table (as returned by metadata.LoadPropertyTables) to doc.
func NewTable(doc *gltf.Document, table metadata.PropertyTable) Table {
	return Table{
		Doc:     doc,
		Table:   table,
		Fields:  metadata.FieldsFor(table.Generation),
		Classes: metadata.Classes(doc),
		Enums:   metadata.Enums(doc),
	}
}

func (t Table) elementCount() (int, error) {
	count, ok := t.Table.Raw["count"].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: table %q has no count", errs.ErrSchemaError, t.Table.Name)
	}
	return int(count), nil
}

func (t Table) classDef(propName string) (map[string]any, error) {
	class, ok := t.Classes[t.Table.Class].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: unknown class %q", errs.ErrSchemaError, t.Table.Class)
	}
	props, ok := class["properties"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: class %q has no properties", errs.ErrSchemaError, t.Table.Class)
	}
	def, ok := props[propName].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: property %q not found in class %q", errs.ErrSchemaError, propName, t.Table.Class)
	}
	return def, nil
}

func (t Table) propDef(propName string) (map[string]any, error) {
	props, ok := t.Table.Raw["properties"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: table %q has no properties", errs.ErrSchemaError, t.Table.Name)
	}
	def, ok := props[propName].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: property %q not found in table %q", errs.ErrSchemaError, propName, t.Table.Name)
	}
	return def, nil
}

func (t Table) bufferViewData(propDef map[string]any, field string) ([]byte, error) {
	idx, ok := propDef[field].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: property has no %q buffer view", errs.ErrSchemaError, field)
	}
	return t.Doc.BufferView(int(idx))
}

func componentType(classDef map[string]any) (format.ComponentType, bool) {
	ct, ok := classDef["componentType"].(string)
	if !ok {
		return "", false
	}
	return format.ComponentType(ct), true
}

func (t Table) enumSchema(classDef map[string]any) (EnumSchema, error) {
	enumType, ok := classDef["enumType"].(string)
	if !ok {
		return EnumSchema{}, fmt.Errorf("%w: enum property has no enumType", errs.ErrSchemaError)
	}
	raw, ok := t.Enums[enumType].(map[string]any)
	if !ok {
		return EnumSchema{}, fmt.Errorf("%w: enum type %q not found in schema", errs.ErrSchemaError, enumType)
	}
	return BuildEnumSchema(raw)
}

func offsetScaleOf(classDef map[string]any) (offset, scale float64, normalized bool) {
	scale = 1
	if v, ok := classDef["offset"].(float64); ok {
		offset = v
	}
	if v, ok := classDef["scale"].(float64); ok {
		scale = v
	}
	if v, ok := classDef["normalized"].(bool); ok {
		normalized = v
	}
	return offset, scale, normalized
}

// DecodeProperty decodes every element of propName across table's rows. The
// returned value's shape depends on the schema (see package doc / spec.md
// 4.I): []float64 for SCALAR, [][]float64 for VECn/MATn/fixed numeric
// arrays, []bool / [][]bool for BOOLEAN, []string / [][]string for
// ENUM/STRING, and [][]float64 / [][]string for dynamic arrays (rows may
// differ in length).
func (t Table) DecodeProperty(propName string) (any, error) {
	propDef, err := t.propDef(propName)
	if err != nil {
		return nil, err
	}
	classDef, err := t.classDef(propName)
	if err != nil {
		return nil, err
	}

	elementCount, err := t.elementCount()
	if err != nil {
		return nil, err
	}

	propType := format.PropertyType("")
	if v, ok := classDef["type"].(string); ok {
		propType = format.PropertyType(v)
	}

	isArray := false
	if t.Table.Generation == format.GenerationStructuralMetadata {
		isArray, _ = classDef["array"].(bool)
	} else {
		isArray = propType == format.Array
	}

	if isArray {
		return t.decodeArrayProperty(propName, propDef, classDef, propType, elementCount)
	}

	switch propType {
	case format.Boolean:
		data, err := t.bufferViewData(propDef, t.Fields.BufferView)
		if err != nil {
			return nil, err
		}
		return DecodeBooleans(elementCount, data)

	case format.Enum:
		schema, err := t.enumSchema(classDef)
		if err != nil {
			return nil, err
		}
		data, err := t.bufferViewData(propDef, t.Fields.BufferView)
		if err != nil {
			return nil, err
		}
		return DecodeEnumScalar(schema, elementCount, data)

	case format.String:
		return t.decodeStringScalar(propDef, elementCount)
	}

	ct, hasComponentType := componentType(classDef)
	if !hasComponentType {
		// Oldest EXT_feature_metadata documents name a scalar property's
		// numeric kind directly in "type" (e.g. "UINT8"), with no separate
		// componentType field at all.
		if legacyCT := format.ComponentType(propType); legacyCT.Size() > 0 {
			ct, hasComponentType = legacyCT, true
			propType = format.Scalar
		}
	}
	if !hasComponentType {
		return nil, fmt.Errorf("%w: property %q has no componentType and propType %q is not STRING/BOOLEAN/ENUM", errs.ErrSchemaError, propName, propType)
	}

	data, err := t.bufferViewData(propDef, t.Fields.BufferView)
	if err != nil {
		return nil, err
	}

	offset, scale, normalized := offsetScaleOf(classDef)

	if propType == format.Scalar || propType == "" {
		values, err := ReadScalarValues(ct, elementCount, data)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			values[i] = ApplyOffsetScale(ct, v, offset, scale, normalized)
		}
		return values, nil
	}

	componentCount := propType.ComponentCount()
	if componentCount == 0 {
		return nil, fmt.Errorf("%w: unhandled property type %q", errs.ErrSchemaError, propType)
	}

	rows, err := ReadFixedSizeArrayValues(ct, elementCount, componentCount, data)
	if err != nil {
		return nil, err
	}
	return ApplyOffsetScaleRows(ct, rows, offset, scale, normalized), nil
}

func (t Table) decodeStringScalar(propDef map[string]any, elementCount int) ([]string, error) {
	offsetType := format.UInt32
	if v, ok := propDef["offsetType"].(string); ok && v != "" {
		offsetType = format.ComponentType(v)
	}

	offsetData, err := t.bufferViewData(propDef, t.Fields.StringOffsetBufferView)
	if err != nil {
		return nil, err
	}
	valuesData, err := t.bufferViewData(propDef, t.Fields.BufferView)
	if err != nil {
		return nil, err
	}

	return DecodeStrings(elementCount, offsetType, offsetData, valuesData)
}

func (t Table) decodeArrayProperty(propName string, propDef, classDef map[string]any, propType format.PropertyType, elementCount int) (any, error) {
	_, isFixedSize := classDef[t.Fields.ComponentCount]
	if isFixedSize {
		return t.decodeFixedSizeArrayProperty(propDef, classDef, propType, elementCount)
	}
	return t.decodeDynamicArrayProperty(propName, propDef, classDef, propType, elementCount)
}

func (t Table) decodeFixedSizeArrayProperty(propDef, classDef map[string]any, propType format.PropertyType, elementCount int) (any, error) {
	componentCount := int(classDef[t.Fields.ComponentCount].(float64))

	ct, hasComponentType := componentType(classDef)
	if !hasComponentType {
		switch propType {
		case format.Boolean:
			data, err := t.bufferViewData(propDef, t.Fields.BufferView)
			if err != nil {
				return nil, err
			}
			return DecodeBooleanArray(elementCount, componentCount, data)

		case format.Enum:
			schema, err := t.enumSchema(classDef)
			if err != nil {
				return nil, err
			}
			data, err := t.bufferViewData(propDef, t.Fields.BufferView)
			if err != nil {
				return nil, err
			}
			return DecodeEnumFixedArray(schema, elementCount, componentCount, data)
		}
		return nil, fmt.Errorf("%w: fixed-size array property has no componentType and propType %q is not BOOLEAN/ENUM", errs.ErrSchemaError, propType)
	}

	if t.Table.Generation == format.GenerationStructuralMetadata {
		if perElement := propType.ComponentCount(); perElement > 0 {
			componentCount *= perElement
		}
	}

	data, err := t.bufferViewData(propDef, t.Fields.BufferView)
	if err != nil {
		return nil, err
	}

	rows, err := ReadFixedSizeArrayValues(ct, elementCount, componentCount, data)
	if err != nil {
		return nil, err
	}

	offset, scale, normalized := offsetScaleOf(classDef)
	return ApplyOffsetScaleRows(ct, rows, offset, scale, normalized), nil
}

func (t Table) decodeDynamicArrayProperty(propName string, propDef, classDef map[string]any, propType format.PropertyType, elementCount int) (any, error) {
	arrayOffsetType := format.UInt32
	if v, ok := propDef["arrayOffsetType"].(string); ok && v != "" {
		arrayOffsetType = format.ComponentType(v)
	}

	arrayOffsetData, err := t.bufferViewData(propDef, t.Fields.ArrayOffsetBufferView)
	if err != nil {
		return nil, err
	}
	arrayOffsets, err := ReadScalarValues(arrayOffsetType, elementCount+1, arrayOffsetData)
	if err != nil {
		return nil, err
	}

	data, err := t.bufferViewData(propDef, t.Fields.BufferView)
	if err != nil {
		return nil, err
	}

	if propType == format.String {
		stringOffsetType := format.UInt32
		if v, ok := propDef["stringOffsetType"].(string); ok && v != "" {
			stringOffsetType = format.ComponentType(v)
		}
		stringOffsetData, err := t.bufferViewData(propDef, t.Fields.StringOffsetBufferView)
		if err != nil {
			return nil, err
		}
		maxStringOffsetCount := int(arrayOffsets[len(arrayOffsets)-1]) + 1
		stringOffsets, err := ReadScalarValues(stringOffsetType, maxStringOffsetCount, stringOffsetData)
		if err != nil {
			return nil, err
		}
		return DecodeDynamicStrings(arrayOffsets, stringOffsets, data)
	}

	ct, hasComponentType := componentType(classDef)
	if !hasComponentType {
		return nil, fmt.Errorf("%w: dynamic array property %q has no componentType", errs.ErrSchemaError, propName)
	}

	if ct == "ENUM" {
		schema, err := t.enumSchema(classDef)
		if err != nil {
			return nil, err
		}
		return DecodeEnumDynamicArray(schema, arrayOffsets, data)
	}

	rows, err := ReadDynamicSizeArrayValues(ct, arrayOffsets, data)
	if err != nil {
		return nil, err
	}

	offset, scale, normalized := offsetScaleOf(classDef)
	return ApplyOffsetScaleRows(ct, rows, offset, scale, normalized), nil
}
