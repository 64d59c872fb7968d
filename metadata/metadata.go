// Package metadata normalizes the two glTF metadata extension generations —
// the older EXT_feature_metadata and the newer EXT_structural_metadata —
// into one PropertyTable / PropertyTexture shape, so package propdecode
// never has to branch on which generation produced a document.
package metadata

import (
	"fmt"

	"github.com/nimbusgeo/tdtiles/errs"
	"github.com/nimbusgeo/tdtiles/format"
	"github.com/nimbusgeo/tdtiles/gltf"
)

// PropertyTable is one normalized feature table (or feature texture): a
// name, the glTF schema class it conforms to, and its raw property
// definitions as found in the document (shape still varies per generation —
// package propdecode resolves the per-generation field names via Fields).
type PropertyTable struct {
	Name       string
	Class      string
	Raw        map[string]any
	Generation format.Generation
}

// Fields returns the generation-specific JSON key names that locate a
// property's values buffer view, its string-offset buffer view, its
// array-offset buffer view, and its fixed array-count field. Package
// propdecode indexes a property's raw definition with these instead of
// re-branching on generation at every call site.
type Fields struct {
	BufferView             string
	StringOffsetBufferView string
	ArrayOffsetBufferView  string
	ComponentCount         string
}

// FieldsFor returns the compatibility map of JSON key names for gen.
func FieldsFor(gen format.Generation) Fields {
	if gen == format.GenerationStructuralMetadata {
		return Fields{
			BufferView:             "values",
			StringOffsetBufferView: "stringOffsets",
			ArrayOffsetBufferView:  "arrayOffsets",
			ComponentCount:         "count",
		}
	}

	return Fields{
		BufferView:             "bufferView",
		StringOffsetBufferView: "stringOffsetBufferView",
		ArrayOffsetBufferView:  "stringOffsetBufferView",
		ComponentCount:         "componentCount",
	}
}

// Set is a normalized, name-indexed collection of property tables.
type Set struct {
	tables  []PropertyTable
	byName  map[string]int
	byClass map[string]int
}

// Len returns the number of tables in the set.
func (s *Set) Len() int { return len(s.tables) }

// At returns the table at index i.
func (s *Set) At(i int) PropertyTable { return s.tables[i] }

// Named returns the table registered under name, and whether it was found.
func (s *Set) Named(name string) (PropertyTable, bool) {
	i, ok := s.byName[name]
	if !ok {
		return PropertyTable{}, false
	}
	return s.tables[i], true
}

// Names returns every table name in the set, in table order.
func (s *Set) Names() []string {
	names := make([]string, len(s.tables))
	for i, t := range s.tables {
		names[i] = t.Name
	}
	return names
}

func newSet() *Set {
	return &Set{byName: make(map[string]int), byClass: make(map[string]int)}
}

func (s *Set) add(t PropertyTable) {
	idx := len(s.tables)
	s.tables = append(s.tables, t)
	s.byName[t.Name] = idx
	if t.Class != "" {
		s.byClass[t.Class] = idx
	}
}

// LoadPropertyTables normalizes doc's feature/property tables
// ("featureTables" under EXT_feature_metadata, "propertyTables" under
// EXT_structural_metadata) into a Set. A document with no metadata
// extension, or whose extension lacks the tables key entirely, yields an
// empty Set.
func LoadPropertyTables(doc *gltf.Document) *Set {
	return loadTables(doc, "propertyTables", "featureTables")
}

// LoadPropertyTextures normalizes doc's feature/property textures
// ("featureTextures" under EXT_feature_metadata, "propertyTextures" under
// EXT_structural_metadata) into a Set.
func LoadPropertyTextures(doc *gltf.Document) *Set {
	return loadTables(doc, "propertyTextures", "featureTextures")
}

func loadTables(doc *gltf.Document, structuralKey, featureKey string) *Set {
	set := newSet()

	switch doc.Mode {
	case format.GenerationStructuralMetadata:
		ext, _ := extensionBlock(doc, "EXT_structural_metadata")
		raw, ok := ext[structuralKey].([]any)
		if !ok {
			return set
		}
		for _, item := range raw {
			table, _ := item.(map[string]any)
			name, _ := table["name"].(string)
			class, _ := table["class"].(string)
			if name == "" {
				name = class
			}
			set.add(PropertyTable{Name: name, Class: class, Raw: table, Generation: doc.Mode})
		}

	case format.GenerationFeatureMetadata:
		ext, _ := extensionBlock(doc, "EXT_feature_metadata")
		raw, ok := ext[featureKey].(map[string]any)
		if !ok {
			return set
		}
		for name, item := range raw {
			table, _ := item.(map[string]any)
			class, _ := table["class"].(string)
			set.add(PropertyTable{Name: name, Class: class, Raw: table, Generation: doc.Mode})
		}
	}

	return set
}

func extensionBlock(doc *gltf.Document, name string) (map[string]any, bool) {
	extensions, ok := doc.Doc["extensions"].(map[string]any)
	if !ok {
		return nil, false
	}
	block, ok := extensions[name].(map[string]any)
	return block, ok
}

// TextureIndex resolves a property texture's referenced textures[] index,
// normalizing the EXT_feature_metadata generation's nested
// {"texture":{"index":N}} shape and EXT_structural_metadata's flat
// {"index":N} shape into one value.
func TextureIndex(gen format.Generation, propDef map[string]any) (int, bool) {
	if gen == format.GenerationFeatureMetadata {
		tex, ok := propDef["texture"].(map[string]any)
		if !ok {
			return 0, false
		}
		idx, ok := tex["index"].(float64)
		return int(idx), ok
	}

	idx, ok := propDef["index"].(float64)
	return int(idx), ok
}

// channelLetters maps a property texture property's "channels" index list
// (indices into the decoded pixel's component order) into the normalized
// letter string spec documents for a property texture: 0/1/2/3 -> r/g/b/a.
var channelLetters = [4]byte{'r', 'g', 'b', 'a'}

// TextureChannelLetters returns propDef's normalized channel-letter string
// (e.g. "r", "rg"), built from its "channels" index list — the same field
// name both metadata generations use.
func TextureChannelLetters(propDef map[string]any) (string, error) {
	raw, ok := propDef["channels"].([]any)
	if !ok || len(raw) == 0 {
		return "", fmt.Errorf("%w: property texture property has no channels", errs.ErrSchemaError)
	}

	letters := make([]byte, len(raw))
	for i, v := range raw {
		idx, ok := v.(float64)
		if !ok || int(idx) < 0 || int(idx) >= len(channelLetters) {
			return "", fmt.Errorf("%w: channel entry %v out of range", errs.ErrSchemaError, v)
		}
		letters[i] = channelLetters[int(idx)]
	}

	return string(letters), nil
}

// Schema returns the glTF schema object ("classes"/"enums") for doc's
// metadata generation, or nil if doc has no metadata.
func Schema(doc *gltf.Document) map[string]any {
	var key string
	switch doc.Mode {
	case format.GenerationStructuralMetadata:
		key = "EXT_structural_metadata"
	case format.GenerationFeatureMetadata:
		key = "EXT_feature_metadata"
	default:
		return nil
	}

	ext, ok := extensionBlock(doc, key)
	if !ok {
		return nil
	}
	schema, _ := ext["schema"].(map[string]any)
	return schema
}

// Classes returns the schema's "classes" map, or an empty map if absent.
func Classes(doc *gltf.Document) map[string]any {
	schema := Schema(doc)
	if schema == nil {
		return map[string]any{}
	}
	classes, _ := schema["classes"].(map[string]any)
	if classes == nil {
		return map[string]any{}
	}
	return classes
}

// Enums returns the schema's "enums" map, or an empty map if absent.
func Enums(doc *gltf.Document) map[string]any {
	schema := Schema(doc)
	if schema == nil {
		return map[string]any{}
	}
	enums, _ := schema["enums"].(map[string]any)
	if enums == nil {
		return map[string]any{}
	}
	return enums
}
