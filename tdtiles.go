// Package tdtiles provides convenient top-level wrappers around the
// archive, gltf, metadata, and propdecode packages, simplifying the most
// common use case: open a 3TZ (or plain ZIP) archive, load a tile's glTF
// content, and decode one of its metadata properties.
//
// For advanced usage and fine-grained control — streaming a large archive,
// building a standalone 3TZ index, sampling property textures, or working
// directly with the normalized EXT_feature_metadata/EXT_structural_metadata
// tables — use the underlying packages directly.
package tdtiles

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/nimbusgeo/tdtiles/archive"
	"github.com/nimbusgeo/tdtiles/errs"
	"github.com/nimbusgeo/tdtiles/gltf"
	"github.com/nimbusgeo/tdtiles/metadata"
	"github.com/nimbusgeo/tdtiles/propdecode"
)

// Content is a loaded glTF tile and its normalized metadata tables, ready
// for property decoding.
type Content struct {
	Doc              *gltf.Document
	PropertyTables   *metadata.Set
	PropertyTextures *metadata.Set
}

// OpenArchive opens the 3TZ (or plain ZIP) archive at path. Equivalent to
// archive.Open; re-exported here so callers that only need the common path
// don't need a second import.
func OpenArchive(path string) (*archive.Handle, error) {
	return archive.Open(path)
}

// LoadContent fetches innerPath from h, decompresses it, and loads it as a
// glTF document (GLB or plain JSON), resolving all of its buffers and
// normalizing its metadata tables if present. baseDir is used to resolve
// any external buffer URIs the document declares; pass the archive's own
// directory if the tile references sibling files outside the archive, or ""
// if every buffer is embedded (GLB BIN, data URIs).
func LoadContent(h *archive.Handle, innerPath, baseDir string) (*Content, error) {
	data, err := h.FetchDecoded(innerPath)
	if err != nil {
		return nil, err
	}

	if baseDir == "" {
		baseDir = filepath.Dir(innerPath)
	}

	doc, err := gltf.Load(data, baseDir)
	if err != nil {
		return nil, err
	}

	if err := doc.LoadAllBuffers(); err != nil {
		return nil, err
	}

	return &Content{
		Doc:              doc,
		PropertyTables:   metadata.LoadPropertyTables(doc),
		PropertyTextures: metadata.LoadPropertyTextures(doc),
	}, nil
}

// DecodeTableProperty decodes propertyName out of the named property table.
// Returns errs.ErrNotFound if no table is registered under tableName.
func (c *Content) DecodeTableProperty(tableName, propertyName string) (any, error) {
	table, ok := c.PropertyTables.Named(tableName)
	if !ok {
		return nil, fmt.Errorf("%w: property table %q", errs.ErrNotFound, tableName)
	}

	return propdecode.NewTable(c.Doc, table).DecodeProperty(propertyName)
}

// DecodeTextureProperty samples propertyName out of the named property
// texture over rect: resolving its source image, decoding it, and reading
// its channel letters at every pixel in rect. Returns errs.ErrNotFound if no
// property texture is registered under tableName. Callers driving an
// interactive preview should keep rect small (e.g. 4x4 or 256 pixels total)
// — there is no sampling cap enforced here.
func (c *Content) DecodeTextureProperty(tableName, propertyName string, rect image.Rectangle) ([][][]float64, error) {
	table, ok := c.PropertyTextures.Named(tableName)
	if !ok {
		return nil, fmt.Errorf("%w: property texture %q", errs.ErrNotFound, tableName)
	}

	return propdecode.NewTable(c.Doc, table).DecodeTextureProperty(propertyName, rect)
}
