package propdecode

import (
	"fmt"
	"image"

	"github.com/nimbusgeo/tdtiles/errs"
	"github.com/nimbusgeo/tdtiles/metadata"
)

// DecodeTextureProperty resolves propName on t's bound property texture
// table to its source image, decodes it, and samples rect across the
// property's channel letters, applying the property's numeric
// normalize/offset/scale transform. t must have been built from a property
// texture (metadata.LoadPropertyTextures), not a property table.
func (t Table) DecodeTextureProperty(propName string, rect image.Rectangle) ([][][]float64, error) {
	propDef, err := t.propDef(propName)
	if err != nil {
		return nil, err
	}
	classDef, err := t.classDef(propName)
	if err != nil {
		return nil, err
	}

	texIdx, ok := metadata.TextureIndex(t.Table.Generation, propDef)
	if !ok {
		return nil, fmt.Errorf("%w: property %q has no texture reference", errs.ErrSchemaError, propName)
	}

	data, mimeType, err := t.Doc.TextureImageSource(texIdx)
	if err != nil {
		return nil, err
	}

	src, err := DecodeImage(data, mimeType)
	if err != nil {
		return nil, err
	}

	channels, err := metadata.TextureChannelLetters(propDef)
	if err != nil {
		return nil, err
	}

	ct, _ := componentType(classDef)
	offset, scale, normalized := offsetScaleOf(classDef)

	return SamplePropertyTexture(src, channels, rect, ct, offset, scale, normalized)
}
