// Package gltf loads a glTF 2.0 document — either a plain JSON file or a
// GLB container — and resolves its buffers (GLB BIN chunk, base64 data URI,
// or external file relative to the document's directory) so that downstream
// packages can read buffer views without caring how the bytes got there.
package gltf

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	jsoniter "github.com/json-iterator/go"

	"github.com/nimbusgeo/tdtiles/errs"
	"github.com/nimbusgeo/tdtiles/format"
	"github.com/nimbusgeo/tdtiles/glbsubtree"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

var dataURIPattern = regexp.MustCompile(`^data:[^;]*;base64,(.*)$`)

// Document is a loaded glTF document and its resolved buffers. Doc holds the
// raw, decoded JSON tree; callers index into it directly for fields this
// package does not model (accessors, meshes, materials, ...) — package gltf
// only owns enough structure to locate buffers and metadata extensions.
type Document struct {
	Doc     map[string]any
	Buffers [][]byte
	Mode    format.Generation
	BaseDir string
}

// Load parses buffer as a glTF document. If buffer starts with the GLB
// magic, its JSON chunk becomes the document and its BIN chunk (if any)
// becomes buffer 0; otherwise buffer is parsed directly as glTF JSON with no
// buffers pre-populated. baseDir is the directory external buffer URIs are
// resolved relative to.
func Load(buffer []byte, baseDir string) (*Document, error) {
	var (
		jsonStr string
		buffers [][]byte
	)

	if len(buffer) >= 4 && string(buffer[0:4]) == "glTF" {
		chunkJSON, chunkBIN, err := glbsubtree.ReadGLBChunks(buffer)
		if err != nil {
			return nil, err
		}
		jsonStr = chunkJSON
		if chunkBIN != nil {
			buffers = append(buffers, chunkBIN)
		}
	} else {
		jsonStr = string(buffer)
	}

	doc := make(map[string]any)
	if err := jsonAPI.UnmarshalFromString(jsonStr, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidGltf, err)
	}

	asset, _ := doc["asset"].(map[string]any)
	version, _ := asset["version"].(string)
	if version != "2.0" {
		return nil, fmt.Errorf("%w: unsupported asset.version %q", errs.ErrInvalidGltf, version)
	}

	d := &Document{
		Doc:     doc,
		Buffers: buffers,
		Mode:    format.GenerationUnknown,
		BaseDir: baseDir,
	}

	if used, ok := doc["extensionsUsed"].([]any); ok {
		for _, ext := range used {
			name, _ := ext.(string)
			switch name {
			case format.GenerationStructuralMetadata.String():
				d.Mode = format.GenerationStructuralMetadata
			case format.GenerationFeatureMetadata.String():
				if d.Mode == format.GenerationUnknown {
					d.Mode = format.GenerationFeatureMetadata
				}
			}
		}
	}

	return d, nil
}

// HasMetadata reports whether the document declares either metadata
// extension in extensionsUsed.
func (d *Document) HasMetadata() bool {
	return d.Mode != format.GenerationUnknown
}

// LoadAllBuffers resolves every entry in doc.buffers beyond what Load
// already populated from a GLB BIN chunk: a base64 data URI is decoded
// in-place, anything else is read from BaseDir. Entries whose index is
// already populated (the GLB BIN case) are left untouched; any other entry
// with no uri returns errs.ErrInvalidGltf.
func (d *Document) LoadAllBuffers() error {
	rawBuffers, ok := d.Doc["buffers"].([]any)
	if !ok {
		return nil
	}

	for i, rb := range rawBuffers {
		if i < len(d.Buffers) {
			continue
		}

		entry, _ := rb.(map[string]any)
		uri, hasURI := entry["uri"].(string)
		if !hasURI {
			return fmt.Errorf("%w: buffer %d has no uri and was not preloaded", errs.ErrInvalidGltf, i)
		}

		if m := dataURIPattern.FindStringSubmatch(uri); m != nil {
			data, err := base64.StdEncoding.DecodeString(m[1])
			if err != nil {
				return fmt.Errorf("%w: buffer %d: decoding data uri: %v", errs.ErrInvalidGltf, i, err)
			}
			d.Buffers = append(d.Buffers, data)
			continue
		}

		data, err := os.ReadFile(filepath.Join(d.BaseDir, uri))
		if err != nil {
			return fmt.Errorf("%w: buffer %d: %v", errs.ErrIO, i, err)
		}
		d.Buffers = append(d.Buffers, data)
	}

	return nil
}

// BufferView resolves a bufferViews[idx] entry to its byte range, applying
// the default byteOffset of 0.
func (d *Document) BufferView(idx int) ([]byte, error) {
	views, ok := d.Doc["bufferViews"].([]any)
	if !ok || idx < 0 || idx >= len(views) {
		return nil, fmt.Errorf("%w: bufferView %d out of range", errs.ErrBufferViewOutOfRange, idx)
	}

	view, _ := views[idx].(map[string]any)
	bufIdx := int(asFloat(view["buffer"]))
	if bufIdx < 0 || bufIdx >= len(d.Buffers) {
		return nil, fmt.Errorf("%w: bufferView %d references unresolved buffer %d", errs.ErrBufferViewOutOfRange, idx, bufIdx)
	}

	byteOffset := int(asFloat(view["byteOffset"]))
	byteLength := int(asFloat(view["byteLength"]))

	buf := d.Buffers[bufIdx]
	if byteOffset < 0 || byteLength < 0 || byteOffset+byteLength > len(buf) {
		return nil, fmt.Errorf("%w: bufferView %d range [%d:%d] exceeds buffer %d of length %d",
			errs.ErrBufferViewOutOfRange, idx, byteOffset, byteOffset+byteLength, bufIdx, len(buf))
	}

	return buf[byteOffset : byteOffset+byteLength], nil
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

// ImageSource resolves images[idx] to its raw (still-encoded) bytes and
// declared MIME type, via bufferView (embedded in a GLB/buffer) or uri (a
// base64 data URI or a file relative to BaseDir) — the same two resolution
// rules LoadAllBuffers applies to glTF buffers, applied here to the image
// entries a property texture's textures[].source points at.
func (d *Document) ImageSource(idx int) (data []byte, mimeType string, err error) {
	images, ok := d.Doc["images"].([]any)
	if !ok || idx < 0 || idx >= len(images) {
		return nil, "", fmt.Errorf("%w: image %d out of range", errs.ErrBufferViewOutOfRange, idx)
	}

	entry, _ := images[idx].(map[string]any)
	mimeType, _ = entry["mimeType"].(string)

	if bv, ok := entry["bufferView"]; ok {
		data, err = d.BufferView(int(asFloat(bv)))
		if err != nil {
			return nil, "", err
		}
		return data, mimeType, nil
	}

	uri, ok := entry["uri"].(string)
	if !ok {
		return nil, "", fmt.Errorf("%w: image %d has neither bufferView nor uri", errs.ErrInvalidGltf, idx)
	}

	if m := dataURIPattern.FindStringSubmatch(uri); m != nil {
		data, err = base64.StdEncoding.DecodeString(m[1])
		if err != nil {
			return nil, "", fmt.Errorf("%w: image %d: decoding data uri: %v", errs.ErrInvalidGltf, idx, err)
		}
		return data, mimeType, nil
	}

	data, err = os.ReadFile(filepath.Join(d.BaseDir, uri))
	if err != nil {
		return nil, "", fmt.Errorf("%w: image %d: %v", errs.ErrIO, idx, err)
	}
	return data, mimeType, nil
}

// TextureImageSource resolves textures[idx].source to its image bytes and
// MIME type via ImageSource — the resolution step a property texture's
// channel sampling starts from.
func (d *Document) TextureImageSource(idx int) ([]byte, string, error) {
	textures, ok := d.Doc["textures"].([]any)
	if !ok || idx < 0 || idx >= len(textures) {
		return nil, "", fmt.Errorf("%w: texture %d out of range", errs.ErrBufferViewOutOfRange, idx)
	}

	entry, _ := textures[idx].(map[string]any)
	source, ok := entry["source"].(float64)
	if !ok {
		return nil, "", fmt.Errorf("%w: texture %d has no source image", errs.ErrInvalidGltf, idx)
	}

	return d.ImageSource(int(source))
}
