// Package export writes generated models as JSON documents and reads them back.
//
// The document has two top-level keys, each either a section or null:
//
//	{"params3D": {...}, "borders": [{"bo0": [{"y0": [5,6,7]}, {"y1": [6,6,8]}]}, ...]}
//
// Layers are keyed "bo<i>" and rows "y<j>" in generation order. Files may be
// zstd-compressed; [Decode] detects this from the data.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/matzehuels/grunt/pkg/errors"
	"github.com/matzehuels/grunt/pkg/layer"
	"github.com/matzehuels/grunt/pkg/model"
)

// BenchName is a model name for benchmarks: Export encodes as usual but
// writes no file.
const BenchName = "TestModelBench.test.bench"

// Section is a top-level part of an export document.
type Section string

const (
	SectionParams  Section = "params"
	SectionBorders Section = "borders"
)

// AllSections lists every section in document order.
func AllSections() []Section { return []Section{SectionParams, SectionBorders} }

// ParseSections parses a comma-separated section list such as "params,borders".
func ParseSections(s string) ([]Section, error) {
	var out []Section
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sec := Section(part)
		if !slices.Contains(AllSections(), sec) {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"unknown section %q (want params or borders)", part)
		}
		if !slices.Contains(out, sec) {
			out = append(out, sec)
		}
	}
	return out, nil
}

// Options configures [Export].
type Options struct {
	// Sections to include. Nil means all sections.
	Sections []Section

	// Dir is the output directory. Empty means the working directory.
	Dir string

	// Compress writes "<name>.json.zst" instead of "<name>.json".
	Compress bool
}

// Result describes a finished export.
type Result struct {
	// Path of the written file, empty for BenchName.
	Path string

	// Data holds the written bytes, compressed if requested.
	Data []byte
}

// Export encodes m and writes it to "<name>.json" (or "<name>.json.zst").
func Export(m *model.Model, name string, opts Options) (*Result, error) {
	if err := errors.ValidateModelName(name); err != nil {
		return nil, err
	}

	sections := opts.Sections
	if sections == nil {
		sections = AllSections()
	}
	data, err := Encode(m, sections...)
	if err != nil {
		return nil, err
	}
	if opts.Compress {
		if data, err = Compress(data); err != nil {
			return nil, err
		}
	}
	return Write(name, data, opts)
}

// Write stores already encoded (and, with opts.Compress, compressed) export
// data under the file name Export would use. Sections in opts are ignored.
func Write(name string, data []byte, opts Options) (*Result, error) {
	if err := errors.ValidateModelName(name); err != nil {
		return nil, err
	}

	file := name + ".json"
	if opts.Compress {
		file += ".zst"
	}

	if name == BenchName {
		return &Result{Data: data}, nil
	}

	path := filepath.Join(opts.Dir, file)
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write export: %w", err)
	}
	return &Result{Path: path, Data: data}, nil
}

// Encode returns the JSON document of m with the given sections; omitted
// sections are null.
func Encode(m *model.Model, sections ...Section) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"params3D":`)
	if slices.Contains(sections, SectionParams) {
		params, err := json.Marshal(m.Params)
		if err != nil {
			return nil, fmt.Errorf("encode params: %w", err)
		}
		buf.Write(params)
	} else {
		buf.WriteString("null")
	}

	buf.WriteString(`,"borders":`)
	if slices.Contains(sections, SectionBorders) {
		buf.Write(AppendBorders(nil, m.Borders))
	} else {
		buf.WriteString("null")
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AppendBorders appends the borders section for layers to dst.
func AppendBorders(dst []byte, layers []layer.Layer) []byte {
	dst = append(dst, '[')
	for i, l := range layers {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, `{"bo`...)
		dst = strconv.AppendInt(dst, int64(i), 10)
		dst = append(dst, `":[`...)
		for j, row := range l {
			if j > 0 {
				dst = append(dst, ',')
			}
			dst = append(dst, `{"y`...)
			dst = strconv.AppendInt(dst, int64(j), 10)
			dst = append(dst, `":[`...)
			for k, v := range row {
				if k > 0 {
					dst = append(dst, ',')
				}
				dst = strconv.AppendUint(dst, uint64(v), 10)
			}
			dst = append(dst, "]}"...)
		}
		dst = append(dst, "]}"...)
	}
	return append(dst, ']')
}

// Document is a decoded export. Absent sections are nil.
type Document struct {
	Params  *model.Params3D
	Borders []layer.Layer
}

// ReadFile reads and decodes an export file.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses an export document, decompressing it first if needed.
func Decode(data []byte) (*Document, error) {
	if IsCompressed(data) {
		var err error
		if data, err = Decompress(data); err != nil {
			return nil, err
		}
	}

	var raw struct {
		Params  *model.Params3D `json:"params3D"`
		Borders json.RawMessage `json:"borders"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode export")
	}

	doc := &Document{Params: raw.Params}
	if len(raw.Borders) > 0 && string(raw.Borders) != "null" {
		layers, err := decodeBorders(raw.Borders)
		if err != nil {
			return nil, err
		}
		doc.Borders = layers
	}
	return doc, nil
}

func decodeBorders(data []byte) ([]layer.Layer, error) {
	var entries []map[string][]map[string][]uint32
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode borders")
	}

	layers := make([]layer.Layer, len(entries))
	for i, entry := range entries {
		rows, err := single(entry, "bo", i)
		if err != nil {
			return nil, err
		}
		l := make(layer.Layer, len(rows))
		for j, row := range rows {
			values, err := single(row, "y", j)
			if err != nil {
				return nil, fmt.Errorf("border %d: %w", i, err)
			}
			if j > 0 && len(values) != len(l[0]) {
				return nil, errors.New(errors.ErrCodeInvalidFormat,
					"border %d: row %d has %d values, want %d", i, j, len(values), len(l[0]))
			}
			l[j] = values
		}
		layers[i] = l
	}
	return layers, nil
}

// single returns the only value of m, which must be keyed prefix+index.
func single[V any](m map[string]V, prefix string, index int) (V, error) {
	key := prefix + strconv.Itoa(index)
	v, ok := m[key]
	if !ok || len(m) != 1 {
		var zero V
		return zero, errors.New(errors.ErrCodeInvalidFormat, "entry %d must have the single key %q", index, key)
	}
	return v, nil
}

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// IsCompressed reports whether data starts with a zstd frame.
func IsCompressed(data []byte) bool { return bytes.HasPrefix(data, zstdMagic) }

// Compress zstd-compresses data.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	out, err := io.ReadAll(dec)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decompress export")
	}
	return out, nil
}
