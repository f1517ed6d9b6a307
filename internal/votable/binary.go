// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package votable

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
)

// elementSize is the encoded width in bytes of one element of each
// primitive datatype. "bit" is packed and handled separately.
var elementSize = map[string]int{
	"boolean":       1,
	"unsignedByte":  1,
	"short":         2,
	"int":           4,
	"long":          8,
	"char":          1,
	"unicodeChar":   2,
	"float":         4,
	"double":        8,
	"floatComplex":  8,
	"doubleComplex": 16,
}

// shape is a parsed arraysize attribute.
type shape struct {
	count    int // elements per value when fixed; per-slice multiplier when variable
	variable bool
}

func parseArraysize(s string) (shape, error) {
	if s == "" {
		return shape{count: 1}, nil
	}
	sh := shape{count: 1}
	dims := strings.Split(s, "x")
	for i, d := range dims {
		if strings.HasSuffix(d, "*") {
			if i != len(dims)-1 {
				return shape{}, fmt.Errorf("arraysize %q: only the last dimension may be variable", s)
			}
			sh.variable = true
			continue
		}
		n, err := strconv.Atoi(d)
		if err != nil || n < 0 {
			return shape{}, fmt.Errorf("arraysize %q: invalid dimension %q", s, d)
		}
		sh.count *= n
	}
	return sh, nil
}

// streamReader walks a decoded BINARY/BINARY2 stream.
type streamReader struct {
	buf []byte
	off int
}

func (r *streamReader) remaining() int { return len(r.buf) - r.off }

func (r *streamReader) next(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, fmt.Errorf("stream truncated at byte %d (need %d, have %d)", r.off, n, r.remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func readStream(t *Table, s *xmlStream, withNullMask bool) error {
	if s.Href != "" && strings.TrimSpace(s.Text) == "" {
		return fmt.Errorf("remote binary streams are not supported (href %q)", s.Href)
	}
	enc := strings.ToLower(s.Encoding)
	if enc != "" && enc != "base64" {
		return fmt.Errorf("unsupported stream encoding %q", s.Encoding)
	}
	raw, err := base64.StdEncoding.DecodeString(stripSpace(s.Text))
	if err != nil {
		return fmt.Errorf("decoding base64 stream: %w", err)
	}

	shapes := make([]shape, len(t.Fields))
	for i, f := range t.Fields {
		if _, ok := elementSize[f.Datatype]; !ok && f.Datatype != "bit" {
			return fmt.Errorf("field %q: unsupported datatype %q", f.Name, f.Datatype)
		}
		sh, err := parseArraysize(f.Arraysize)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
		shapes[i] = sh
	}

	r := &streamReader{buf: raw}
	maskLen := (len(t.Fields) + 7) / 8
	for r.remaining() > 0 {
		var mask []byte
		if withNullMask {
			if mask, err = r.next(maskLen); err != nil {
				return err
			}
		}
		row := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			v, err := readValue(r, f.Datatype, shapes[i])
			if err != nil {
				return fmt.Errorf("row %d field %q: %w", len(t.Rows), f.Name, err)
			}
			if mask != nil && mask[i/8]&(0x80>>(i%8)) != 0 {
				v = ""
			}
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return nil
}

func readValue(r *streamReader, datatype string, sh shape) (string, error) {
	count := sh.count
	if sh.variable {
		b, err := r.next(4)
		if err != nil {
			return "", err
		}
		count = int(binary.BigEndian.Uint32(b))
		if sh.count > 1 {
			count *= sh.count
		}
	}

	if datatype == "bit" {
		b, err := r.next((count + 7) / 8)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		for i := 0; i < count; i++ {
			if b[i/8]&(0x80>>(i%8)) != 0 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		return sb.String(), nil
	}

	size := elementSize[datatype]
	b, err := r.next(size * count)
	if err != nil {
		return "", err
	}

	switch datatype {
	case "char":
		return decodeChars(b), nil
	case "unicodeChar":
		return decodeUnicodeChars(b), nil
	}

	parts := make([]string, 0, count)
	for i := 0; i < count; i++ {
		parts = append(parts, formatElement(datatype, b[i*size:(i+1)*size]))
	}
	return strings.Join(parts, " "), nil
}

// decodeChars turns a char array into text: it stops at the first NUL
// and replaces invalid UTF-8 sequences.
func decodeChars(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.ToValidUTF8(strings.TrimRight(string(b), " "), "�")
}

func decodeUnicodeChars(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u := binary.BigEndian.Uint16(b[i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return strings.TrimRight(string(utf16.Decode(units)), " ")
}

func formatElement(datatype string, b []byte) string {
	switch datatype {
	case "boolean":
		switch b[0] {
		case 'T', 't', '1':
			return "T"
		case 'F', 'f', '0':
			return "F"
		default:
			return ""
		}
	case "unsignedByte":
		return strconv.Itoa(int(b[0]))
	case "short":
		return strconv.Itoa(int(int16(binary.BigEndian.Uint16(b))))
	case "int":
		return strconv.Itoa(int(int32(binary.BigEndian.Uint32(b))))
	case "long":
		return strconv.FormatInt(int64(binary.BigEndian.Uint64(b)), 10)
	case "float":
		return formatFloat(float64(math.Float32frombits(binary.BigEndian.Uint32(b))), 32)
	case "double":
		return formatFloat(math.Float64frombits(binary.BigEndian.Uint64(b)), 64)
	case "floatComplex":
		return formatElement("float", b[:4]) + " " + formatElement("float", b[4:])
	case "doubleComplex":
		return formatElement("double", b[:8]) + " " + formatElement("double", b[8:])
	}
	return ""
}

func formatFloat(f float64, bits int) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
