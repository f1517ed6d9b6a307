// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package votable parses VO-Table documents returned by Virtual Observatory
// services into a row-oriented table of text values.
//
// All cell values are decoded to UTF-8 strings at parse time, whatever the
// serialization (TABLEDATA, BINARY or BINARY2), so callers never deal with
// raw bytes. Notices about lax or deprecated documents are collected on the
// table as warnings and never returned as errors.
package votable

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrNoTable is returned when a document parses but contains no TABLE.
var ErrNoTable = errors.New("no table in VO-Table document")

// QueryStatusError reports a service-side failure announced through an
// INFO element named QUERY_STATUS with value ERROR.
type QueryStatusError struct {
	Status  string
	Message string
}

func (e *QueryStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("query status %s", e.Status)
	}
	return fmt.Sprintf("query status %s: %s", e.Status, e.Message)
}

// Field describes one table column.
type Field struct {
	Name      string
	ID        string
	Datatype  string
	Arraysize string
	UCD       string
	Unit      string
}

// Table is a parsed VO-Table TABLE element.
type Table struct {
	Name   string
	Fields []Field

	// Rows holds one slice per row with exactly len(Fields) values.
	Rows [][]string

	// Warnings collects non-fatal notices found while parsing.
	Warnings []string
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Column returns the index of the field whose name or ID equals name
// (case-insensitive), or -1.
func (t *Table) Column(name string) int {
	for i, f := range t.Fields {
		if strings.EqualFold(f.Name, name) || (f.ID != "" && strings.EqualFold(f.ID, name)) {
			return i
		}
	}
	return -1
}

// Value returns the cell at row, col. Negative columns count from the end,
// so Value(r, -1) is the last column. Out-of-range cells are empty.
func (t *Table) Value(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col < 0 {
		col += len(r)
	}
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

func (t *Table) warnf(format string, args ...any) {
	t.Warnings = append(t.Warnings, fmt.Sprintf(format, args...))
}

// XML structures. Tags carry no namespace so documents with and without the
// IVOA namespace declaration both decode.
type xmlVOTable struct {
	XMLName   xml.Name      `xml:"VOTABLE"`
	Version   string        `xml:"version,attr"`
	Infos     []xmlInfo     `xml:"INFO"`
	Resources []xmlResource `xml:"RESOURCE"`
}

type xmlInfo struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"`
}

type xmlResource struct {
	Type      string        `xml:"type,attr"`
	Infos     []xmlInfo     `xml:"INFO"`
	Tables    []xmlTable    `xml:"TABLE"`
	Resources []xmlResource `xml:"RESOURCE"`
}

type xmlTable struct {
	Name   string     `xml:"name,attr"`
	Fields []xmlField `xml:"FIELD"`
	Data   *xmlData   `xml:"DATA"`
}

type xmlField struct {
	Name      string `xml:"name,attr"`
	ID        string `xml:"ID,attr"`
	Datatype  string `xml:"datatype,attr"`
	Arraysize string `xml:"arraysize,attr"`
	UCD       string `xml:"ucd,attr"`
	Unit      string `xml:"unit,attr"`
}

type xmlData struct {
	TableData *xmlTableData `xml:"TABLEDATA"`
	Binary    *xmlStream    `xml:"BINARY>STREAM"`
	Binary2   *xmlStream    `xml:"BINARY2>STREAM"`
	FITS      *struct{}     `xml:"FITS"`
}

type xmlTableData struct {
	Rows []xmlRow `xml:"TR"`
}

type xmlRow struct {
	Cells []string `xml:"TD"`
}

type xmlStream struct {
	Encoding string `xml:"encoding,attr"`
	Href     string `xml:"href,attr"`
	Text     string `xml:",chardata"`
}

// Parse decodes the first TABLE of a VO-Table document. Documents declaring
// a non-UTF-8 encoding in their XML prolog are transcoded before decoding.
func Parse(data []byte) (*Table, error) {
	var doc xmlVOTable
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing VO-Table: %w", err)
	}

	if err := queryStatus(doc); err != nil {
		return nil, err
	}

	xt := firstTable(doc.Resources)
	if xt == nil {
		return nil, ErrNoTable
	}

	t := &Table{Name: xt.Name}
	if doc.Version == "" {
		t.warnf("VOTABLE element has no version attribute")
	}
	for _, f := range xt.Fields {
		if f.Datatype == "" {
			t.warnf("field %q has no datatype, assuming char", f.Name)
			f.Datatype = "char"
		}
		t.Fields = append(t.Fields, Field{
			Name:      f.Name,
			ID:        f.ID,
			Datatype:  f.Datatype,
			Arraysize: f.Arraysize,
			UCD:       f.UCD,
			Unit:      f.Unit,
		})
	}

	if xt.Data == nil {
		return t, nil
	}

	switch {
	case xt.Data.TableData != nil:
		readTableData(t, xt.Data.TableData)
	case xt.Data.Binary != nil:
		if err := readStream(t, xt.Data.Binary, false); err != nil {
			return nil, err
		}
	case xt.Data.Binary2 != nil:
		if err := readStream(t, xt.Data.Binary2, true); err != nil {
			return nil, err
		}
	case xt.Data.FITS != nil:
		return nil, fmt.Errorf("FITS table serialization is not supported")
	}
	return t, nil
}

func queryStatus(doc xmlVOTable) error {
	infos := append([]xmlInfo{}, doc.Infos...)
	var walk func([]xmlResource)
	walk = func(rs []xmlResource) {
		for _, r := range rs {
			infos = append(infos, r.Infos...)
			walk(r.Resources)
		}
	}
	walk(doc.Resources)

	for _, info := range infos {
		if !strings.EqualFold(info.Name, "QUERY_STATUS") {
			continue
		}
		if strings.EqualFold(info.Value, "ERROR") {
			return &QueryStatusError{Status: info.Value, Message: strings.TrimSpace(info.Text)}
		}
	}
	return nil
}

func firstTable(rs []xmlResource) *xmlTable {
	for i := range rs {
		if len(rs[i].Tables) > 0 {
			return &rs[i].Tables[0]
		}
		if t := firstTable(rs[i].Resources); t != nil {
			return t
		}
	}
	return nil
}

func readTableData(t *Table, td *xmlTableData) {
	n := len(t.Fields)
	for i, tr := range td.Rows {
		if len(tr.Cells) != n {
			t.warnf("row %d has %d cells, table has %d fields", i, len(tr.Cells), n)
		}
		row := make([]string, n)
		for j := 0; j < n && j < len(tr.Cells); j++ {
			row[j] = strings.ToValidUTF8(strings.TrimSpace(tr.Cells[j]), "�")
		}
		t.Rows = append(t.Rows, row)
	}
}
