package operations

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// docxText pulls the plain text out of a Word document: the concatenated
// text runs of word/document.xml, one line per paragraph. Styling, tables
// and embedded objects are discarded.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	f := zipFile(zr, "word/document.xml")
	if f == nil {
		return "", errors.New("docx has no document part")
	}

	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open document part: %w", err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)

	var text strings.Builder
	inRun := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document part: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inRun = true
			case "tab":
				text.WriteByte('\t')
			case "br":
				text.WriteByte('\n')
			}
		case xml.CharData:
			if inRun {
				text.Write(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inRun = false
			case "p":
				text.WriteByte('\n')
			}
		}
	}

	return text.String(), nil
}

// xlsxCSV flattens the first worksheet of a workbook into CSV. Shared and
// inline strings resolve to their text; every other cell keeps its raw
// stored value.
func xlsxCSV(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}

	shared, err := xlsxSharedStrings(zr)
	if err != nil {
		return nil, err
	}

	sheet := xlsxFirstSheet(zr)
	if sheet == nil {
		return nil, errors.New("xlsx has no worksheets")
	}

	rows, err := xlsxRows(sheet, shared)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}

	return buf.Bytes(), nil
}

// csvText reparses CSV bytes and re-emits them, which both validates the
// input and canonicalizes quoting.
func csvText(data []byte) ([]byte, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write text: %w", err)
	}

	return buf.Bytes(), nil
}

func zipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func xlsxFirstSheet(zr *zip.Reader) *zip.File {
	if f := zipFile(zr, "xl/worksheets/sheet1.xml"); f != nil {
		return f
	}

	var names []string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "xl/worksheets/") && strings.HasSuffix(f.Name, ".xml") {
			names = append(names, f.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}

	slices.Sort(names)
	return zipFile(zr, names[0])
}

func xlsxSharedStrings(zr *zip.Reader) ([]string, error) {
	f := zipFile(zr, "xl/sharedStrings.xml")
	if f == nil {
		return nil, nil
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open shared strings: %w", err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)

	var shared []string
	var current strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse shared strings: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "si":
				current.Reset()
			case "t":
				inText = true
			}
		case xml.CharData:
			if inText {
				current.Write(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "si":
				shared = append(shared, current.String())
			}
		}
	}

	return shared, nil
}

func xlsxRows(sheet *zip.File, shared []string) ([][]string, error) {
	rc, err := sheet.Open()
	if err != nil {
		return nil, fmt.Errorf("open worksheet: %w", err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)

	var rows [][]string
	var row []string
	var cellRef, cellType string
	var value strings.Builder
	inValue := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse worksheet: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "row":
				row = nil
			case "c":
				cellRef, cellType = "", ""
				for _, attr := range el.Attr {
					switch attr.Name.Local {
					case "r":
						cellRef = attr.Value
					case "t":
						cellType = attr.Value
					}
				}
				value.Reset()
			case "v":
				inValue = true
			case "t":
				if cellType == "inlineStr" {
					inValue = true
				}
			}
		case xml.CharData:
			if inValue {
				value.Write(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "v", "t":
				inValue = false
			case "c":
				cell, err := xlsxCell(cellType, value.String(), shared)
				if err != nil {
					return nil, err
				}

				idx := columnIndex(cellRef)
				if idx < 0 {
					idx = len(row)
				}
				for len(row) <= idx {
					row = append(row, "")
				}
				row[idx] = cell
			case "row":
				rows = append(rows, row)
			}
		}
	}

	return rows, nil
}

func xlsxCell(cellType, raw string, shared []string) (string, error) {
	if cellType != "s" {
		return raw, nil
	}

	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || idx < 0 || idx >= len(shared) {
		return "", fmt.Errorf("shared string index %q out of range", raw)
	}
	return shared[idx], nil
}

// columnIndex converts the letters of an A1-style cell reference to a
// zero-based column index; -1 when the reference carries no letters.
func columnIndex(ref string) int {
	idx := 0
	seen := false

	for _, ch := range ref {
		if ch < 'A' || ch > 'Z' {
			break
		}
		idx = idx*26 + int(ch-'A') + 1
		seen = true
	}

	if !seen {
		return -1
	}
	return idx - 1
}
