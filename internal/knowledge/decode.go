package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// maxAliasDepth bounds alias expansion when converting YAML documents
const maxAliasDepth = 64

// DecodeJSON decodes a single JSON document, keeping object member order
func DecodeJSON(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("failed to parse JSON: unexpected data after top-level value")
	}

	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("unexpected object key %v", keyTok)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				obj.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ObjectValue(obj), nil
		case '[':
			items := []Value{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(items...), nil
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	}

	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

// DecodeYAML decodes a YAML document into a Value, keeping mapping order
func DecodeYAML(data []byte) (Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Value{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	v, err := fromYAMLNode(&root, 0)
	if err != nil {
		return Value{}, fmt.Errorf("failed to convert YAML: %w", err)
	}
	return v, nil
}

func fromYAMLNode(n *yaml.Node, depth int) (Value, error) {
	if depth > maxAliasDepth {
		return Value{}, errors.New("alias nesting too deep")
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return fromYAMLNode(n.Content[0], depth)
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromYAMLNode(n.Content[i+1], depth)
			if err != nil {
				return Value{}, err
			}
			obj.Set(n.Content[i].Value, v)
		}
		return ObjectValue(obj), nil
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAMLNode(c, depth)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Array(items...), nil
	case yaml.AliasNode:
		if n.Alias == nil {
			return Null(), nil
		}
		return fromYAMLNode(n.Alias, depth+1)
	case yaml.ScalarNode:
		return fromYAMLScalar(n)
	}

	return Null(), nil
}

func fromYAMLScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return String(n.Value), nil
		}
		return Number(json.Number(strconv.FormatInt(i, 10))), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return String(n.Value), nil
		}
		return Number(json.Number(strconv.FormatFloat(f, 'g', -1, 64))), nil
	}
	return String(n.Value), nil
}

// listColumns are spreadsheet columns holding comma-separated lists
var listColumns = map[string]bool{
	"tactics":      true,
	"platforms":    true,
	"data_sources": true,
}

// DecodeSpreadsheet reads the first sheet of an .xlsx technique export. The
// header row supplies the keys; each following row becomes one record under
// a "techniques" list.
func DecodeSpreadsheet(path string) (Value, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Value{}, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Value{}, errors.New("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Value{}, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	return rowsToDocument(rows), nil
}

func rowsToDocument(rows [][]string) Value {
	doc := NewObject()
	records := []Value{}

	if len(rows) > 0 {
		header := make([]string, len(rows[0]))
		for i, h := range rows[0] {
			header[i] = columnKey(h)
		}

		for _, row := range rows[1:] {
			rec := NewObject()
			for i, key := range header {
				if key == "" || i >= len(row) {
					continue
				}
				cell := strings.TrimSpace(row[i])
				if cell == "" {
					continue
				}
				if listColumns[key] {
					rec.Set(key, splitList(cell))
				} else {
					rec.Set(key, String(cell))
				}
			}
			if rec.Len() > 0 {
				records = append(records, ObjectValue(rec))
			}
		}
	}

	doc.Set("techniques", Array(records...))
	return ObjectValue(doc)
}

func columnKey(header string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "_")
}

func splitList(cell string) Value {
	var items []Value
	for _, part := range strings.Split(cell, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, String(part))
		}
	}
	return Array(items...)
}
