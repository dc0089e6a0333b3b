package table

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

// Format selects a renderer.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatCSV, FormatJSON, FormatYAML}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

const (
	twMinWidth = 0
	twTabWidth = 8
	twPadding  = 2   // ensure columns have at least a space between them
	twPadChar  = ' ' // using a tab here creates 'jumpy' columns on output
	twFlags    = 0
)

// Render writes the table to w in the given format.
func (t *Table) Render(w io.Writer, format Format) error {
	switch format {
	case FormatText, "":
		return t.renderText(w)
	case FormatCSV:
		return t.renderCSV(w)
	case FormatJSON:
		return t.renderJSON(w)
	case FormatYAML:
		return t.renderYAML(w)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func (t *Table) header() []string {
	return append([]string{t.indexName}, t.columns...)
}

func (t *Table) renderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, twMinWidth, twTabWidth, twPadding, twPadChar, twFlags)
	fmt.Fprintln(tw, strings.Join(t.header(), "\t"))
	for step, row := range t.rows {
		cells := make([]string, 0, len(row)+1)
		cells = append(cells, strconv.Itoa(step))
		for _, v := range row {
			cells = append(cells, FormatCell(v))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func (t *Table) renderCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.header()); err != nil {
		return err
	}
	for step, row := range t.rows {
		record := make([]string, 0, len(row)+1)
		record = append(record, strconv.Itoa(step))
		for _, v := range row {
			record = append(record, FormatCell(v))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// renderJSON writes an array of row objects. Keys keep the column order, so
// the objects are assembled by hand rather than through a map.
func (t *Table) renderJSON(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("[")
	for step, row := range t.rows {
		if step > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  {")
		key, _ := json.Marshal(t.indexName)
		buf.Write(key)
		buf.WriteString(": ")
		buf.WriteString(strconv.Itoa(step))
		for i, v := range row {
			key, _ := json.Marshal(t.columns[i])
			cell, err := ctyjson.SimpleJSONValue{Value: v}.MarshalJSON()
			if err != nil {
				return fmt.Errorf("step %d, column %q: %w", step, t.columns[i], err)
			}
			buf.WriteString(", ")
			buf.Write(key)
			buf.WriteString(": ")
			buf.Write(cell)
		}
		buf.WriteString("}")
	}
	if len(t.rows) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func (t *Table) renderYAML(w io.Writer) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for step, row := range t.rows {
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		m.Content = append(m.Content, strNode(t.indexName), &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(step)})
		for i, v := range row {
			m.Content = append(m.Content, strNode(t.columns[i]), yamlCell(v))
		}
		doc.Content = append(doc.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func yamlCell(v cty.Value) *yaml.Node {
	switch {
	case v == cty.NilVal || v.IsNull() || !v.IsKnown():
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case v.Type() == cty.Number:
		f := v.AsBigFloat()
		switch {
		case f.IsInf() && f.Sign() > 0:
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: ".inf"}
		case f.IsInf():
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: "-.inf"}
		case f.IsInt():
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: FormatCell(v)}
		default:
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: FormatCell(v)}
		}
	case v.Type() == cty.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: FormatCell(v)}
	default:
		return strNode(FormatCell(v))
	}
}

// FormatCell renders a single cell value as plain text.
func FormatCell(v cty.Value) string {
	switch {
	case v == cty.NilVal || v.IsNull():
		return "null"
	case !v.IsKnown():
		return "(unknown)"
	case v.Type() == cty.Number:
		return v.AsBigFloat().Text('f', -1)
	case v.Type() == cty.Bool:
		return strconv.FormatBool(v.True())
	case v.Type() == cty.String:
		return v.AsString()
	default:
		b, err := ctyjson.SimpleJSONValue{Value: v}.MarshalJSON()
		if err != nil {
			return v.GoString()
		}
		return string(b)
	}
}
