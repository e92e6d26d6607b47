// Package export serializes merged lineage graphs to interchange formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"lineagehub/internal/domain"
)

// Supported formats.
const (
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatGraphML = "graphml"
)

// ContentType returns the MIME type for a format, or false for an unknown
// format.
func ContentType(format string) (string, bool) {
	switch format {
	case FormatJSON:
		return "application/json", true
	case FormatCSV:
		return "text/csv", true
	case FormatGraphML:
		return "application/xml", true
	default:
		return "", false
	}
}

// Write serializes the graph to w in the named format.
func Write(w io.Writer, g *domain.Graph, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, g)
	case FormatCSV:
		return writeCSV(w, g)
	case FormatGraphML:
		return writeGraphML(w, g)
	default:
		return domain.ErrValidation("unknown export format %q", format)
	}
}

func writeJSON(w io.Writer, g *domain.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

// writeCSV emits an edge list with one provenance column: source, target,
// relationship, and the contributing file ids joined by ';'.
func writeCSV(w io.Writer, g *domain.Graph) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"source", "target", "relationship", "source_files"}); err != nil {
		return err
	}
	for _, e := range g.Edges {
		ids := make([]string, 0, len(e.Sources))
		for _, s := range e.Sources {
			ids = append(ids, s.FileID)
		}
		if err := cw.Write([]string{e.Source, e.Target, string(e.Relationship), strings.Join(ids, ";")}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// GraphML document structure per the graphml.graphdrawing.org schema.
type graphmlDoc struct {
	XMLName xml.Name      `xml:"graphml"`
	Xmlns   string        `xml:"xmlns,attr"`
	Keys    []graphmlKey  `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

type graphmlKey struct {
	ID   string `xml:"id,attr"`
	For  string `xml:"for,attr"`
	Name string `xml:"attr.name,attr"`
	Type string `xml:"attr.type,attr"`
}

type graphmlGraph struct {
	ID          string         `xml:"id,attr"`
	EdgeDefault string         `xml:"edgedefault,attr"`
	Nodes       []graphmlNode  `xml:"node"`
	Edges       []graphmlEdge  `xml:"edge"`
}

type graphmlNode struct {
	ID   string         `xml:"id,attr"`
	Data []graphmlDatum `xml:"data"`
}

type graphmlEdge struct {
	ID     string         `xml:"id,attr"`
	Source string         `xml:"source,attr"`
	Target string         `xml:"target,attr"`
	Data   []graphmlDatum `xml:"data"`
}

type graphmlDatum struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

func writeGraphML(w io.Writer, g *domain.Graph) error {
	doc := graphmlDoc{
		Xmlns: "http://graphml.graphdrawing.org/xmlns",
		Keys: []graphmlKey{
			{ID: "name", For: "node", Name: "name", Type: "string"},
			{ID: "type", For: "node", Name: "type", Type: "string"},
			{ID: "relationship", For: "edge", Name: "relationship", Type: "string"},
		},
		Graph: graphmlGraph{ID: "lineage", EdgeDefault: "directed"},
	}
	for _, n := range g.Nodes {
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphmlNode{
			ID: n.ID,
			Data: []graphmlDatum{
				{Key: "name", Value: n.Name},
				{Key: "type", Value: string(n.Type)},
			},
		})
	}
	for i, e := range g.Edges {
		doc.Graph.Edges = append(doc.Graph.Edges, graphmlEdge{
			ID:     "e" + strconv.Itoa(i),
			Source: e.Source,
			Target: e.Target,
			Data:   []graphmlDatum{{Key: "relationship", Value: string(e.Relationship)}},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode graphml: %w", err)
	}
	return enc.Close()
}
