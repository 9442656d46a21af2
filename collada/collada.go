// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package collada parses the subset of the COLLADA (.dae) format
// needed to pull triangle geometry out of exported meshes: float
// sources, vertex/normal inputs and triangle index lists.
package collada

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// Parse decodes a whole .dae document.
func Parse(data []byte) (*Collada, error) {
	var doc Collada
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("collada: %s", err)
	}
	if len(doc.Geometries) == 0 {
		return nil, fmt.Errorf("collada: document contains no geometry")
	}
	return &doc, nil
}

// Collada is the top-level Collada object.
type Collada struct {
	Geometries []Geometry `xml:"library_geometries>geometry"`
}

// Geometry represents Collada's geometry.
type Geometry struct {
	Mesh Mesh   `xml:"mesh"`
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

// Mesh contains all the primitive data.
type Mesh struct {
	Source    []Source  `xml:"source"`
	Vertices  Vertices  `xml:"vertices"`
	Triangles Triangles `xml:"triangles"`
}

// SourceBySuffix returns the source whose id ends in "-suffix";
// exporters name their sources positions/normals/map and so on.
func (m *Mesh) SourceBySuffix(suffix string) (Source, bool) {
	for _, s := range m.Source {
		if strings.HasSuffix(s.ID, "-"+suffix) {
			return s, true
		}
	}
	return Source{}, false
}

// Source holds one float array of mesh data.
type Source struct {
	ID     string `xml:"id,attr"`
	Floats Floats `xml:"float_array"`
}

// Floats is the array of floats.
type Floats struct {
	ID    string
	Count int
	Data  []float32
}

// UnmarshalXML unmarshals the array of floats.
func (f *Floats) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "id":
			f.ID = attr.Value
		case "count":
			num, err := strconv.Atoi(attr.Value)
			if err != nil {
				return fmt.Errorf("collada: float_array count: %s", err)
			}
			f.Count = num
		}
	}
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	for _, r := range strings.Fields(raw) {
		num, err := strconv.ParseFloat(r, 32)
		if err != nil {
			return fmt.Errorf("collada: float_array value %q: %s", r, err)
		}
		f.Data = append(f.Data, float32(num))
	}
	return nil
}

// Vertices contains the list of vertex inputs.
type Vertices struct {
	ID     string  `xml:"id,attr"`
	Inputs []Input `xml:"input"`
}

// Triangles contains the triangle index list and its inputs.
type Triangles struct {
	Count    int     `xml:"count,attr"`
	Material string  `xml:"material,attr"`
	Inputs   []Input `xml:"input"`
	Index    []int
}

// Stride returns the number of index values consumed per vertex,
// which is the number of distinct input offsets.
func (t *Triangles) Stride() int {
	max := -1
	for _, in := range t.Inputs {
		if int(in.Offset) > max {
			max = int(in.Offset)
		}
	}
	return max + 1
}

// InputBySemantic returns the input with the given semantic
// (VERTEX, NORMAL, TEXCOORD).
func (t *Triangles) InputBySemantic(semantic string) (Input, bool) {
	for _, in := range t.Inputs {
		if in.Semantic == semantic {
			return in, true
		}
	}
	return Input{}, false
}

// UnmarshalXML parses the triangle element with its index list.
func (t *Triangles) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "count":
			num, err := strconv.Atoi(attr.Value)
			if err != nil {
				return fmt.Errorf("collada: triangles count: %s", err)
			}
			t.Count = num
		case "material":
			t.Material = attr.Value
		}
	}

	for {
		token, err := d.Token()
		if err != nil {
			return err
		}

		switch el := token.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "input":
				var input Input
				if err := d.DecodeElement(&input, &el); err != nil {
					return err
				}
				t.Inputs = append(t.Inputs, input)
			case "p":
				var raw string
				if err := d.DecodeElement(&raw, &el); err != nil {
					return err
				}
				for _, r := range strings.Fields(raw) {
					num, err := strconv.Atoi(r)
					if err != nil {
						return fmt.Errorf("collada: index value %q: %s", r, err)
					}
					t.Index = append(t.Index, num)
				}
			}
		case xml.EndElement:
			if el == start.End() {
				return nil
			}
		}
	}
}

// Input is Collada's input type.
type Input struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   uint   `xml:"offset,attr"`
}
