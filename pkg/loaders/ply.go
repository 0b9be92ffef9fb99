package loaders

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-packet-raytracer/pkg/geometry"
	"github.com/go-gl/mathgl/mgl32"
)

var ErrPLYFormat = errors.New("malformed PLY file")

// PLYHeader is the parsed header of a PLY file.
type PLYHeader struct {
	Format   string // "ascii", "binary_little_endian" or "binary_big_endian"
	Version  string
	Elements []PLYElement
}

// PLYElement is an element declaration with its properties in file order.
type PLYElement struct {
	Name  string
	Count int
	Props []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYData contains the geometry loaded from a PLY file. Polygons are fan
// triangulated.
type PLYData struct {
	Positions [][3]float32
	Normals   [][3]float32 // empty if not present
	TexCoords [][2]float32 // empty if not present
	Faces     []uint32     // 3 indices per triangle
}

// LoadPLY loads a PLY file in ASCII or binary form.
func LoadPLY(filename string) (*PLYData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	data, err := ReadPLY(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return data, nil
}

// ReadPLY parses PLY data from r.
func ReadPLY(r io.Reader) (*PLYData, error) {
	br := bufio.NewReaderSize(r, 1<<20)

	header, err := parsePLYHeader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var src valueReader
	switch header.Format {
	case "ascii":
		sc := bufio.NewScanner(br)
		sc.Split(bufio.ScanWords)
		src = &asciiReader{sc: sc}
	case "binary_little_endian":
		src = &binaryReader{r: br, order: binary.LittleEndian}
	case "binary_big_endian":
		src = &binaryReader{r: br, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("unsupported PLY format %q: %w", header.Format, ErrPLYFormat)
	}

	return readElements(header, src)
}

// parsePLYHeader reads the header up to and including end_header.
func parsePLYHeader(r *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	first := true

	for {
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return nil, fmt.Errorf("unexpected end of header: %w", ErrPLYFormat)
		}
		line = strings.TrimSpace(line)

		if first {
			if line != "ply" {
				return nil, fmt.Errorf("missing ply magic: %w", ErrPLYFormat)
			}
			first = false
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid format line %q: %w", line, ErrPLYFormat)
			}
			header.Format, header.Version = parts[1], parts[2]
		case "comment", "obj_info":
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line %q: %w", line, ErrPLYFormat)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count %q: %w", parts[2], ErrPLYFormat)
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
		case "property":
			if len(header.Elements) == 0 {
				return nil, fmt.Errorf("property before element: %w", ErrPLYFormat)
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, err
			}
			el := &header.Elements[len(header.Elements)-1]
			el.Props = append(el.Props, prop)
		}
	}
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition: %w", ErrPLYFormat)
	}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition: %w", ErrPLYFormat)
		}
		return PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}, nil
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

// valueReader yields the next scalar of the given PLY type.
type valueReader interface {
	read(dataType string) (float64, error)
}

type asciiReader struct {
	sc *bufio.Scanner
}

func (a *asciiReader) read(string) (float64, error) {
	if !a.sc.Scan() {
		if err := a.sc.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	v, err := strconv.ParseFloat(a.sc.Text(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", a.sc.Text(), ErrPLYFormat)
	}
	return v, nil
}

type binaryReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryReader) read(dataType string) (float64, error) {
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unsupported data type %q: %w", dataType, ErrPLYFormat)
	}
	buf := b.buf[:size]
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return 0, err
	}

	switch dataType {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(buf))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(buf)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(buf))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(buf)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(buf))), nil
	default: // double
		return math.Float64frombits(b.order.Uint64(buf)), nil
	}
}

// getTypeSize returns the size in bytes of a PLY data type, or zero if the
// type is unknown.
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	}
	return 0
}

func readList(src valueReader, prop PLYProperty) ([]float64, error) {
	n, err := src.read(prop.ListType)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > 1<<16 {
		return nil, fmt.Errorf("list length %v: %w", n, ErrPLYFormat)
	}
	values := make([]float64, int(n))
	for i := range values {
		if values[i], err = src.read(prop.DataType); err != nil {
			return nil, err
		}
	}
	return values, nil
}

func readElements(header *PLYHeader, src valueReader) (*PLYData, error) {
	data := &PLYData{}

	for _, el := range header.Elements {
		var err error
		switch el.Name {
		case "vertex":
			err = readVertices(&el, src, data)
		case "face":
			err = readFaces(&el, src, data)
		default:
			err = skipElement(&el, src)
		}
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", el.Name, err)
		}
	}

	nv := uint32(len(data.Positions))
	for _, idx := range data.Faces {
		if idx >= nv {
			return nil, fmt.Errorf("face index %d with %d vertices: %w", idx, nv, ErrPLYFormat)
		}
	}
	if len(data.Faces) == 0 {
		return nil, fmt.Errorf("no faces: %w", ErrPLYFormat)
	}
	return data, nil
}

func readVertices(el *PLYElement, src valueReader, data *PLYData) error {
	var hasNormals, hasUVs bool
	for _, p := range el.Props {
		switch p.Name {
		case "nx", "ny", "nz":
			hasNormals = true
		case "u", "s", "texture_u", "v", "t", "texture_v":
			hasUVs = true
		}
	}

	data.Positions = make([][3]float32, el.Count)
	if hasNormals {
		data.Normals = make([][3]float32, el.Count)
	}
	if hasUVs {
		data.TexCoords = make([][2]float32, el.Count)
	}

	for i := 0; i < el.Count; i++ {
		for _, p := range el.Props {
			if p.IsList {
				if _, err := readList(src, p); err != nil {
					return err
				}
				continue
			}
			v, err := src.read(p.Type)
			if err != nil {
				return fmt.Errorf("vertex %d: %w", i, err)
			}
			f := float32(v)
			switch p.Name {
			case "x":
				data.Positions[i][0] = f
			case "y":
				data.Positions[i][1] = f
			case "z":
				data.Positions[i][2] = f
			case "nx":
				data.Normals[i][0] = f
			case "ny":
				data.Normals[i][1] = f
			case "nz":
				data.Normals[i][2] = f
			case "u", "s", "texture_u":
				data.TexCoords[i][0] = f
			case "v", "t", "texture_v":
				data.TexCoords[i][1] = f
			}
		}
	}
	return nil
}

func readFaces(el *PLYElement, src valueReader, data *PLYData) error {
	for i := 0; i < el.Count; i++ {
		for _, p := range el.Props {
			if !p.IsList {
				if _, err := src.read(p.Type); err != nil {
					return err
				}
				continue
			}
			values, err := readList(src, p)
			if err != nil {
				return fmt.Errorf("face %d: %w", i, err)
			}
			if p.Name != "vertex_indices" && p.Name != "vertex_index" {
				continue
			}
			if len(values) < 3 {
				return fmt.Errorf("face %d has %d vertices: %w", i, len(values), ErrPLYFormat)
			}
			for k := 1; k+1 < len(values); k++ {
				data.Faces = append(data.Faces, uint32(values[0]), uint32(values[k]), uint32(values[k+1]))
			}
		}
	}
	return nil
}

func skipElement(el *PLYElement, src valueReader) error {
	for i := 0; i < el.Count; i++ {
		for _, p := range el.Props {
			var err error
			if p.IsList {
				_, err = readList(src, p)
			} else {
				_, err = src.read(p.Type)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// MeshDesc converts the PLY data to a mesh using one material. Missing
// normals are averaged from the adjacent faces weighted by area.
func (d *PLYData) MeshDesc(material uint32) *geometry.MeshDesc {
	normals := d.Normals
	if len(normals) == 0 {
		normals = make([][3]float32, len(d.Positions))
		for i := 0; i+2 < len(d.Faces); i += 3 {
			a, b, c := d.Faces[i], d.Faces[i+1], d.Faces[i+2]
			p0 := mgl32.Vec3(d.Positions[a])
			n := mgl32.Vec3(d.Positions[b]).Sub(p0).Cross(mgl32.Vec3(d.Positions[c]).Sub(p0))
			for _, idx := range [3]uint32{a, b, c} {
				normals[idx] = mgl32.Vec3(normals[idx]).Add(n)
			}
		}
	}

	attrs := make([]float32, 0, len(d.Positions)*geometry.PxyzNxyzTuv.Stride())
	for i, p := range d.Positions {
		n := mgl32.Vec3(normals[i])
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		var uv [2]float32
		if len(d.TexCoords) > 0 {
			uv = d.TexCoords[i]
		}
		attrs = append(attrs, p[0], p[1], p[2], n[0], n[1], n[2], uv[0], uv[1])
	}

	return &geometry.MeshDesc{
		Layout:  geometry.PxyzNxyzTuv,
		Attrs:   attrs,
		Indices: d.Faces,
		Shapes:  []geometry.Shape{{MaterialIndex: material, IndexStart: 0, IndexCount: len(d.Faces)}},
	}
}
