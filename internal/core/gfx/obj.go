package gfx

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// ParseOBJ reads positions, texture coordinates, normals and faces of a
// Wavefront OBJ blob. Polygons are fan-triangulated and identical corner
// references share one vertex. Texture V is flipped to the top-left origin.
func ParseOBJ(data []byte) ([]Vertex, []uint32, error) {
	var (
		positions [][3]float32
		uvs       [][2]float32
		normals   [][3]float32
		vertices  []Vertex
		indices   []uint32
		seen      = make(map[[3]int]uint32)
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3, line)
			if err != nil {
				return nil, nil, err
			}
			positions = append(positions, [3]float32{v[0], v[1], v[2]})
		case "vt":
			v, err := parseFloats(fields[1:], 2, line)
			if err != nil {
				return nil, nil, err
			}
			uvs = append(uvs, [2]float32{v[0], 1 - v[1]})
		case "vn":
			v, err := parseFloats(fields[1:], 3, line)
			if err != nil {
				return nil, nil, err
			}
			normals = append(normals, [3]float32{v[0], v[1], v[2]})
		case "f":
			if len(fields) < 4 {
				return nil, nil, fmt.Errorf("%w: line %d: face needs 3 corners", ErrMalformedOBJ, line)
			}
			corners := make([]uint32, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				key, err := parseCorner(ref, len(positions), len(uvs), len(normals), line)
				if err != nil {
					return nil, nil, err
				}
				idx, ok := seen[key]
				if !ok {
					v := Vertex{Pos: positions[key[0]]}
					if key[1] >= 0 {
						v.UV = uvs[key[1]]
					}
					if key[2] >= 0 {
						v.Normal = normals[key[2]]
					}
					idx = uint32(len(vertices))
					vertices = append(vertices, v)
					seen[key] = idx
				}
				corners = append(corners, idx)
			}
			for i := 1; i+1 < len(corners); i++ {
				indices = append(indices, corners[0], corners[i], corners[i+1])
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedOBJ, err)
	}
	if len(indices) == 0 {
		return nil, nil, ErrEmptyMesh
	}
	return vertices, indices, nil
}

func parseFloats(fields []string, n, line int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("%w: line %d: want %d values, got %d", ErrMalformedOBJ, line, n, len(fields))
	}
	out := make([]float32, n)
	for i := range out {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedOBJ, line, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseCorner resolves "p", "p/t", "p//n" or "p/t/n" into zero-based
// indices, -1 marking an absent element. Negative references count back
// from the latest element.
func parseCorner(ref string, np, nt, nn, line int) ([3]int, error) {
	key := [3]int{-1, -1, -1}
	parts := strings.Split(ref, "/")
	if len(parts) > 3 {
		return key, fmt.Errorf("%w: line %d: bad corner %q", ErrMalformedOBJ, line, ref)
	}
	counts := [3]int{np, nt, nn}
	for i, p := range parts {
		if p == "" {
			if i == 0 {
				return key, fmt.Errorf("%w: line %d: corner %q has no position", ErrMalformedOBJ, line, ref)
			}
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return key, fmt.Errorf("%w: line %d: %v", ErrMalformedOBJ, line, err)
		}
		switch {
		case n > 0:
			n--
		case n < 0:
			n += counts[i]
		default:
			return key, fmt.Errorf("%w: line %d: zero index in %q", ErrMalformedOBJ, line, ref)
		}
		if n < 0 || n >= counts[i] {
			return key, fmt.Errorf("%w: line %d: index out of range in %q", ErrMalformedOBJ, line, ref)
		}
		key[i] = n
	}
	return key, nil
}
