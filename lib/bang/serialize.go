// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package bang

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"git.lukeshu.com/go/lowmemjson"

	"git.lukeshu.com/bang-cluster/lib/jsonutil"
)

// Persisted state (spec.md §6.4): an Engine serializes its
// dimensionality, tuning parameters, split schedule, and the full
// directory tree, so a consumer can reload a built index without
// re-ingesting the original tuples. The wire format is hand-written
// JSON in the manner of btrfssum.SumRunWithGaps: plain values are
// delegated to lowmemjson's generic encoder/decoder, while the
// recursive tree shape is walked explicitly.
var (
	_ lowmemjson.Encodable = (*Engine)(nil)
	_ lowmemjson.Decodable = (*Engine)(nil)
	_ lowmemjson.Encodable = GridRegion{}
	_ lowmemjson.Decodable = (*GridRegion)(nil)
)

func encodeCode(w io.Writer, code RegionCode) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(code))
	return jsonutil.EncodeHexString(w, buf[:])
}

func decodeCode(r io.RuneScanner) (RegionCode, error) {
	var buf bytes.Buffer
	if err := jsonutil.DecodeHexString(r, &buf); err != nil {
		return 0, err
	}
	b := buf.Bytes()
	var full [8]byte
	copy(full[8-len(b):], b)
	return RegionCode(binary.BigEndian.Uint64(full[:])), nil
}

// EncodeJSON implements lowmemjson.Encodable.
func (r GridRegion) EncodeJSON(w io.Writer) error {
	if _, err := io.WriteString(w, `{"Code":`); err != nil {
		return err
	}
	if err := encodeCode(w, r.Code); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `,"Level":%d,"Population":%d,"Density":`, r.Level, r.Population); err != nil {
		return err
	}
	if err := lowmemjson.NewEncoder(w).Encode(r.Density); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `,"Position":%d,"Tuples":`, r.Position); err != nil {
		return err
	}
	if err := lowmemjson.NewEncoder(w).Encode(r.Tuples); err != nil {
		return err
	}
	if _, err := io.WriteString(w, `}`); err != nil {
		return err
	}
	return nil
}

// DecodeJSON implements lowmemjson.Decodable.
func (r *GridRegion) DecodeJSON(rs io.RuneScanner) error {
	*r = GridRegion{}
	var name string
	return lowmemjson.DecodeObject(rs,
		func(rs io.RuneScanner) error {
			return lowmemjson.NewDecoder(rs).Decode(&name)
		},
		func(rs io.RuneScanner) error {
			switch name {
			case "Code":
				code, err := decodeCode(rs)
				if err != nil {
					return err
				}
				r.Code = code
				return nil
			case "Level":
				return lowmemjson.NewDecoder(rs).Decode(&r.Level)
			case "Population":
				return lowmemjson.NewDecoder(rs).Decode(&r.Population)
			case "Density":
				return lowmemjson.NewDecoder(rs).Decode(&r.Density)
			case "Position":
				return lowmemjson.NewDecoder(rs).Decode(&r.Position)
			case "Tuples":
				return lowmemjson.NewDecoder(rs).Decode(&r.Tuples)
			default:
				return fmt.Errorf("bang: GridRegion: unknown key %q", name)
			}
		})
}

func encodeEntry(w io.Writer, e *directoryEntry) error {
	if _, err := io.WriteString(w, `{"HasRegion":`); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%t", e.hasRegion()); err != nil {
		return err
	}
	if e.hasRegion() {
		if _, err := io.WriteString(w, `,"Region":`); err != nil {
			return err
		}
		if err := lowmemjson.NewEncoder(w).Encode(e.region.Val); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, `,"HasLeft":%t`, e.left != nil); err != nil {
		return err
	}
	if e.left != nil {
		if _, err := io.WriteString(w, `,"Left":`); err != nil {
			return err
		}
		if err := encodeEntry(w, e.left); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, `,"HasRight":%t`, e.right != nil); err != nil {
		return err
	}
	if e.right != nil {
		if _, err := io.WriteString(w, `,"Right":`); err != nil {
			return err
		}
		if err := encodeEntry(w, e.right); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `}`)
	return err
}

func decodeEntry(r io.RuneScanner, back *directoryEntry) (*directoryEntry, error) {
	e := &directoryEntry{back: back}
	var name string
	err := lowmemjson.DecodeObject(r,
		func(r io.RuneScanner) error {
			return lowmemjson.NewDecoder(r).Decode(&name)
		},
		func(r io.RuneScanner) error {
			switch name {
			case "HasRegion":
				return lowmemjson.NewDecoder(r).Decode(&e.region.OK)
			case "Region":
				return lowmemjson.NewDecoder(r).Decode(&e.region.Val)
			case "HasLeft", "HasRight":
				var has bool
				return lowmemjson.NewDecoder(r).Decode(&has)
			case "Left":
				child, err := decodeEntry(r, e)
				if err != nil {
					return err
				}
				e.left = child
				return nil
			case "Right":
				child, err := decodeEntry(r, e)
				if err != nil {
					return err
				}
				e.right = child
				return nil
			default:
				return fmt.Errorf("bang: directoryEntry: unknown key %q", name)
			}
		})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// EncodeJSON implements lowmemjson.Encodable.
func (en *Engine) EncodeJSON(w io.Writer) error {
	if _, err := fmt.Fprintf(w, `{"D":%d,"Bucketsize":%d,"NeighborMargin":%d,"ClusterPercent":%d,"TuplesCount":%d,"DimensionLevels":`,
		en.d, en.bucketsize, en.neighborMargin, en.clusterPercent, en.tuplesCount); err != nil {
		return err
	}
	if err := lowmemjson.NewEncoder(w).Encode(en.dimensionLevels); err != nil {
		return err
	}
	if _, err := io.WriteString(w, `,"Tree":`); err != nil {
		return err
	}
	if err := encodeEntry(w, en.root); err != nil {
		return err
	}
	_, err := io.WriteString(w, `}`)
	return err
}

// DecodeJSON implements lowmemjson.Decodable. The resulting Engine is
// marked built, since a persisted tree has already been through the
// split/redistribute protocol; Insert on it returns ErrUseAfterBuild.
// Callers who want to resume ingestion should not rely on round-tripping.
func (en *Engine) DecodeJSON(r io.RuneScanner) error {
	*en = Engine{coder: &coder{}, built: true}
	var name string
	err := lowmemjson.DecodeObject(r,
		func(r io.RuneScanner) error {
			return lowmemjson.NewDecoder(r).Decode(&name)
		},
		func(r io.RuneScanner) error {
			switch name {
			case "D":
				return lowmemjson.NewDecoder(r).Decode(&en.d)
			case "Bucketsize":
				return lowmemjson.NewDecoder(r).Decode(&en.bucketsize)
			case "NeighborMargin":
				if err := lowmemjson.NewDecoder(r).Decode(&en.neighborMargin); err != nil {
					return err
				}
				en.neighborCondition = en.d - en.neighborMargin
				return nil
			case "ClusterPercent":
				return lowmemjson.NewDecoder(r).Decode(&en.clusterPercent)
			case "TuplesCount":
				return lowmemjson.NewDecoder(r).Decode(&en.tuplesCount)
			case "DimensionLevels":
				return lowmemjson.NewDecoder(r).Decode(&en.dimensionLevels)
			case "Tree":
				root, err := decodeEntry(r, nil)
				if err != nil {
					return err
				}
				en.root = root
				return nil
			default:
				return fmt.Errorf("bang: Engine: unknown key %q", name)
			}
		})
	if err != nil {
		return err
	}
	en.scaleCoords = make([]uint64, en.d+1)
	if en.ctx == nil {
		en.ctx = context.Background()
	}
	var sorted []*GridRegion
	en.root.collectRegions(&sorted)
	sortRegions(sorted)
	en.dendrogram = en.createDendogram(sorted)
	en.clusters = en.createClusters(sorted)
	return nil
}
