// Package checkpoint persists search state between runs: the current arc
// set, node types, total score, and iteration counter.
//
// Format: a fixed header (magic, version) followed by a zstd-compressed
// little-endian body. Checkpoints are small; they stream through a single
// encoder without intermediate buffers.
package checkpoint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/bayesgo/model"
)

var (
	checkpointMagic   = [4]byte{'B', 'G', 'C', '1'}
	checkpointVersion = uint16(1)
)

// ErrBadSnapshot indicates a stream that is not a readable checkpoint.
var ErrBadSnapshot = errors.New("checkpoint: bad snapshot")

// State is a point-in-time capture of a structure search.
type State struct {
	Names     []string
	Arcs      []model.Arc
	Types     []model.TypedNode // empty for untyped models
	Score     float64
	Iteration int
}

// Capture snapshots the model's structure together with the search score
// and iteration counter.
func Capture(m model.Model, score float64, iteration int) *State {
	st := &State{
		Score:     score,
		Iteration: iteration,
	}
	for i := 0; i < m.NumNodes(); i++ {
		st.Names = append(st.Names, m.Name(i))
	}
	for s := 0; s < m.NumNodes(); s++ {
		for t := 0; t < m.NumNodes(); t++ {
			if m.HasEdge(s, t) {
				st.Arcs = append(st.Arcs, model.Arc{Source: m.Name(s), Target: m.Name(t)})
			}
		}
	}
	if tm, ok := m.(model.TypedModel); ok {
		for i := 0; i < m.NumNodes(); i++ {
			st.Types = append(st.Types, model.TypedNode{Node: m.Name(i), Type: tm.NodeType(i)})
		}
	}
	return st
}

// Restore applies the captured arcs and node types to an arc-free model
// over the same node names.
func (st *State) Restore(m model.Model) error {
	for _, name := range st.Names {
		if _, ok := m.Index(name); !ok {
			return fmt.Errorf("checkpoint: model is missing node %q", name)
		}
	}
	for _, arc := range st.Arcs {
		s, _ := m.Index(arc.Source)
		t, ok := m.Index(arc.Target)
		if !ok {
			return fmt.Errorf("checkpoint: model is missing node %q", arc.Target)
		}
		if err := m.AddEdge(s, t); err != nil {
			return fmt.Errorf("checkpoint: restore %s -> %s: %w", arc.Source, arc.Target, err)
		}
	}
	if len(st.Types) > 0 {
		tm, ok := m.(model.TypedModel)
		if !ok {
			return fmt.Errorf("checkpoint: snapshot carries node types but the model has none")
		}
		for _, tn := range st.Types {
			i, _ := m.Index(tn.Node)
			tm.SetNodeType(i, tn.Type)
		}
	}
	return nil
}

// Save writes the state to w.
func Save(w io.Writer, st *State) error {
	var hdr [6]byte
	copy(hdr[0:4], checkpointMagic[:])
	binary.LittleEndian.PutUint16(hdr[4:6], checkpointVersion)
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("checkpoint: write header: %w", err)
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("checkpoint: create encoder: %w", err)
	}

	index := make(map[string]int, len(st.Names))
	for i, name := range st.Names {
		index[name] = i
	}

	if err := writeBody(enc, st, index); err != nil {
		_ = enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("checkpoint: flush encoder: %w", err)
	}
	return nil
}

func writeBody(w io.Writer, st *State, index map[string]int) error {
	writeU32 := func(v uint32) error {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		_, err := w.Write(b[:])
		return err
	}
	writeU64 := func(v uint64) error {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], v)
		_, err := w.Write(b[:])
		return err
	}
	writeString := func(s string) error {
		if err := writeU32(uint32(len(s))); err != nil {
			return err
		}
		_, err := io.WriteString(w, s)
		return err
	}

	if err := writeU32(uint32(len(st.Names))); err != nil {
		return err
	}
	for _, name := range st.Names {
		if err := writeString(name); err != nil {
			return err
		}
	}

	if err := writeU32(uint32(len(st.Arcs))); err != nil {
		return err
	}
	for _, arc := range st.Arcs {
		s, ok := index[arc.Source]
		if !ok {
			return fmt.Errorf("checkpoint: arc references unknown node %q", arc.Source)
		}
		t, ok := index[arc.Target]
		if !ok {
			return fmt.Errorf("checkpoint: arc references unknown node %q", arc.Target)
		}
		if err := writeU32(uint32(s)); err != nil {
			return err
		}
		if err := writeU32(uint32(t)); err != nil {
			return err
		}
	}

	if err := writeU32(uint32(len(st.Types))); err != nil {
		return err
	}
	for _, tn := range st.Types {
		i, ok := index[tn.Node]
		if !ok {
			return fmt.Errorf("checkpoint: type references unknown node %q", tn.Node)
		}
		if err := writeU32(uint32(i)); err != nil {
			return err
		}
		if err := writeU32(uint32(tn.Type)); err != nil {
			return err
		}
	}

	if err := writeU64(math.Float64bits(st.Score)); err != nil {
		return err
	}
	return writeU64(uint64(st.Iteration))
}

// Load reads a state previously written by Save.
func Load(r io.Reader) (*State, error) {
	var hdr [6]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: short header: %w", ErrBadSnapshot, err)
	}
	if [4]byte(hdr[0:4]) != checkpointMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadSnapshot)
	}
	if ver := binary.LittleEndian.Uint16(hdr[4:6]); ver != checkpointVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, ver)
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: create decoder: %w", ErrBadSnapshot, err)
	}
	defer dec.Close()

	st, err := readBody(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	return st, nil
}

func readBody(r io.Reader) (*State, error) {
	readU32 := func() (uint32, error) {
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint32(b[:]), nil
	}
	readU64 := func() (uint64, error) {
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(b[:]), nil
	}

	numNames, err := readU32()
	if err != nil {
		return nil, err
	}
	st := &State{}
	for i := uint32(0); i < numNames; i++ {
		n, err := readU32()
		if err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		st.Names = append(st.Names, string(buf))
	}

	nodeName := func(i uint32) (string, error) {
		if int(i) >= len(st.Names) {
			return "", fmt.Errorf("node index %d out of range", i)
		}
		return st.Names[i], nil
	}

	numArcs, err := readU32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numArcs; i++ {
		s, err := readU32()
		if err != nil {
			return nil, err
		}
		t, err := readU32()
		if err != nil {
			return nil, err
		}
		src, err := nodeName(s)
		if err != nil {
			return nil, err
		}
		dst, err := nodeName(t)
		if err != nil {
			return nil, err
		}
		st.Arcs = append(st.Arcs, model.Arc{Source: src, Target: dst})
	}

	numTypes, err := readU32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numTypes; i++ {
		n, err := readU32()
		if err != nil {
			return nil, err
		}
		t, err := readU32()
		if err != nil {
			return nil, err
		}
		name, err := nodeName(n)
		if err != nil {
			return nil, err
		}
		st.Types = append(st.Types, model.TypedNode{Node: name, Type: model.FactorType(t)})
	}

	scoreBits, err := readU64()
	if err != nil {
		return nil, err
	}
	st.Score = math.Float64frombits(scoreBits)

	iter, err := readU64()
	if err != nil {
		return nil, err
	}
	st.Iteration = int(iter)
	return st, nil
}

// SaveFile writes the state to a file, replacing any existing content.
func SaveFile(path string, st *State) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := Save(f, st); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads a state from a file.
func LoadFile(path string) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}
	defer f.Close()
	return Load(f)
}
