// Package mapio saves and restores the voxel map as a zstd-compressed snapshot.
//
// A snapshot is a single JSON header line followed by a gob-encoded body.
package mapio

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/spadesx/spadesx/internal/world"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// FormatVersion is the snapshot layout version.
const FormatVersion = 1

// ErrSizeMismatch is returned when a snapshot was taken from a map with
// different dimensions.
var ErrSizeMismatch = errors.New("snapshot map size does not match")

// Header is the uncompressed-JSON first line of a snapshot.
type Header struct {
	Version int    `json:"version"`
	Tick    uint64 `json:"tick"`
	SizeX   int32  `json:"size_x"`
	SizeY   int32  `json:"size_y"`
	SizeZ   int32  `json:"size_z"`
	Blocks  int    `json:"blocks"`
}

// IntelV1 is one team's intel position.
type IntelV1 struct {
	X, Y, Z int32
	Set     bool
}

// SnapshotV1 is the gob body.
type SnapshotV1 struct {
	Header Header
	Blocks []pluginapi.Block
	Intel  [2]IntelV1
}

// Capture copies the map state out of w.
func Capture(w *world.World, tick uint64) SnapshotV1 {
	sx, sy, sz := w.Size()
	snap := SnapshotV1{
		Header: Header{
			Version: FormatVersion,
			Tick:    tick,
			SizeX:   sx,
			SizeY:   sy,
			SizeZ:   sz,
		},
		Blocks: w.Blocks(),
	}
	snap.Header.Blocks = len(snap.Blocks)
	for team := range snap.Intel {
		x, y, z, ok := w.Intel(uint8(team))
		snap.Intel[team] = IntelV1{X: x, Y: y, Z: z, Set: ok}
	}
	return snap
}

// Restore replaces the map state of w. Nothing is replicated.
func Restore(w *world.World, snap SnapshotV1) error {
	sx, sy, sz := w.Size()
	h := snap.Header
	if h.SizeX != sx || h.SizeY != sy || h.SizeZ != sz {
		return fmt.Errorf("%w: snapshot %dx%dx%d, map %dx%dx%d",
			ErrSizeMismatch, h.SizeX, h.SizeY, h.SizeZ, sx, sy, sz)
	}
	w.ClearBlocks()
	for _, b := range snap.Blocks {
		if r := w.PlaceBlockSilent(b.X, b.Y, b.Z, b.Color); r != pluginapi.ResultOK {
			return fmt.Errorf("block (%d,%d,%d): %v", b.X, b.Y, b.Z, r)
		}
	}
	for team, in := range snap.Intel {
		if !in.Set {
			continue
		}
		if r := w.SetIntel(uint8(team), in.X, in.Y, in.Z); r != pluginapi.ResultOK {
			return fmt.Errorf("intel %d: %v", team, r)
		}
	}
	return nil
}

// Encode writes snap to out.
func Encode(out io.Writer, snap SnapshotV1) error {
	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(snap.Header)
	if err != nil {
		enc.Close()
		return err
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Decode reads a snapshot from in.
func Decode(in io.Reader) (SnapshotV1, error) {
	var snap SnapshotV1
	dec, err := zstd.NewReader(in)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return snap, fmt.Errorf("parse header: %w", err)
	}
	if h.Version != FormatVersion {
		return snap, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// Save writes the map state of w to path, creating parent directories. The
// file is written to a temporary name first and renamed into place.
func Save(path string, w *world.World, tick uint64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := Encode(f, Capture(w, tick)); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Load restores the map state of w from path.
func Load(path string, w *world.World) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	snap, err := Decode(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return Restore(w, snap)
}
