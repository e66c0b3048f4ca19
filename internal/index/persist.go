// internal/index/persist.go
package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"seafrepo/internal/errors"
)

// ReadIndexFrom loads the index file at path. A missing file is not an
// error: it is treated as an "unborn" empty index (spec §4.D).
func ReadIndexFrom(path string) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, errors.IOError(fmt.Sprintf("opening index %s: %v", path, err))
	}
	defer f.Close()

	r := bufio.NewReader(f)

	hdr := make([]byte, len(magic))
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, errors.Corruption(fmt.Sprintf("index %s: truncated header", path))
	}
	if string(hdr) != magic {
		return nil, errors.Corruption(fmt.Sprintf("index %s: bad magic", path))
	}

	var version uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, errors.Corruption(fmt.Sprintf("index %s: truncated version", path))
	}

	var bodyLen uint64
	if err := binary.Read(r, binary.BigEndian, &bodyLen); err != nil {
		return nil, errors.Corruption(fmt.Sprintf("index %s: truncated length", path))
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errors.Corruption(fmt.Sprintf("index %s: truncated body", path))
	}

	var entries []CacheEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, errors.Corruption(fmt.Sprintf("index %s: %v", path, err))
	}

	return &State{Version: int(version), Entries: entries}, nil
}

// UpdateIndex writes state to path atomically: write to a temp file in
// the same directory, fsync it, then rename over the destination
// (spec §4.D, invariant §8.8). Readers either see the complete old
// file or the complete new one, never a torn write.
func UpdateIndex(state *State, path string) error {
	if state.Version == 0 {
		state.Version = currentVersion
	}

	body, err := json.Marshal(state.Entries)
	if err != nil {
		return errors.IOError(fmt.Sprintf("marshaling index: %v", err))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.IOError(fmt.Sprintf("creating index directory: %v", err))
	}

	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return errors.IOError(fmt.Sprintf("creating temp index: %v", err))
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	w := bufio.NewWriter(tmp)
	if _, err := w.WriteString(magic); err != nil {
		tmp.Close()
		return errors.IOError(fmt.Sprintf("writing index header: %v", err))
	}
	if err := binary.Write(w, binary.BigEndian, uint32(state.Version)); err != nil {
		tmp.Close()
		return errors.IOError(fmt.Sprintf("writing index version: %v", err))
	}
	if err := binary.Write(w, binary.BigEndian, uint64(len(body))); err != nil {
		tmp.Close()
		return errors.IOError(fmt.Sprintf("writing index length: %v", err))
	}
	if _, err := w.Write(body); err != nil {
		tmp.Close()
		return errors.IOError(fmt.Sprintf("writing index body: %v", err))
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return errors.IOError(fmt.Sprintf("flushing index: %v", err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.IOError(fmt.Sprintf("fsyncing index: %v", err))
	}
	if err := tmp.Close(); err != nil {
		return errors.IOError(fmt.Sprintf("closing temp index: %v", err))
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return errors.IOError(fmt.Sprintf("renaming index into place: %v", err))
	}
	return nil
}
