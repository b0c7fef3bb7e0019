package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
)

// filePermissions restricts snapshot files to the owner. A snapshot holds
// the full layout of a home, including schedule times.
const filePermissions = 0600

// Save writes the snapshot to the given path as indented JSON. Section
// keys match the bridge API, so the file reads as a faithful dump of the
// bridge's resource collections.
func Save(path string, s *Snapshot) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return fmt.Errorf("writing snapshot file: %w", err)
	}
	return nil
}

// Load reads a snapshot from the given path. Malformed JSON is a
// data-format error; referential integrity is the caller's concern (see
// Validate), since a freshly captured snapshot is validated before save
// and a loaded one before restore.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}

	s := New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataFormat, path, err)
	}
	return s, nil
}
