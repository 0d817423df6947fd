package cart

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
)

// SchemaVersion is the current snapshot format version. Snapshots carry it so
// old persisted carts can be migrated instead of silently misread.
const SchemaVersion = 1

type snapshot struct {
	Version int    `json:"version"`
	Items   []Item `json:"items"`
}

// EncodeSnapshot serializes the store's lines with the current schema version.
func EncodeSnapshot(s *Store) ([]byte, error) {
	data, err := json.Marshal(snapshot{
		Version: SchemaVersion,
		Items:   s.items,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode cart snapshot")
	}
	return data, nil
}

// DecodeSnapshot restores a Store from persisted bytes.
//
// Version handling:
//   - current version: decoded as-is
//   - version 0 (legacy, no version field): lines are revalidated during
//     migration; entries with a quantity below one or above their stock
//     snapshot are dropped, the rest survive
//   - any newer version: reset to an empty cart
func DecodeSnapshot(data []byte) (*Store, error) {
	if len(data) == 0 {
		return New(), nil
	}

	version, err := peekVersion(data)
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot version")
	}
	if version > SchemaVersion {
		return New(), nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(err, "decode cart snapshot")
	}

	if version < SchemaVersion {
		return Restore(migrateLegacy(snap.Items)), nil
	}
	return Restore(snap.Items), nil
}

// peekVersion extracts the version field without decoding the item payload.
// A snapshot without a version field is version 0.
func peekVersion(data []byte) (int, error) {
	d := jx.DecodeBytes(data)
	version := 0
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key == "version" {
			v, err := d.Int()
			version = v
			return err
		}
		return d.Skip()
	})
	return version, err
}

// migrateLegacy keeps only lines that still satisfy the store invariants and
// backfills line IDs that legacy snapshots may lack.
func migrateLegacy(items []Item) []Item {
	kept := make([]Item, 0, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.Quantity < 1 || it.Quantity > it.Stock {
			continue
		}
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		kept = append(kept, it)
	}
	return kept
}
