package db

import (
	"fmt"
	"strings"
)

// Type identifies a storage backend.
type Type string

const (
	// TypePebble is the on-disk LSM-tree backend and the default one.
	TypePebble  Type = "pebble"
	TypeLevelDB Type = "leveldb"
	TypeBolt    Type = "bolt"
	TypeMemory  Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

// ParseType converts a backend name into a Type. Matching ignores case and
// surrounding whitespace; an empty name selects TypePebble.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(TypePebble):
		return TypePebble, nil
	case string(TypeLevelDB), "plyvel":
		return TypeLevelDB, nil
	case string(TypeBolt), "bbolt":
		return TypeBolt, nil
	case string(TypeMemory), "mem":
		return TypeMemory, nil
	default:
		return "", fmt.Errorf("%w: unknown backend type %q", ErrInvalidConfig, name)
	}
}
