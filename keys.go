package statekit

import (
	"fmt"
	"strings"

	stateerrors "github.com/MathiasBohn/philter-mvp-sub003/errors"
)

// Key identifies one stored value. All service operations take a Key rather
// than a bare string so dynamically composed identifiers go through a
// KeyBuilder and cannot collide with unrelated features.
type Key string

// Separator joins a builder prefix with an identifier.
const Separator = ":"

// String returns the key as a plain string
func (k Key) String() string {
	return string(k)
}

// StaticKey returns a fixed key. The name must be non-empty and must not
// contain the separator, which is reserved for built keys.
func StaticKey(name string) (Key, error) {
	if name == "" || strings.Contains(name, Separator) {
		return "", stateerrors.WrapError("StaticKey", name, stateerrors.ErrInvalidKey)
	}
	return Key(name), nil
}

// MustStaticKey is like StaticKey but panics on an invalid name.
// Intended for package-level key declarations.
func MustStaticKey(name string) Key {
	k, err := StaticKey(name)
	if err != nil {
		panic(fmt.Sprintf("statekit: invalid static key %q", name))
	}
	return k
}

// KeyBuilder composes keys for one feature from a fixed prefix.
// Keys built from distinct prefixes can never collide, and built keys can
// never collide with static keys.
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a builder for the given prefix. The prefix must be
// non-empty and must not contain the separator.
func NewKeyBuilder(prefix string) (KeyBuilder, error) {
	if prefix == "" || strings.Contains(prefix, Separator) {
		return KeyBuilder{}, stateerrors.WrapError("NewKeyBuilder", prefix, stateerrors.ErrInvalidKey)
	}
	return KeyBuilder{prefix: prefix}, nil
}

// MustKeyBuilder is like NewKeyBuilder but panics on an invalid prefix.
// Intended for package-level builder declarations.
func MustKeyBuilder(prefix string) KeyBuilder {
	b, err := NewKeyBuilder(prefix)
	if err != nil {
		panic(fmt.Sprintf("statekit: invalid key prefix %q", prefix))
	}
	return b
}

// Key composes the key for one identifier under the builder's prefix.
func (b KeyBuilder) Key(id string) Key {
	return Key(b.prefix + Separator + id)
}

// Prefix returns the builder's prefix
func (b KeyBuilder) Prefix() string {
	return b.prefix
}
