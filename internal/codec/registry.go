package codec

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Codec reads and writes one on-disk array encoding. Formats that are not
// keyed containers (images, .npy) ignore the key argument.
type Codec interface {
	// Decode loads the array stored at path. For container formats (.mat,
	// .h5) key names the field/dataset to extract.
	Decode(path, key string) (*Array, error)
	// Encode persists the array verbatim at path under key.
	Encode(path, key string, a *Array) error
}

// ErrUnknownFormat reports a file extension with no registered codec.
var ErrUnknownFormat = errors.New("codec: unknown file format")

var (
	mu       sync.RWMutex
	registry = map[string]Codec{}
)

// Register associates a codec with a file extension (without the dot).
// Registering the same extension twice replaces the earlier codec.
func Register(ext string, c Codec) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(ext)] = c
}

// Lookup resolves the codec for a path by its extension.
func Lookup(path string) (Codec, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	mu.RLock()
	c, ok := registry[ext]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	return c, nil
}

// Decode loads an array using the codec registered for the path's extension.
func Decode(path, key string) (*Array, error) {
	c, err := Lookup(path)
	if err != nil {
		return nil, err
	}
	return c.Decode(path, key)
}

// Encode writes an array using the codec registered for the path's extension.
func Encode(path, key string, a *Array) error {
	c, err := Lookup(path)
	if err != nil {
		return err
	}
	return c.Encode(path, key, a)
}

func init() {
	img := imageCodec{}
	for _, ext := range []string{"png", "jpg", "jpeg", "bmp"} {
		Register(ext, img)
	}
	Register("npy", npyCodec{})
	Register("mat", matCodec{})
	Register("h5", h5Codec{})
}
