package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// Hasher produces a fixed-size hex digest of a file's content.
type Hasher interface {
	Name() string
	HashFile(path string) (string, error)
}

// SHA256Hasher is the default digest. Collision resistance matters here:
// two differing exports must never hash equal, or a real change is dropped.
type SHA256Hasher struct{}

func (SHA256Hasher) Name() string { return "sha256" }

func (SHA256Hasher) HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// XXH3Hasher is an opt-in fast hasher for large trees where an accidental
// collision is an acceptable trade for speed.
type XXH3Hasher struct{}

func (XXH3Hasher) Name() string { return "xxh3" }

func (XXH3Hasher) HashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", xxh3.Hash(content)), nil
}

// HasherByName maps a configured hasher name to an implementation.
func HasherByName(name string) (Hasher, error) {
	switch name {
	case "", "sha256":
		return SHA256Hasher{}, nil
	case "xxh3":
		return XXH3Hasher{}, nil
	default:
		return nil, fmt.Errorf("unknown hasher %q (expected sha256 or xxh3)", name)
	}
}
