package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ModelKeyOpts holds everything besides the parameters that determines a model.
type ModelKeyOpts struct {
	Seed       uint64 `json:"seed"`
	Validation string `json:"validation"`
}

// ExportKeyOpts selects an encoding of a cached model.
type ExportKeyOpts struct {
	Sections []string `json:"sections"`
	Compress bool     `json:"compress"`
}

// Keyer builds cache keys.
type Keyer interface {
	// ModelKey identifies a generated model by its parameter hash and options.
	ModelKey(paramsHash string, opts ModelKeyOpts) string

	// ExportKey identifies an encoded export of a cached model.
	ExportKey(modelKey string, opts ExportKeyOpts) string
}

// DefaultKeyer produces unprefixed keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ModelKey implements Keyer.
func (DefaultKeyer) ModelKey(paramsHash string, opts ModelKeyOpts) string {
	return digestKey("model", paramsHash, opts)
}

// ExportKey implements Keyer.
func (DefaultKeyer) ExportKey(modelKey string, opts ExportKeyOpts) string {
	return digestKey("export", modelKey, opts)
}

// ScopedKeyer prefixes the keys of another Keyer, so deployments sharing a
// Redis instance do not see each other's entries:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (the DefaultKeyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return ScopedKeyer{inner: inner, prefix: prefix}
}

// ModelKey implements Keyer.
func (k ScopedKeyer) ModelKey(paramsHash string, opts ModelKeyOpts) string {
	return k.prefix + k.inner.ModelKey(paramsHash, opts)
}

// ExportKey implements Keyer.
func (k ScopedKeyer) ExportKey(modelKey string, opts ExportKeyOpts) string {
	return k.prefix + k.inner.ExportKey(modelKey, opts)
}

// digestKey returns "<kind>:<sha256 of the JSON of ref and opts>".
func digestKey(kind, ref string, opts any) string {
	data, err := json.Marshal(struct {
		Ref  string `json:"ref"`
		Opts any    `json:"opts"`
	}{ref, opts})
	if err != nil {
		// The option structs are plain data.
		panic("cache: marshal key options: " + err.Error())
	}
	return kind + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
