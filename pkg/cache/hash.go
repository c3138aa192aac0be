package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds a namespaced artifact key: the family name followed by
// the SHA-256 of the JSON-encoded parts. Layout and snapshot keys share
// this shape so backends can shard on the hash without parsing it.
func hashKey(family string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return family + ":" + hex.EncodeToString(sum[:])
}

// Hash returns the full hex SHA-256 of data. The file cache derives entry
// paths from it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
