package badger

import "strings"

// Key prefixes for different data types
const (
	embeddingPrefix = "emb:"
	tablePrefix     = "tbl:"
)

// makeEmbeddingKey generates a key for an embedding record by id.
func makeEmbeddingKey(id string) []byte {
	return []byte(embeddingPrefix + id)
}

// makeEmbeddingScanPrefix generates the key prefix matching every id that
// starts with idPrefix.
func makeEmbeddingScanPrefix(idPrefix string) []byte {
	return []byte(embeddingPrefix + idPrefix)
}

// idFromEmbeddingKey strips the key prefix from an embedding key.
func idFromEmbeddingKey(key []byte) string {
	return strings.TrimPrefix(string(key), embeddingPrefix)
}

// makeTableKey generates the key holding a table descriptor.
func makeTableKey(name string) []byte {
	return []byte(tablePrefix + name)
}
