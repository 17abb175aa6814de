package badger

import "strconv"

// Key prefixes for different data types
const (
	collectionPrefix = "col"
	entryPrefix      = "ent"
)

// makeCollectionKey generates the key holding a collection's descriptor.
// Format: col:name
func makeCollectionKey(name string) []byte {
	return []byte(collectionPrefix + ":" + name)
}

// makeEntryPrefix generates the prefix shared by every entry of a collection.
// The name is length-prefixed so no collection's prefix is a prefix of
// another's, even when names contain the separator.
// Format: ent:len(name):name:
func makeEntryPrefix(name string) []byte {
	return []byte(entryPrefix + ":" + strconv.Itoa(len(name)) + ":" + name + ":")
}

// makeEntryKey generates the key for one entry.
// Format: ent:len(name):name:id
func makeEntryKey(name, id string) []byte {
	prefix := makeEntryPrefix(name)
	buf := make([]byte, len(prefix)+len(id))
	offset := copy(buf, prefix)
	copy(buf[offset:], id)
	return buf
}
