// Package fasthash contains utilities for fast non-cryptographic hashing of
// strings.  The lookup tables key their buckets with these hashes.
package fasthash

// Between implements the djb2 hash algorithm over str[begin:end].
func Between(str string, begin, end int) (hash uint32) {
	hash = uint32(5381)
	for i := begin; i < end; i++ {
		hash = (hash * 33) ^ uint32(str[i])
	}

	return hash
}

// String implements the djb2 hash algorithm for a string.
func String(str string) (hash uint32) {
	if str == "" {
		return 0
	}

	return Between(str, 0, len(str))
}
