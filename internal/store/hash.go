package store

import "github.com/twmb/murmur3"

// shardIndex deterministically maps key to one of n shards using
// murmur3.Sum64, the first 64 bits of MurmurHash3 x64_128. murmur3 distributes independently of key
// length and does not collapse common prefixes, satisfying §4.5's
// requirement on the mixing function; it is also already part of this
// module's dependency set, having previously been reached for and then
// left unused in the reference codebase.
func shardIndex(key []byte, n int) int {
	h := murmur3.Sum64(key)
	return int(h % uint64(n))
}
