package vectorlog

// bucketCount is the fixed chained-hash bucket count, a prime chosen for good
// distribution up to the documented max-vectors bound. No rehashing occurs: past that
// bound, chain lengths grow and lookups degrade to linear scans per bucket.
const bucketCount = 10007

// keyEntry is one chained-hash node: an id's record offset, declared dimension, and
// tombstone state. Entries are never unlinked on delete — only flagged — mirroring the
// log's own append-only, tombstone-don't-compact contract.
type keyEntry struct {
	id         uint64
	offset     int64
	dimension  uint32
	tombstoned bool
	next       *keyEntry
}

// keyIndex is the in-memory accelerator mapping an id to its most recent record offset.
type keyIndex struct {
	buckets [bucketCount]*keyEntry
	count   int
}

func newKeyIndex() *keyIndex {
	return &keyIndex{}
}

func bucketFor(id uint64) uint64 { return id % bucketCount }

// insert links a new entry for id. Callers must check find(id) returns nil first —
// insert does not itself reject duplicates.
func (k *keyIndex) insert(id uint64, offset int64, dimension uint32) {
	idx := bucketFor(id)
	k.buckets[idx] = &keyEntry{
		id:        id,
		offset:    offset,
		dimension: dimension,
		next:      k.buckets[idx],
	}
	k.count++
}

// find returns the live (non-tombstoned) entry for id, or nil.
func (k *keyIndex) find(id uint64) *keyEntry {
	e := k.buckets[bucketFor(id)]
	for e != nil {
		if e.id == id && !e.tombstoned {
			return e
		}
		e = e.next
	}
	return nil
}

// tombstone marks id's entry deleted in memory. Reports whether an entry was found.
func (k *keyIndex) tombstone(id uint64) bool {
	e := k.find(id)
	if e == nil {
		return false
	}
	e.tombstoned = true
	k.count--
	return true
}

// liveCount returns the number of non-tombstoned entries.
func (k *keyIndex) liveCount() int { return k.count }

// rangeLive calls fn for every live entry, stopping early if fn returns false.
func (k *keyIndex) rangeLive(fn func(e *keyEntry) bool) {
	for _, head := range k.buckets {
		for e := head; e != nil; e = e.next {
			if e.tombstoned {
				continue
			}
			if !fn(e) {
				return
			}
		}
	}
}
