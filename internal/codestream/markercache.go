package codestream

// MarkerCacheEntry records where one marker segment lives in the codestream.
type MarkerCacheEntry struct {
	Marker Marker
	Offset int64
	Length int64
}

// MarkerCache is an append-only record of every marker segment a Parser has
// consumed, keyed by encounter order and indexed by marker code. It is the
// piece the teacher's bare io.Reader-driven parser never needed (the
// teacher parses once, top to bottom, and never revisits a marker): once a
// codestream is fetched through a random-access fetch.Source, a client that
// wants to re-inspect, say, every TLM entry without re-parsing the whole
// main header can do it against this cache instead.
type MarkerCache struct {
	entries []MarkerCacheEntry
	byCode  map[Marker][]int
}

// NewMarkerCache returns an empty cache.
func NewMarkerCache() *MarkerCache {
	return &MarkerCache{byCode: make(map[Marker][]int)}
}

// Record appends one marker-segment observation.
func (c *MarkerCache) Record(m Marker, offset, length int64) {
	idx := len(c.entries)
	c.entries = append(c.entries, MarkerCacheEntry{Marker: m, Offset: offset, Length: length})
	c.byCode[m] = append(c.byCode[m], idx)
}

// Entries returns every recorded marker segment in encounter order.
func (c *MarkerCache) Entries() []MarkerCacheEntry {
	return c.entries
}

// Lookup returns every recorded occurrence of marker m, in encounter order.
func (c *MarkerCache) Lookup(m Marker) []MarkerCacheEntry {
	idxs := c.byCode[m]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]MarkerCacheEntry, len(idxs))
	for i, idx := range idxs {
		out[i] = c.entries[idx]
	}
	return out
}
