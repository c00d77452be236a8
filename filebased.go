package hdt

// OpenFileBased keeps only the Triples section's subsection offsets and
// counts resident (a few hundred bytes); every accessor seeks, and
// bitmap rank/select streams byte-by-byte through streamBitmap. It
// shares its implementation with Minimal-Streaming — see
// streamingAccess's doc comment for why.
func OpenFileBased(path string, opts *Options) (TripleAccess, error) {
	return openStreaming(path, opts, "file-based")
}
