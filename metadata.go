package zindex

// Metadata keys stored in the index file's Metadata table.
const (
	metaSourcePath    = "compressedFile"
	metaSourceSize    = "compressedSize"
	metaSourceModTime = "compressedModTime"
	metaIndexEvery    = "indexEvery"
	metaBuildID       = "build_id"
)
