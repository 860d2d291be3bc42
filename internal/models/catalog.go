// Package models presents selectable recognizer models, validates and
// persists the user's selection, and gates downloaded model files before
// they reach the trusted models directory.
package models

// CatalogEntry is static reference data for one known ggml model build.
// Size is optional (0 means unknown); SHA256 is required and gates every
// install. The catalog is constructed once and never mutated at runtime.
type CatalogEntry struct {
	ID       string
	Name     string
	Filename string
	Size     int64
	SHA256   string
	URL      string
}

// DefaultCatalogID is the entry elected when no selection is persisted
// and the option is present in the snapshot.
const DefaultCatalogID = "base.en"

const hfBase = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

var catalog = []CatalogEntry{
	{
		ID:       "tiny.en",
		Name:     "Tiny (English)",
		Filename: "ggml-tiny.en.bin",
		Size:     77704715,
		SHA256:   "921e4cf8686fdd993dcd081a5da5b6c365bfde1162e72b08d75ac75289920b1f",
		URL:      hfBase + "ggml-tiny.en.bin",
	},
	{
		ID:       "base.en",
		Name:     "Base (English)",
		Filename: "ggml-base.en.bin",
		Size:     147964211,
		SHA256:   "a03779c86df3323075f5e796cb2ce5029f00ec8869eee3fdfb897afe36c6d002",
		URL:      hfBase + "ggml-base.en.bin",
	},
	{
		ID:       "small.en",
		Name:     "Small (English)",
		Filename: "ggml-small.en.bin",
		Size:     487601967,
		SHA256:   "c6138d6d58ecc8322097e0f987c32f1be8bb0a18532a3f88f734d1bbf9c41e5d",
		URL:      hfBase + "ggml-small.en.bin",
	},
	{
		ID:       "medium.en",
		Name:     "Medium (English)",
		Filename: "ggml-medium.en.bin",
		Size:     1533774781,
		SHA256:   "cc37e93478338ec7700281a7ac30a10128929eb8f8df4bbfd8a5f588a175e7a1",
		URL:      hfBase + "ggml-medium.en.bin",
	},
	{
		ID:       "large-v3",
		Name:     "Large v3 (multilingual)",
		Filename: "ggml-large-v3.bin",
		Size:     3095033483,
		SHA256:   "64d182b440b98d5203c4f9bd541544d84c605196c4f7b845dfa11fb23594d1e2",
		URL:      hfBase + "ggml-large-v3.bin",
	},
}

// Catalog returns the known-model reference table in display order.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogByID looks up one catalog entry.
func CatalogByID(id string) (CatalogEntry, bool) {
	for _, entry := range catalog {
		if entry.ID == id {
			return entry, true
		}
	}
	return CatalogEntry{}, false
}
