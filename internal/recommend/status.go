package recommend

import "time"

// Status describes the engine's active collaborators.
type Status struct {
	Generation         uint64         `json:"generation"`
	LoadedAt           time.Time      `json:"loaded_at"`
	Recipes            int            `json:"recipes"`
	CatalogTokens      int            `json:"catalog_tokens"`
	Vocabulary         int            `json:"vocabulary"`
	Dimensions         int            `json:"dimensions"`
	StoreFingerprint   string         `json:"store_fingerprint"`
	CatalogFingerprint string         `json:"catalog_fingerprint"`
	Snapshots          []SnapshotInfo `json:"snapshots"`
}
