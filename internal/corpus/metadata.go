package corpus

// Article describes one document's entry in the corpus metadata bundle.
type Article struct {
	Title          string `json:"title"`
	URL            string `json:"url"`
	Filepath       string `json:"filepath"`
	EmbeddingIndex int    `json:"embedding_index"`
}

// Group is a cluster of articles sharing a centroid, used by the client's
// public-centroid nearest-neighbor optimisation.
type Group struct {
	CentroidIndex int   `json:"centroid_index"`
	Articles      []int `json:"articles"`
}

// Metadata is the corpus-wide index: article identity and cluster
// membership, loaded from embeddings/metadata.json.
type Metadata struct {
	Articles []Article `json:"articles"`
	Groups   []Group   `json:"groups"`
}
