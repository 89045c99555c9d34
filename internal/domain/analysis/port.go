package analysis

import "context"

// ResultRepository port for persisting and querying analysis results.
// Records are never updated or deleted.
type ResultRepository interface {
	Create(ctx context.Context, text string, sentiment Sentiment, score, magnitude float64, audioFilename *string) (string, error)
	Get(ctx context.Context, id string) (*Result, error)
	List(ctx context.Context) ([]*Result, error)
}

// AudioRepository port for recorded audio blobs.
type AudioRepository interface {
	Create(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, filename string) ([]byte, error)
	Exists(ctx context.Context, filename string) (bool, error)
}
