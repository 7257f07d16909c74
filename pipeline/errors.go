package pipeline

import "errors"

var (
	// ErrNilGatherer indicates a nil gatherer was passed to a constructor.
	ErrNilGatherer = errors.New("gatherer is required")

	// ErrNilDeduplicator indicates a nil deduplicator was passed to a constructor.
	ErrNilDeduplicator = errors.New("deduplicator is required")

	// ErrNilStore indicates a nil article store was passed to a constructor.
	ErrNilStore = errors.New("article store is required")

	// ErrNilIndexer indicates a nil indexer was passed to a constructor.
	ErrNilIndexer = errors.New("indexer is required")

	// ErrNilPipeline indicates a nil pipeline was passed to a constructor.
	ErrNilPipeline = errors.New("pipeline is required")

	// ErrRunInFlight indicates another ingest run is already executing.
	ErrRunInFlight = errors.New("an ingest run is already in flight")
)
