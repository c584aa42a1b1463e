// Package nnindex provides an embeddable approximate nearest neighbor
// index for Go.
//
// The package exposes two engines behind the same handle surface: a
// graph-based approximate engine for large collections and a brute-force
// engine for exact results on small ones. Batch inserts and searches are
// dispatched across a worker pool.
//
// # Quick Start
//
//	idx, _ := nnindex.NewGraph(space.MetricL2, 128)
//	_ = idx.Init(100_000)
//
//	_ = idx.AddItems(ctx, vectors)
//	labels, distances, _ := idx.SearchKNN(ctx, queries, 10)
//
// # Metrics
//
// Three metric spaces are supported: squared L2, inner product, and
// cosine. Cosine normalizes every inserted and queried vector, so the
// engine itself only ever sees unit vectors.
//
// # Labels and Deletion
//
// Rows receive sequential labels unless explicit labels are passed:
//
//	_ = idx.AddItems(ctx, vectors, nnindex.WithLabels(labels))
//
// The graph engine supports soft deletion. Deleted points stay in the
// graph as routing nodes but are excluded from results:
//
//	idx.MarkDeleted(ctx, 42)
//	idx.UnmarkDeleted(ctx, 42)
//
// # Persistence
//
// Snapshots can be written to a file, an io.Writer, or a blob store
// (local directory, S3, MinIO), optionally compressed:
//
//	_ = idx.Save("index.snap", nnindex.WithCompression(snapshot.CompressionZstd))
//	idx, _ = nnindex.LoadGraph(space.MetricL2, 128, "index.snap")
//
//	store, _ := s3.New(ctx, "my-bucket", "indexes/")
//	_ = idx.SaveToStore(ctx, store, "index.snap")
package nnindex
