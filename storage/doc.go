// Package storage abstracts where comparison results are written.
//
// Backends register a Factory under a provider name and are selected by
// Config.Provider:
//
//   - storage/local: a directory on disk
//   - storage/s3: Amazon S3 or an S3-compatible endpoint (MinIO)
//
// Import the backend for its side effect before calling New:
//
//	import _ "github.com/kbukum/abcompare/storage/local"
//
//	st, err := storage.New(ctx, storage.Config{Provider: "local", BasePath: "results"}, log)
//
// Example YAML:
//
//	archive:
//	  enabled: true
//	  provider: s3
//	  bucket: ab-results
//	  prefix: nightly
package storage
