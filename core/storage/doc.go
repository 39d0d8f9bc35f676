// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client to provide a simplified interface for the
// operations DataSync needs: reading local feature snapshots and archiving
// rotated run logs. The abstraction supports both AWS S3 and self-hosted
// MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it
// easier to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Operations
//
//   - BucketExists: Verifies access to the target bucket.
//   - GetObject: Retrieves content as a stream (snapshot loading).
//   - PutObject: Uploads content (run log archiving).
//   - ListObjects: Lists objects in a bucket (archived log browsing).
//   - RemoveObject: Deletes an object (archive pruning).
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "datasync")
package storage
