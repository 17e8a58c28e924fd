// Package store provides the remote store clients a benchmark run transfers
// against.
//
// Every backend implements Store with the same four operations:
//
//	ContentLength(ctx, path)                      total object size
//	OpenRange(ctx, path, offset, length)          one bounded range read
//	SegmentedUpload(ctx, local, remote, params, fn) multipart upload with progress
//	Remove(ctx, path)                             delete the benchmark object
//
// # Backends
//
//   - OCIStore: OCI Object Storage through the oci-go-sdk, multipart uploads
//     via the SDK's transfer.UploadManager.
//   - S3Store: AWS S3 through aws-sdk-go-v2, multipart uploads via the s3
//     manager.Uploader.
//   - BlobStore: any Go CDK bucket URL (mem://, file://).
//   - WebHDFSStore: WebHDFS REST endpoints such as Azure Data Lake Store,
//     authenticated with the run's bearer token.
//
// Range reads must return exactly the requested bytes; callers treat a short
// body as a failed segment.
package store
