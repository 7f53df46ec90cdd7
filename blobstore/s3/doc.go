// Package s3 provides an S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "logs/")
//	blob, err := store.Open(ctx, "2024/10/app.log")
//
// # Features
//
//   - Range GETs, so a scan resumes at a checkpoint offset without
//     downloading the prefix
//   - Multipart streaming uploads with CRC32C checksums
//   - Automatic pagination for listing
package s3
