// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible servers (Ceph, SeaweedFS,
// Garage) without the AWS SDK.
//
//	client, err := minioblob.NewClient(minioblob.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	})
//	store := minioblob.NewStore(client, "logs", "ingest/")
//
// Reads are range GETs, so scans can resume from a checkpoint offset.
// Create streams the written data into PutObject.
package minio
