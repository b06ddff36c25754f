// Package s3 provides a blobstore.Store backed by Amazon S3 using aws-sdk-go-v2.
//
// # Basic Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "glyphs/")
//
// Reads stream the object body; Put goes through the transfer manager so large
// reports are uploaded in parts.
package s3
