// Package storage stores PDF receipts in S3-compatible object storage.
//
// An Account is constructed once from Config and hands out the primary and
// backup Container handles. Receipts are written under a deterministic path
// derived from their business key:
//
//	client/{clientId}/{yyyy}/{mm}/{dd}/{posId}/{receiptId}.pdf
//
// # Basic Usage
//
//	acct, err := storage.New(storage.Config{
//		AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
//		SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
//		Endpoint:  "http://localhost:9000",
//		PathStyle: true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	path, err := acct.Primary().Put(ctx, pdf, storage.ReceiptKey{
//		ClientID: "acme",
//		PosID:    "till-1",
//		Date:     "2024-03-05",
//	})
//
// Every receipt is written with Content-MD5, a BLAKE3 digest in its
// metadata and the tags backup=needed, client and pos in the same request.
//
// # Backup
//
// The backup container is filled by CopyFromURL, which fetches a
// presigned source URL, verifies the digest and waits for the destination
// to become visible. TagScan lists receipts still tagged backup=needed.
//
// # Access policies
//
// GetPolicy, CreatePolicy, DeletePolicy and EnsurePolicy manage the stored
// read policy that permanent gateway links are bound to. Policies live under
// the reserved _policies/ prefix.
//
// # Error Handling
//
// Operations return wrapped sentinel errors; match with errors.Is:
//
//	if errors.Is(err, storage.ErrNotFound) {
//		// Object does not exist
//	}
package storage
