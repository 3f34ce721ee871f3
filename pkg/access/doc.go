// Package access issues capability URLs for stored receipts.
//
// Expiring grants are SigV4 presigned URLs whose window opens ClockSkew
// before issue time and closes expiry after it. Each URL authorizes exactly
// one S3 request, chosen from the permission letters:
//
//	r      GET
//	a c w  PUT
//	d      DELETE
//	t      PUT ?tagging
//
// Permanent grants are gateway links bound to a stored access policy:
//
//	{publicURL}/receipts/shared?blobPath=...&si={policyID}&sig={hmac}
//
// The gateway checks them with VerifyPermanent. Deleting the policy revokes
// every permanent link at once.
package access
