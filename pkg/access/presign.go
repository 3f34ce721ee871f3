package access

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/Komal-TGT/Storage-service/pkg/clock"
)

// ClockSkew is how far before issue time an expiring grant becomes valid.
// It tolerates clocks on the storage side running behind ours.
const ClockSkew = 60 * time.Second

// MaxExpiry is the longest lifetime a SigV4 presigned URL accepts,
// less the skew already added to the signature window.
const MaxExpiry = 7*24*time.Hour - ClockSkew

// skewedPresigner signs with a start time of now-ClockSkew taken from the
// injected clock, ignoring the SDK supplied signing time.
type skewedPresigner struct {
	signer *v4.Signer
	clock  clock.Clock
}

var _ s3.HTTPPresignerV4 = skewedPresigner{}

func newSkewedPresigner(clk clock.Clock) skewedPresigner {
	return skewedPresigner{
		signer: v4.NewSigner(func(o *v4.SignerOptions) {
			// S3 keys are escaped once by the serializer.
			o.DisableURIPathEscaping = true
		}),
		clock: clk,
	}
}

// PresignHTTP implements s3.HTTPPresignerV4.
func (p skewedPresigner) PresignHTTP(
	ctx context.Context, credentials aws.Credentials, r *http.Request,
	payloadHash string, service string, region string, _ time.Time,
	optFns ...func(*v4.SignerOptions),
) (string, http.Header, error) {
	return p.signer.PresignHTTP(ctx, credentials, r, payloadHash, service, region, p.clock.Now().Add(-ClockSkew), optFns...)
}

// addTaggingSubresource turns a presigned PutObject into PUT ?tagging.
func addTaggingSubresource(stack *middleware.Stack) error {
	return stack.Build.Add(middleware.BuildMiddlewareFunc("TaggingSubresource",
		func(ctx context.Context, in middleware.BuildInput, next middleware.BuildHandler) (middleware.BuildOutput, middleware.Metadata, error) {
			if req, ok := in.Request.(*smithyhttp.Request); ok {
				q := req.URL.Query()
				q.Set("tagging", "")
				req.URL.RawQuery = q.Encode()
			}
			return next.HandleBuild(ctx, in)
		}), middleware.After)
}
