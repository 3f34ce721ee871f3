package middlewares

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// Compress gzips JSON and other compressible responses. PDFs are already
// compressed and are streamed with a known length, so they are excluded.
func Compress() (func(http.Handler) http.Handler, error) {
	wrap, err := gzhttp.NewWrapper(
		gzhttp.MinSize(gzhttp.DefaultMinSize),
		gzhttp.ExceptContentTypes([]string{"application/pdf"}),
	)
	if err != nil {
		return nil, err
	}
	return func(next http.Handler) http.Handler {
		return wrap(next)
	}, nil
}
