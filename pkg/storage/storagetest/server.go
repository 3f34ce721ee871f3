package storagetest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"time"
)

// amzDateLayout is the SigV4 X-Amz-Date format.
const amzDateLayout = "20060102T150405Z"

// Handler serves path-style presigned GET and HEAD requests from the fake.
// It checks the SigV4 query parameters are present and that the fake clock
// falls inside [X-Amz-Date, X-Amz-Date+X-Amz-Expires]. Signatures themselves
// are not recomputed.
func (f *Fake) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		q := r.URL.Query()
		if q.Get("X-Amz-Algorithm") != "AWS4-HMAC-SHA256" || q.Get("X-Amz-Signature") == "" || q.Get("X-Amz-Credential") == "" {
			http.Error(w, "missing signature", http.StatusForbidden)
			return
		}

		signedAt, err := time.Parse(amzDateLayout, q.Get("X-Amz-Date"))
		if err != nil {
			http.Error(w, "invalid X-Amz-Date", http.StatusForbidden)
			return
		}
		expires, err := parseExpires(q.Get("X-Amz-Expires"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}

		now := f.clock.Now()
		if now.Before(signedAt) {
			http.Error(w, "request is not yet valid", http.StatusForbidden)
			return
		}
		if now.After(signedAt.Add(expires)) {
			http.Error(w, "request has expired", http.StatusForbidden)
			return
		}

		bucket, key, err := bucketKey(r.URL.Path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		if ferr := f.enter("Download", bucket, key); ferr != nil {
			f.mu.Unlock()
			http.Error(w, ferr.Error(), http.StatusInternalServerError)
			return
		}
		obj, err := f.lookup(bucket, key)
		var snapshot Object
		if err == nil {
			snapshot = obj.clone()
		}
		f.mu.Unlock()

		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		h := w.Header()
		h.Set("Content-Type", snapshot.ContentType)
		h.Set("Content-Length", strconv.Itoa(len(snapshot.Data)))
		h.Set("ETag", snapshot.ETag)
		if snapshot.ContentDisposition != "" {
			h.Set("Content-Disposition", snapshot.ContentDisposition)
		}
		for k, v := range snapshot.Metadata {
			h.Set("X-Amz-Meta-"+k, v)
		}
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(snapshot.Data)
		}
	})
}

// Server starts an httptest server backed by Handler. Point the account
// endpoint at its URL with path-style addressing so presigned URLs resolve here.
func (f *Fake) Server() *httptest.Server {
	return httptest.NewServer(f.Handler())
}
