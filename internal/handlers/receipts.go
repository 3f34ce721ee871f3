package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Komal-TGT/Storage-service/internal/web"
	"github.com/Komal-TGT/Storage-service/middlewares"
	"github.com/Komal-TGT/Storage-service/pkg/access"
	"github.com/Komal-TGT/Storage-service/pkg/storage"
)

const (
	// multipartOverhead leaves room for form fields and boundaries on top
	// of the file limit.
	multipartOverhead = 64 << 10
	maxJSONBody       = 64 << 10
)

// Receipts serves the receipt routes.
type Receipts struct {
	store     *storage.Container
	issuer    *access.Issuer
	auth      web.Middleware
	maxUpload int64
	timeout   time.Duration
}

// Option configures Receipts.
type Option func(*Receipts)

// WithAPIKeyGate protects every route except the shared link route.
func WithAPIKeyGate(mw web.Middleware) Option {
	return func(h *Receipts) {
		h.auth = mw
	}
}

// WithMaxUpload bounds the uploaded file size.
func WithMaxUpload(n int64) Option {
	return func(h *Receipts) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

// WithRequestTimeout bounds the non-streaming routes.
func WithRequestTimeout(d time.Duration) Option {
	return func(h *Receipts) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewReceipts creates the receipt handler for the primary container.
func NewReceipts(store *storage.Container, issuer *access.Issuer, opts ...Option) *Receipts {
	h := &Receipts{
		store:     store,
		issuer:    issuer,
		maxUpload: storage.DefaultMaxObjectSize,
		timeout:   middlewares.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes implements web.Handler.
func (h *Receipts) Routes(r web.Router) {
	r.Route("/receipts", func(r web.Router) {
		// Permanent links carry their own signature.
		r.GET("/shared", h.shared)

		r.Group(func(r web.Router) {
			if h.auth != nil {
				r.Use(h.auth)
			}
			deadline := middlewares.Timeout(h.timeout)
			r.POST("/upload", h.upload, deadline)
			r.POST("/signed-url", h.signedURL, deadline)
			r.GET("/info", h.info, deadline)
			r.GET("/download", h.download)
		})
	})
}

// UploadResponse is returned by POST /receipts/upload.
type UploadResponse struct {
	OK       bool   `json:"ok"`
	BlobPath string `json:"blobPath"`
}

func (h *Receipts) upload(c web.Context) error {
	r := c.Request()
	r.Body = http.MaxBytesReader(c.Response(), r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request exceeds %d bytes", storage.ErrObjectTooLarge, h.maxUpload)
		}
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := c.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: No file uploaded", storage.ErrInvalidInput)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		return fmt.Errorf("%w: read file: %v", storage.ErrInvalidInput, err)
	}

	if err := storage.ValidateUpload(storage.Upload{
		Field:       "file",
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        int64(len(data)),
	}, storage.ReceiptRules(h.maxUpload)...); err != nil {
		return err
	}

	path, err := h.store.Put(c, data, storage.ReceiptKey{
		ClientID:  c.Form("clientId"),
		PosID:     c.Form("posId"),
		Date:      c.Form("dateISO"),
		ReceiptID: c.Form("receiptId"),
	})
	if err != nil {
		return err
	}

	c.LogInfo("receipt stored", slog.String("path", path), slog.Int("bytes", len(data)))
	return c.JSON(http.StatusOK, UploadResponse{OK: true, BlobPath: path})
}

// SignedURLRequest is the body of POST /receipts/signed-url.
type SignedURLRequest struct {
	BlobPath      string `json:"blobPath"`
	ExpirySeconds *int64 `json:"expirySeconds,omitempty"`
	Permissions   string `json:"permissions,omitempty"`
	Permanent     bool   `json:"permanent,omitempty"`
}

// SignedURLResponse carries a grant. ExpiresIn is null for permanent grants.
type SignedURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn *int64 `json:"expiresIn"`
}

func (h *Receipts) signedURL(c web.Context) error {
	var req SignedURLRequest
	dec := json.NewDecoder(io.LimitReader(c.Request().Body, maxJSONBody))
	if err := dec.Decode(&req); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", storage.ErrInvalidInput, err)
	}
	if err := storage.ValidatePath(req.BlobPath); err != nil {
		return err
	}

	var opts []access.IssueOption
	if req.Permissions != "" {
		opts = append(opts, access.WithPermissions(req.Permissions))
	}
	if req.ExpirySeconds != nil {
		if *req.ExpirySeconds <= 0 {
			return fmt.Errorf("%w: expirySeconds must be positive", access.ErrInvalidExpiry)
		}
		// Checked before the conversion, which would overflow.
		if *req.ExpirySeconds > int64(access.MaxExpiry/time.Second) {
			return fmt.Errorf("%w: expirySeconds exceeds %d", access.ErrInvalidExpiry, int64(access.MaxExpiry/time.Second))
		}
		opts = append(opts, access.WithExpiry(time.Duration(*req.ExpirySeconds)*time.Second))
	}
	if req.Permanent {
		opts = append(opts, access.Permanent())
	}

	grant, err := h.issuer.Issue(c, req.BlobPath, opts...)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SignedURLResponse{URL: grant.URL, ExpiresIn: grant.ExpiresIn()})
}

// InfoResponse is returned by GET /receipts/info.
type InfoResponse struct {
	URL        string             `json:"url"`
	Properties storage.Properties `json:"properties"`
	Metadata   storage.Metadata   `json:"metadata"`
	Tags       map[string]string  `json:"tags"`
}

func (h *Receipts) info(c web.Context) error {
	path := c.Query("blobPath")
	if err := storage.ValidatePath(path); err != nil {
		return err
	}

	props, err := h.store.Properties(c, path)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, InfoResponse{
		URL:        h.store.ObjectURL(path),
		Properties: *props,
		Metadata:   props.Metadata,
		Tags:       props.Tags,
	})
}

func (h *Receipts) download(c web.Context) error {
	path := c.Query("blobPath")
	if err := storage.ValidatePath(path); err != nil {
		return err
	}
	return h.stream(c, path, c.Query("attachment") == "true")
}

func (h *Receipts) shared(c web.Context) error {
	path := c.Query("blobPath")
	if err := storage.ValidatePath(path); err != nil {
		return err
	}
	if err := h.issuer.VerifyPermanent(c, path, c.Query("si"), c.Query("sig")); err != nil {
		return err
	}
	return h.stream(c, path, c.Query("attachment") == "true")
}

// stream copies the object to the client as it arrives. A client
// disconnect cancels the request context, which aborts the upstream read.
func (h *Receipts) stream(c web.Context, path string, attachment bool) error {
	obj, err := h.store.Open(c, path)
	if err != nil {
		return err
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = storage.MIMEPDF
	}
	c.SetHeader("Content-Type", contentType)
	c.SetHeader("Content-Disposition", storage.Disposition(path, attachment))
	if obj.ContentLength > 0 {
		c.SetHeader("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
	}
	if obj.ETag != "" {
		c.SetHeader("ETag", obj.ETag)
	}
	if !obj.LastModified.IsZero() {
		c.SetHeader("Last-Modified", obj.LastModified.UTC().Format(http.TimeFormat))
	}
	c.Response().WriteHeader(http.StatusOK)

	n, err := io.Copy(c.Response(), obj.Body)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.LogWarn("download interrupted", slog.String("path", path), slog.Int64("bytes", n), slog.Any("error", err))
	}
	return nil
}
