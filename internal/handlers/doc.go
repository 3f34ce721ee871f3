// Package handlers implements the receipt gateway routes on top of
// internal/web: upload, signed-url, download, info and the public shared
// link route for permanent grants.
package handlers
