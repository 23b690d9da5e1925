// Package http contains the chi handlers for the sales dashboard API.
// Handlers decode and validate requests, delegate to the services layer and
// render either JSON envelopes or RFC 7807 problem documents.
package http
