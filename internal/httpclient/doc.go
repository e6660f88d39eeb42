// Package httpclient provides the HTTP plumbing shared by model providers.
//
// # HTTP Client
//
// [NewClient] creates a client with connection reuse and an optional overall
// timeout (0 disables it, the default for long-running probes):
//
//	client := httpclient.NewClient(0)
//
// # Requests
//
// [NewJSONRequest] encodes a payload, sets JSON headers and lets an
// [AuthProvider] inject credentials:
//
//	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, url, payload, provider)
//
// Failed responses are summarised with [ReadSnippet], which bounds how much of
// the body is retained for logs and errors.
package httpclient
