// Package http provides an HTTP client configured for spreadsheet export requests.
//
// The Client in this package handles:
//   - User-Agent, Accept and Cache-Control headers
//   - Credential injection through a Session
//   - Timeout handling
//   - Full-body reads with an optional progress callback
//
// # Basic Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	resp, err := client.Get(ctx, exportURL, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.StatusCode, resp.ContentType, len(resp.Body))
//
// # Sessions
//
// Export endpoints only serve sheets the caller may view, so requests
// usually need the cookies of a signed-in browser. A Session carries them:
//
//	session := http.NewCookieSession("SID=...; HSID=...")
//
//	// or from a cookies.txt export
//	session, err := http.LoadCookieFile("cookies.txt", "docs.google.com")
//
//	client := http.NewClient(http.Options{Session: session})
//
// # Progress
//
// Get accepts an optional ProgressFunc. It is called as the body is read,
// with the byte count so far and the Content-Length (-1 when unknown).
package http
