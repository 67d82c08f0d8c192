// Package client executes HTTP requests asynchronously under the policy
// of a [config.Config], streaming each response to a [Handler] as a
// sequence of [body.Part] values.
//
// # Building a Client
//
// Configure the policy with the config bean, then build a [Client]:
//
//	cfg := config.New().
//		SetRequestTimeout(10 * time.Second).
//		SetUserAgent("myapp/1.0").
//		AddRequestFilter(filter.NewRequestID(""))
//	c, err := client.New(cfg)
//	defer c.Close()
//
// # Streaming Responses
//
// [Client.Execute] schedules the exchange on the configured executor and
// returns a [Future]. The handler sees the status first and then every
// part of the body; exactly one part reports IsLast:
//
//	f, err := c.Execute(req, h)
//	err = f.Get(ctx)
//
// # Making Requests
//
// Construct a [URL] and [Request], then collect the whole response with
// [Client.Do]:
//
//	u := client.URL("https", "api.example.com", "/v1/resource")
//	req, err := client.Request(ctx, u, http.MethodGet)
//	resp, err := c.Do(req, http.StatusOK, client.WithDestination(&result))
//
// # Downloading Files
//
// Stream a response body directly to disk with optional checksum
// verification and progress reporting:
//
//	err = c.Download(req, http.StatusOK, "/tmp/file.bin",
//		download.WithChecksum(sha256.New(), expectedHex),
//		download.WithProgress(0),
//	)
//
// [Client.DownloadAsync] returns a [Future] instead of waiting.
package client
