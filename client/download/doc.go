// Package download streams HTTP response bodies to disk with optional
// checksum validation and progress reporting.
//
// A [Handler] receives the response part by part and writes it to a
// temporary file alongside the destination path, then atomically
// renames it on success:
//
//	h, err := download.NewHandler(destPath, logger,
//		download.WithChecksum(sha256.New(), expectedHex),
//	)
//	f, err := c.Execute(req, h)
//	err = f.Err()
//
// Most callers should use [github.com/adamwoolhether/asynchttp/client.Client.Download],
// which builds the Handler and checks the status code.
package download
