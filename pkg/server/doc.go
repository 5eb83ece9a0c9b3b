// Package server serves validated pages over HTTP and runs one live
// validation session per websocket connection.
//
// # Routes
//
//	GET  /healthz                    liveness and session count
//	GET  /metrics                    Prometheus metrics, when configured
//	GET  /_livevalidate/client.js    the embedded thin client
//	GET  /pages                      page names known to the store
//	GET  /pages/{name}               the page with HIDs and the client script
//	POST /pages/{name}/validate      form-encoded validation without JavaScript
//	GET  /ws/{name}                  websocket session for a page
//
// # Sessions
//
// A session parses its own copy of the page, so HIDs agree with the HTML
// served by /pages/{name}. Events are processed one at a time on the
// session's read loop:
//
//   - Input and Change store the value and re-validate the control.
//   - Blur re-validates the control.
//   - Submit stores the submitted values and runs the submission guard.
//     When the form is valid a Submit patch tells the client to perform the
//     native submit.
//
// Every event is answered with one patches frame carrying the event's
// sequence number, or with an error frame.
//
// # Usage
//
//	srv := server.New(pages.NewDirStore("./pages"), server.DefaultServerConfig())
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
