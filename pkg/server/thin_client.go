package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	clientdist "github.com/sigrams/livevalidate/client/dist"
)

// ClientPath is where the thin client is served.
const ClientPath = "/_livevalidate/client.js"

// clientETag changes whenever the embedded script does.
var clientETag = func() string {
	sum := sha256.Sum256(clientdist.LiveValidateJS)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}()

// serveThinClient serves the embedded script. Clients revalidate on every
// load and get 304 while the ETag matches.
func (s *Server) serveThinClient(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("ETag", clientETag)
	h.Set("Content-Type", "application/javascript; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, "client.js", time.Time{}, bytes.NewReader(clientdist.LiveValidateJS))
}
