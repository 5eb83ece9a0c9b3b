package clientdist

import _ "embed"

// LiveValidateJS is the thin client served at "/_livevalidate/client.js".
//
//go:embed livevalidate.js
var LiveValidateJS []byte
