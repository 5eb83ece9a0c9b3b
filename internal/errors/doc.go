// Package errors provides coded, actionable errors for the livevalidate CLI
// and configuration loader.
//
// Errors are grouped into categories:
//   - config: the config file is missing, malformed or holds bad values
//   - pages: a page cannot be named, found or fetched
//   - check: offline validation input is unusable
//   - server: the HTTP server could not start
//
// Each code maps to a short message and a detail paragraph:
//
//	err := errors.New("E101").
//	    WithLocation("livevalidate.yaml", 4, 0).
//	    WithSuggestion("durations are strings such as \"10s\"")
//
//	fmt.Fprint(os.Stderr, err.Format())
//	// ERROR E101: Config file could not be parsed
//	//
//	//   livevalidate.yaml:4
//	//
//	//       2 │ server:
//	//       3 │   addr: ":8080"
//	//   →   4 │   read_timeout: 10
//	//       5 │
//	//
//	//   Hint: durations are strings such as "10s"
//
// Errors unwrap to their cause, so errors.Is keeps working through them.
package errors
