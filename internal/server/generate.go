// Package server provides the HTTP API for the jwpedit editor.
//
// The architecture follows the pattern: CLI → App → Server → Router → Handlers
//
// Usage:
//
//	cfg := server.DefaultConfig()
//	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
//
//	srv, err := server.New(app, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	srv.Start() // Start background services
//	http.ListenAndServe(":8080", srv.Handler())
package server

//go:generate gomarkdoc --output README.md .
