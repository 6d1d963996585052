// Package config provides configuration management for the lazy-mint service.
//
// Configuration is loaded from environment variables using the env package.
// Defaults run the service against a local IPFS node with in-memory status;
// MARKETPLACE_API_URL must be set unless MARKETPLACE_BACKEND=memory.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
