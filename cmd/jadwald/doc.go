// Command jadwald serves the class schedule API.
//
// Usage:
//
//   jadwald -listen 127.0.0.1:8787 -shutdown-secs 5 -env-file .env
//
// Flags:
//   -listen          HTTP bind address (overrides LISTEN_ADDR)
//   -shutdown-secs   graceful shutdown timeout in seconds (default 5)
//   -env-file        dotenv file loaded before reading the environment (default .env)
//
// Behavior:
//
// Loads configuration from the environment, opens the configured blob store
// (github, bolt, redis or memory), starts the API server and blocks on
// SIGINT/SIGTERM for graceful shutdown.
package main
