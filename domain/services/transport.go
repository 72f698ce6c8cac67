package services

/* client-server interfaces */

type Server interface {
	// Start blocks until the server is stopped or fails
	Start() error
	Stop() error
}
