package tcpserver

// TCPServerSession owns one accepted connection. The server runs Handle in
// its own goroutine and drops the session from its registry when Handle
// returns.
type TCPServerSession interface {
	// ID returns the identifier assigned by the server.
	ID() uint32

	// Handle serves the connection. It must close the connection before
	// returning.
	Handle()

	// Close closes the connection, unblocking Handle. It should be safe to
	// call multiple times and concurrently with Handle.
	Close() error

	// Send writes data to the connection.
	Send(data []byte) error
}
