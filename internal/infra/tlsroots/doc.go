// Package tlsroots loads TLS material for the server and its backend
// clients.
//
// KeyPair serves the HTTPS certificate and reloads it when the files
// change on disk. ClientConfig builds the client-side configuration used
// to dial a TLS-enabled Redis, trusting the system roots plus an optional
// CA bundle.
package tlsroots
