// Package http implements the subset of Hypertext Transfer Protocol (HTTP/1.1)
// this server speaks: decoding a request from a byte stream and encoding a
// response back into wire bytes.
//
// Persistent connections, chunked transfer coding and header folding are not
// supported. Every connection carries exactly one request and one response.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
