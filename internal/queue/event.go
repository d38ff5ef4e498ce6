// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// OTPRequestedEvent is published whenever the identity service issues a
// one-time code. The SMS gateway consumes it; nothing in the request path
// blocks on delivery.
type OTPRequestedEvent struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code"`
	RequestedAt string `json:"requested_at"`
}
