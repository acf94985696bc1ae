// Package identity is the local sign-in provider: registered users, bearer
// session tokens with a fixed lifetime, and change notifications when a
// session starts or ends.
package identity
