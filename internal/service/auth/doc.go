// Package auth verifies the credentials presented to the API.
//
// Members authenticate with HS256 access tokens issued by the identity
// service; this package only validates them and never issues tokens.
// Operators authenticate admin calls with a shared key checked against a
// bcrypt hash.
package auth
