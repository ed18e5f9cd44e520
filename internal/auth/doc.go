// Package auth issues and verifies the credentials used by the backend.
//
// Access tokens are HS256 JWTs carrying the user id as subject and a unique token
// id. Logout revokes the token id until its expiry through a [Revoker], backed by
// Redis when configured and by process memory otherwise.
//
// Passwords and the short numeric verification codes mailed to users are stored
// as bcrypt hashes.
package auth
