// Package password implements password hashing and verification.
//
// # Output formats
//
// Argon2id hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Salt and hash are unpadded standard base64; padded input is also accepted.
// Undecodable argon2id hashes report [ErrMalformedHash].
//
// Bcrypt hashes use the usual modular crypt form ($2a$, $2b$, $2y$).
//
// [Multi] verifies either format by prefix and hashes new passwords with the
// preferred scheme. NeedsUpgrade returns true for hashes in a non-preferred
// scheme or with weaker parameters, so callers can re-hash after a
// successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. It does not store
// passwords, import other goGuard packages, or log anything.
package password
