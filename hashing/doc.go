// Package hashing provides one-way credential hashing with constant-time
// comparison. Bcrypt is the default; Argon2id is available for deployments
// that prefer a memory-hard function. Both satisfy the goiam Hasher
// capability.
package hashing
