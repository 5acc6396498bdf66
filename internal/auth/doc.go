// Package auth is a mocked authentication service.
//
// There is no identity provider. Accounts registered with SignUp are kept in
// the local store with bcrypt password hashes, and a built-in demo account
// always signs in. The current session survives restarts through the store's
// session record.
package auth
