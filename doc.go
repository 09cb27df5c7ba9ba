// Package auth provides stateless bearer token authentication (HS256 JWT
// issuance and verification, signup and login orchestration, a per request
// authenticator, and a route authorization policy).
//
// Token lifecycle:
//   - TokenService issues tokens carrying sub, iat and exp, with optional
//     extension claims under "ext". Verify checks the signature before the
//     expiration, and ExtractSubject reads the subject of a correctly signed
//     token even when it has expired.
//
// Request pipeline:
//   - RequestAuthenticator resolves the bearer token subject through the
//     UserStore, then confirms IsValid before attaching an AuthContext. The
//     middleware/jwtware package adapts it to fiber and adds the Gate that
//     enforces a Policy.
//
// Storage:
//   - The repository package implements UserStore on bun, for sqlite and
//     postgres.
package auth
