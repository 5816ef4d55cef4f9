// Package sessionkit manages the authenticated session of a client talking
// to the MiraiWorks recruitment backend: token acquisition, persistence,
// refresh-with-fallback recovery, and role-based route guarding.
//
// The package never mints or verifies credentials itself. Both tokens are
// opaque strings owned by the remote backend; the only cryptographic
// touchpoint is an unverified peek at the access token's expiry claim,
// which is advisory.
//
// # Architecture boundaries
//
// sessionkit is the public surface. It exposes [Manager], [Builder],
// [Config], [Session], and the [Backend] collaborator interface. Token
// persistence lives in sessionkit/tokenstore, the HTTP implementation of
// Backend in sessionkit/restapi, and route guarding in sessionkit/guard.
//
// # What this package must NOT do
//
//   - Speak HTTP directly; all network traffic goes through Backend.
//   - Retry failed backend calls. The single retry-like behavior in the
//     system is the profile-fetch fallback to refresh during Initialize.
//   - Mutate the Session outside the reducer. Every state change is one of
//     the fixed actions applied under the Manager's lock.
//
// # Concurrency contract
//
// Manager methods are safe for concurrent use. Completions of overlapping
// operations are ordered by an in-flight generation counter: a logout or a
// later operation invalidates the completions of anything still in flight,
// so stale network results can never resurrect a dead session.
package sessionkit
