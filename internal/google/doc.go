// Package google provides OAuth2 authentication and token management for the
// Google Calendar API.
//
// Client credentials come from a client-secrets JSON file downloaded from the
// Google Cloud console. Tokens obtained through the authorization-code flow are
// persisted as JSON by a TokenStore, and refreshed tokens are written back so
// the next invocation does not need a new consent.
package google
