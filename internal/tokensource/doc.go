// Package tokensource obtains bearer token pairs from the job-board token endpoint.
//
// The backend's token endpoint deviates from a standard OAuth2 password grant in two ways
// that require custom handling:
//   - Requests are JSON-encoded {"email", "password"} (standard OAuth2 uses form-encoding)
//   - Responses carry "access"/"refresh" instead of "access_token"/"refresh_token"
//
// An Issuer drives golang.org/x/oauth2's password grant and rewrites both directions in its
// transport, so the rest of the client works with plain *oauth2.Token values:
//
//	issuer, err := tokensource.NewIssuer(baseURL)
//	tok, err := issuer.PasswordToken(ctx, email, password)
//
// # Custom Base Transport
//
// Configure a custom base transport for issuance requests (e.g., for proxies or tests):
//
//	issuer, err := tokensource.NewIssuer(
//		baseURL,
//		tokensource.WithTransport(customTransport),
//	)
package tokensource
