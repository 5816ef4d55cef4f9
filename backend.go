package sessionkit

import "context"

// Backend is the interface the Manager uses to reach the MiraiWorks auth
// API. It is the external-collaborator boundary: implementations own
// transport, serialization, and status-to-error mapping (see
// sessionkit/restapi for the HTTP implementation).
//
// Contract notes:
//
//   - No implementation retries. A single failed call surfaces
//     immediately to the Manager.
//   - Failures should be (or wrap) an [*APIError] so the Manager can
//     surface the backend's message; bare errors are treated as network
//     failures with a generic fallback message.
//   - Logout is best-effort; the Manager ignores its result.
type Backend interface {
	Login(ctx context.Context, creds Credentials) (*LoginResult, error)
	Register(ctx context.Context, req RegisterRequest) (*LoginResult, error)
	Me(ctx context.Context, accessToken string) (*User, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)
	VerifyTwoFactor(ctx context.Context, challengeToken, code string) (*LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, password string) error
	Logout(ctx context.Context, accessToken string) error
}
