package testutil

const (
	// TestJWTSecret signs tokens in handler and middleware tests
	TestJWTSecret = "test-jwt-secret-for-unit-tests"
	// TestJWTIssuer is the issuer those tokens carry
	TestJWTIssuer = "CakePlanner"

	// TestTOTPSecret is the RFC 6238 SHA1 seed in Base32
	TestTOTPSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

	TestUserName  = "Test User"
	TestUserEmail = "test@example.com"
)
