/*
Package authsdk is a Go client for the skygate authentication service.

# Client and Session

Client covers every endpoint. Calls that need an account take the access
token as an argument:

	c := authsdk.NewClient("https://auth.example.com")

	res, err := c.Login(ctx, "ann@example.com", "secret", recaptchaToken)
	if res.RequiresMFA {
		res, err = c.VerifyMFA(ctx, res.MFASessionToken, code)
	}
	profile, err := c.Me(ctx, res.Tokens.AccessToken)

Session holds the tokens of one login and rotates them through
/api/auth/refresh shortly before the access token expires:

	s, err := c.LoginSession(ctx, email, password, recaptchaToken, code)
	profile, err := s.Me(ctx)
	setup, err := s.SetupMFA(ctx)

# Errors

Every non-2xx answer is returned as *APIError carrying the status code and
the server's message:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		// wrong credentials, failed reCAPTCHA, locked account, ...
	}

IsStatus is a shorthand for that check.
*/
package authsdk
