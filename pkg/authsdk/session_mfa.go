package authsdk

import "context"

// SetupMFA, ValidateMFA, DisableMFA, MFAStatus and RegenerateBackupCodes
// mirror the Client methods with the session's access token.

func (s *Session) SetupMFA(ctx context.Context) (*MFASetupResponse, error) {
	tok, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.SetupMFA(ctx, tok)
}

func (s *Session) ValidateMFA(ctx context.Context, code string) (bool, error) {
	tok, err := s.token(ctx)
	if err != nil {
		return false, err
	}
	res, err := s.client.ValidateMFA(ctx, tok, code)
	if err != nil {
		return false, err
	}
	return res.Valid, nil
}

func (s *Session) DisableMFA(ctx context.Context, confirmationCode string) error {
	tok, err := s.token(ctx)
	if err != nil {
		return err
	}
	return s.client.DisableMFA(ctx, tok, confirmationCode)
}

func (s *Session) MFAStatus(ctx context.Context) (bool, error) {
	tok, err := s.token(ctx)
	if err != nil {
		return false, err
	}
	res, err := s.client.MFAStatus(ctx, tok)
	if err != nil {
		return false, err
	}
	return res.MFAEnabled, nil
}

func (s *Session) RegenerateBackupCodes(ctx context.Context, confirmationCode string) ([]string, error) {
	tok, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.RegenerateBackupCodes(ctx, tok, confirmationCode)
}
