package authsdk

import "context"

// The calls below need a SUPERADMIN session.

func (s *Session) RegisterAdmin(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	tok, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.RegisterAdmin(ctx, tok, req)
}

func (s *Session) ListKeys(ctx context.Context) ([]SigningKeyInfo, error) {
	tok, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.ListKeys(ctx, tok)
}

func (s *Session) RotateKey(ctx context.Context, retireExisting bool) (*RotateKeyResponse, error) {
	tok, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.RotateKey(ctx, tok, retireExisting)
}

func (s *Session) RetireKey(ctx context.Context, kid string) error {
	tok, err := s.token(ctx)
	if err != nil {
		return err
	}
	return s.client.RetireKey(ctx, tok, kid)
}
