package grpc

import (
	"context"

	"github.com/dmitrijs2005/workly/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// AuthClient calls AuthService over an established connection using the
// JSON codec.
type AuthClient struct {
	conn grpc.ClientConnInterface
}

func NewAuthClient(conn grpc.ClientConnInterface) *AuthClient {
	return &AuthClient{conn: conn}
}

// WithAccessToken attaches token to outgoing calls made with the returned context.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, token)
}

func invoke[Resp any](ctx context.Context, c *AuthClient, method string, in any) (*Resp, error) {
	out := new(Resp)
	if err := c.conn.Invoke(ctx, method, in, out, grpc.CallContentSubtype(CodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthClient) Register(ctx context.Context, in *RegisterRequest) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c, methodRegister, in)
}

func (c *AuthClient) Login(ctx context.Context, in *LoginRequest) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c, methodLogin, in)
}

func (c *AuthClient) Refresh(ctx context.Context, in *RefreshRequest) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c, methodRefresh, in)
}

func (c *AuthClient) Logout(ctx context.Context, in *LogoutRequest) (*Empty, error) {
	return invoke[Empty](ctx, c, methodLogout, in)
}

func (c *AuthClient) GetProfile(ctx context.Context) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c, methodGetProfile, &GetProfileRequest{})
}
