package service

import (
	"log"
	"time"

	"github.com/quocanhngo/gotalk-relay/internal/config"
	"github.com/quocanhngo/gotalk-relay/internal/model"
	"github.com/quocanhngo/gotalk-relay/pkg/rtctoken"
)

// TokenTTL is how long an issued channel token stays valid
const TokenTTL = 3600 * time.Second

// ChannelSigner produces signed RTC channel tokens
type ChannelSigner interface {
	BuildTokenWithUID(appID, appCertificate, channelName string, uid uint32, role rtctoken.Role, expiresAt int64) (string, error)
}

// TokenService issues publisher tokens for RTC channels
type TokenService struct {
	creds  config.AgoraConfig
	signer ChannelSigner
	now    func() time.Time
}

func NewTokenService(creds config.AgoraConfig, signer ChannelSigner) *TokenService {
	return &TokenService{creds: creds, signer: signer, now: time.Now}
}

// IssueToken signs a fresh publisher token for channelName. uid 0 lets the RTC
// service assign an identity on join.
func (s *TokenService) IssueToken(channelName string, uid uint32) (*model.TokenResponse, error) {
	if channelName == "" {
		return nil, model.NewValidationError("channelName is required")
	}
	if !s.creds.HasCredentials() {
		return nil, model.NewConfigurationError("signing credentials not set")
	}

	expiresAt := s.now().Add(TokenTTL).Unix()
	token, err := s.signer.BuildTokenWithUID(s.creds.AppID, s.creds.AppCertificate, channelName, uid, rtctoken.RolePublisher, expiresAt)
	if err != nil {
		log.Printf("❌ Token signing failed for channel %s: %v", channelName, err)
		return nil, err
	}

	return &model.TokenResponse{
		Token:     token,
		UID:       uid,
		ExpiresAt: expiresAt,
	}, nil
}
