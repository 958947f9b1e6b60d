package rtctoken

import (
	"fmt"
	"math"

	rtctokenbuilder "github.com/AgoraIO-Community/go-tokenbuilder/rtctokenbuilder"
)

// Role is the privilege level granted by a channel token
type Role int

const (
	RolePublisher Role = iota + 1
	RoleSubscriber
)

// Builder signs Agora RTC tokens
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// BuildTokenWithUID signs a token for channelName/uid whose join privilege
// expires at expiresAt (unix seconds).
func (b *Builder) BuildTokenWithUID(appID, appCertificate, channelName string, uid uint32, role Role, expiresAt int64) (string, error) {
	if expiresAt <= 0 || expiresAt > math.MaxUint32 {
		return "", fmt.Errorf("token expiry %d out of range", expiresAt)
	}

	token, err := rtctokenbuilder.BuildTokenWithUID(appID, appCertificate, channelName, uid, sdkRole(role), uint32(expiresAt))
	if err != nil {
		return "", fmt.Errorf("build rtc token: %w", err)
	}
	return token, nil
}

func sdkRole(r Role) rtctokenbuilder.Role {
	if r == RoleSubscriber {
		return rtctokenbuilder.RoleSubscriber
	}
	return rtctokenbuilder.RolePublisher
}
