package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ConversationRef is the minimal information needed to push a message into a
// specific conversation later, independent of the original turn.
type ConversationRef struct {
	ConversationID string `json:"conversationId"`
	ServiceURL     string `json:"serviceUrl"`
	ChannelID      string `json:"channelId"`
}

// TokenCodec serializes conversation references as signed tokens so they can
// cross the process boundary and survive a restart of the receiving side.
// Both bot processes share the signing secret.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec builds a codec for the shared secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

type replyClaims struct {
	ConversationID string `json:"conv"`
	ServiceURL     string `json:"svc"`
	ChannelID      string `json:"chn"`
	jwt.RegisteredClaims
}

// Issue signs a reply token for the given reference.
func (c *TokenCodec) Issue(ref ConversationRef) (string, error) {
	if ref.ConversationID == "" {
		return "", errors.New("conversation id required")
	}
	claims := replyClaims{
		ConversationID: ref.ConversationID,
		ServiceURL:     ref.ServiceURL,
		ChannelID:      ref.ChannelID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign reply token: %w", err)
	}
	return signed, nil
}

// Parse validates a reply token and recovers the conversation reference.
func (c *TokenCodec) Parse(raw string) (ConversationRef, error) {
	var claims replyClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ConversationRef{}, fmt.Errorf("parse reply token: %w", err)
	}
	if claims.ConversationID == "" {
		return ConversationRef{}, errors.New("reply token missing conversation id")
	}
	return ConversationRef{
		ConversationID: claims.ConversationID,
		ServiceURL:     claims.ServiceURL,
		ChannelID:      claims.ChannelID,
	}, nil
}
