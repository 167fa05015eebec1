package identity

import (
	"errors"
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
)

// TypeProfile is the only discriminant the engine accepts.
const TypeProfile = "identity:profile"

var ErrInvalidPayload = errors.New("invalid identity payload")

var payloadValidator = validator.New()

// Payload is a decoded scan of another player's identity code.
type Payload struct {
	Type          string `json:"type" validate:"required"`
	ProfileID     string `json:"profileId" validate:"required"`
	DisplayName   string `json:"display_name" validate:"max=100"`
	IsPlaceholder bool   `json:"is_placeholder"`
	// Exp is enforced by the scanner, not here.
	Exp int64 `json:"exp,omitempty"`
}

func Parse(raw []byte) (Payload, error) {
	if len(raw) == 0 {
		return Payload{}, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}

	var p Payload
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: decode: %v", ErrInvalidPayload, err)
	}
	if err := p.Validate(); err != nil {
		return Payload{}, err
	}
	return p, nil
}

func (p *Payload) Validate() error {
	p.Type = strings.TrimSpace(p.Type)
	p.ProfileID = strings.TrimSpace(p.ProfileID)
	p.DisplayName = strings.TrimSpace(p.DisplayName)

	if err := payloadValidator.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.Type != TypeProfile {
		return fmt.Errorf("%w: unexpected type %q", ErrInvalidPayload, p.Type)
	}
	return nil
}
