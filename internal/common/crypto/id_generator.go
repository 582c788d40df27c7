package crypto

import (
	"strings"

	"github.com/google/uuid"

	commonerrors "github.com/AlibekovAA/storybooks/internal/common/errors"
)

type IDGenerator interface {
	NewID() (string, error)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NormalizeID parses a textual UUID and returns its canonical lowercase form.
func NormalizeID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", commonerrors.ErrEmptyUUID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", commonerrors.ErrInvalidPayload.WithCause(err).WithDetails(map[string]any{"id": raw})
	}
	return id.String(), nil
}
