package packer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/YasiruR/didcomm-envelope/domain/services"
	"github.com/tryfix/log"
)

// Packer decides the shape of an envelope (recipients, authcrypt or
// anoncrypt) and delegates the cryptography to the key manager.
type Packer struct {
	km  services.KeyManager
	log log.Logger
}

func New(km services.KeyManager, logger log.Logger) *Packer {
	return &Packer{km: km, log: logger}
}

// Pack authcrypts the plaintext when senderKey is set, otherwise anoncrypts it
func (p *Packer) Pack(plaintext []byte, recipientKeys []string, senderKey string) ([]byte, error) {
	if len(recipientKeys) == 0 {
		return nil, fmt.Errorf(`%w - at least one recipient key is required`, domain.ErrInvalidRecipients)
	}

	for _, k := range recipientKeys {
		if strings.TrimSpace(k) == `` {
			return nil, fmt.Errorf(`%w - empty recipient key`, domain.ErrInvalidRecipients)
		}
	}

	packed, err := p.km.PackMessage(plaintext, recipientKeys, senderKey)
	if err != nil {
		return nil, keyManagementErr(`pack`, err)
	}

	mode := `anoncrypt`
	if senderKey != `` {
		mode = `authcrypt`
	}
	p.log.Trace(fmt.Sprintf(`message packed (%s, recipients: %d)`, mode, len(recipientKeys)))

	return packed, nil
}

func (p *Packer) Unpack(packed []byte) (models.UnpackedMessage, error) {
	msg, err := p.km.UnpackMessage(packed)
	if err != nil {
		if errors.Is(err, domain.ErrDecryptionFailed) {
			return models.UnpackedMessage{}, err
		}
		return models.UnpackedMessage{}, fmt.Errorf(`%w - %v`, domain.ErrDecryptionFailed, keyManagementErr(`unpack`, err))
	}

	return msg, nil
}

// keyManagementErr keeps taxonomy errors reported by the collaborator intact
func keyManagementErr(op string, err error) error {
	var kmErr *domain.KeyManagementError
	if errors.As(err, &kmErr) || errors.Is(err, domain.ErrInvalidRecipients) || errors.Is(err, domain.ErrDecryptionFailed) {
		return err
	}
	return &domain.KeyManagementError{Op: op, Err: err}
}
