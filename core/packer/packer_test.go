package packer

import (
	"errors"
	"testing"

	"github.com/YasiruR/didcomm-envelope/crypto"
	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/YasiruR/didcomm-envelope/internal/mocks"
	"github.com/YasiruR/didcomm-envelope/log"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var logger = log.NewLogger(false, ``)

func TestPacker_roundTrip(t *testing.T) {
	km := crypto.NewKeyManager(logger)
	p := New(km, logger)

	sender, err := km.GenerateKeyPair(`alice`)
	require.NoError(t, err)
	rec, err := km.GenerateKeyPair(`bob`)
	require.NoError(t, err)

	packed, err := p.Pack([]byte(`hi bob`), []string{rec.Verkey}, sender.Verkey)
	require.NoError(t, err)

	msg, err := p.Unpack(packed)
	require.NoError(t, err)
	require.Equal(t, []byte(`hi bob`), msg.Message)
	require.Equal(t, sender.Verkey, msg.SenderVerkey)

	packed, err = p.Pack([]byte(`hi anyone`), []string{rec.Verkey}, ``)
	require.NoError(t, err)

	msg, err = p.Unpack(packed)
	require.NoError(t, err)
	require.Equal(t, []byte(`hi anyone`), msg.Message)
	require.Empty(t, msg.SenderVerkey)
}

func TestPacker_multiRecipient(t *testing.T) {
	senderKM, recKM := crypto.NewKeyManager(logger), crypto.NewKeyManager(logger)
	other := crypto.NewKeyManager(logger)

	sender, err := senderKM.GenerateKeyPair(`alice`)
	require.NoError(t, err)
	rec1, err := recKM.GenerateKeyPair(`bob`)
	require.NoError(t, err)
	rec2, err := other.GenerateKeyPair(`carol`)
	require.NoError(t, err)

	packed, err := New(senderKM, logger).Pack([]byte(`group`), []string{rec1.Verkey, rec2.Verkey}, sender.Verkey)
	require.NoError(t, err)

	msg, err := New(recKM, logger).Unpack(packed)
	require.NoError(t, err)
	require.Equal(t, []byte(`group`), msg.Message)
	require.Equal(t, rec1.Verkey, msg.RecipientVerkey)
}

func TestPacker_invalidRecipients(t *testing.T) {
	km := &mocks.KeyManager{}
	p := New(km, logger)

	_, err := p.Pack([]byte(`x`), nil, ``)
	require.ErrorIs(t, err, domain.ErrInvalidRecipients)

	_, err = p.Pack([]byte(`x`), []string{`key`, `  `}, ``)
	require.ErrorIs(t, err, domain.ErrInvalidRecipients)

	km.AssertNotCalled(t, `PackMessage`, mock.Anything, mock.Anything, mock.Anything)
}

func TestPacker_keyManagementErrors(t *testing.T) {
	km := &mocks.KeyManager{}
	km.On(`PackMessage`, mock.Anything, []string{`rec`}, `sender`).Return(nil, errors.New(`hsm offline`))
	km.On(`UnpackMessage`, []byte(`packed`)).Return(models.UnpackedMessage{}, errors.New(`hsm offline`))
	p := New(km, logger)

	_, err := p.Pack([]byte(`x`), []string{`rec`}, `sender`)
	require.ErrorIs(t, err, domain.ErrKeyManagement)

	var kmErr *domain.KeyManagementError
	require.ErrorAs(t, err, &kmErr)
	require.Equal(t, `pack`, kmErr.Op)

	_, err = p.Unpack([]byte(`packed`))
	require.ErrorIs(t, err, domain.ErrDecryptionFailed)
	km.AssertExpectations(t)
}

func TestPacker_keepsTaxonomy(t *testing.T) {
	km := &mocks.KeyManager{}
	km.On(`PackMessage`, mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidRecipients)
	p := New(km, logger)

	_, err := p.Pack([]byte(`x`), []string{`rec`}, ``)
	require.ErrorIs(t, err, domain.ErrInvalidRecipients)
	require.NotErrorIs(t, err, domain.ErrKeyManagement)
}
