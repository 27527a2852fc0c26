package mocks

import (
	"context"

	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/stretchr/testify/mock"
)

type KeyManager struct {
	mock.Mock
}

func (m *KeyManager) GenerateKeyPair(label string) (models.DID, error) {
	args := m.Called(label)
	return args.Get(0).(models.DID), args.Error(1)
}

func (m *KeyManager) PackMessage(plaintext []byte, recipientVerkeys []string, senderVerkey string) ([]byte, error) {
	args := m.Called(plaintext, recipientVerkeys, senderVerkey)
	packed, _ := args.Get(0).([]byte)
	return packed, args.Error(1)
}

func (m *KeyManager) UnpackMessage(packed []byte) (models.UnpackedMessage, error) {
	args := m.Called(packed)
	return args.Get(0).(models.UnpackedMessage), args.Error(1)
}

func (m *KeyManager) Sign(verkey string, payload []byte) ([]byte, error) {
	args := m.Called(verkey, payload)
	sig, _ := args.Get(0).([]byte)
	return sig, args.Error(1)
}

func (m *KeyManager) Verify(payload, signature []byte, signerVerkey string) (bool, error) {
	args := m.Called(payload, signature, signerVerkey)
	return args.Bool(0), args.Error(1)
}

type Packer struct {
	mock.Mock
}

func (m *Packer) Pack(plaintext []byte, recipientKeys []string, senderKey string) ([]byte, error) {
	args := m.Called(plaintext, recipientKeys, senderKey)
	packed, _ := args.Get(0).([]byte)
	return packed, args.Error(1)
}

func (m *Packer) Unpack(packed []byte) (models.UnpackedMessage, error) {
	args := m.Called(packed)
	return args.Get(0).(models.UnpackedMessage), args.Error(1)
}

type Transporter struct {
	mock.Mock
}

func (m *Transporter) Transmit(ctx context.Context, data []byte, endpoint string) error {
	return m.Called(ctx, data, endpoint).Error(0)
}
