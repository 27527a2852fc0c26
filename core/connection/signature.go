package connection

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/messages"
	"github.com/YasiruR/didcomm-envelope/domain/services"
)

// length of the big-endian epoch prefix of signed data
const timestampSize = 8

// signResponse signs the canonical response bytes prefixed with the signing
// time, as the connection~sig decorator requires
func signResponse(km services.KeyManager, res messages.ExchangeResponse, verkey string) (messages.SignedExchangeResponse, error) {
	data, err := messages.Encode(res)
	if err != nil {
		return messages.SignedExchangeResponse{}, err
	}

	sigData := make([]byte, timestampSize, timestampSize+len(data))
	binary.BigEndian.PutUint64(sigData, uint64(time.Now().Unix()))
	sigData = append(sigData, data...)

	sig, err := km.Sign(verkey, sigData)
	if err != nil {
		return messages.SignedExchangeResponse{}, keyManagementErr(`sign`, err)
	}

	return messages.NewSignedExchangeResponse(res, messages.ConnectionSignature{
		Type:       domain.SigTypEd25519,
		Signature:  base64.URLEncoding.EncodeToString(sig),
		SignedData: base64.URLEncoding.EncodeToString(sigData),
		Signer:     verkey,
	}), nil
}

// verifyResponse checks the signature against the embedded signer, which must
// be one of the keys the invitation was issued with, and returns the signed
// response
func verifyResponse(km services.KeyManager, signed messages.SignedExchangeResponse, trustedKeys []string) (messages.ExchangeResponse, error) {
	sig := signed.ConnectionSig
	if !contains(trustedKeys, sig.Signer) {
		return messages.ExchangeResponse{}, fmt.Errorf(`%w - signer %s is not a recipient key of the invitation`,
			domain.ErrSignatureVerificationFailed, sig.Signer)
	}

	sigBytes, err := decodeB64(sig.Signature)
	if err != nil {
		return messages.ExchangeResponse{}, fmt.Errorf(`%w - decoding signature failed - %v`, domain.ErrSignatureVerificationFailed, err)
	}

	sigData, err := decodeB64(sig.SignedData)
	if err != nil {
		return messages.ExchangeResponse{}, fmt.Errorf(`%w - decoding signed data failed - %v`, domain.ErrSignatureVerificationFailed, err)
	}

	ok, err := km.Verify(sigData, sigBytes, sig.Signer)
	if err != nil {
		return messages.ExchangeResponse{}, fmt.Errorf(`%w - %v`, domain.ErrSignatureVerificationFailed, err)
	}

	if !ok {
		return messages.ExchangeResponse{}, fmt.Errorf(`%w - signature of %s does not match`, domain.ErrSignatureVerificationFailed, sig.Signer)
	}

	if len(sigData) <= timestampSize {
		return messages.ExchangeResponse{}, fmt.Errorf(`%w - signed data is too short`, domain.ErrFailedToParseMessage)
	}

	// the signed bytes must themselves be an exchange response
	msg, err := messages.DecodeExchangeResponse(sigData[timestampSize:])
	if err != nil {
		return messages.ExchangeResponse{}, fmt.Errorf(`%w - decoding signed response failed - %v`, domain.ErrFailedToParseMessage, err)
	}

	return msg.(messages.ExchangeResponse), nil
}

// decodeB64 accepts both url and standard alphabets with or without padding
func decodeB64(s string) ([]byte, error) {
	s = strings.TrimRight(s, `=`)
	if strings.ContainsAny(s, `+/`) {
		return base64.RawStdEncoding.DecodeString(s)
	}
	return base64.RawURLEncoding.DecodeString(s)
}

func contains(list []string, val string) bool {
	for _, v := range list {
		if v == val {
			return true
		}
	}
	return false
}

func keyManagementErr(op string, err error) error {
	if errors.Is(err, domain.ErrKeyManagement) {
		return err
	}
	return &domain.KeyManagementError{Op: op, Err: err}
}
