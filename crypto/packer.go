package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	encodingType = `JWM/1.0`
	encAlg       = `chacha20poly1305_ietf`
	algAuthcrypt = `Authcrypt`
	algAnoncrypt = `Anoncrypt`
)

// envelope reference: https://github.com/hyperledger/aries-rfcs/tree/main/features/0019-encryption-envelope
type envelope struct {
	Protected  string `json:"protected"`
	Iv         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
	Tag        string `json:"tag"`
}

type payload struct {
	Enc        string      `json:"enc"`
	Typ        string      `json:"typ"`
	Alg        string      `json:"alg"`
	Recipients []recipient `json:"recipients"`
}

type recipient struct {
	EncryptedKey string `json:"encrypted_key"`
	Header       header `json:"header"`
}

type header struct {
	Kid    string `json:"kid"`
	Iv     string `json:"iv,omitempty"`
	Sender string `json:"sender,omitempty"`
}

var b64 = base64.URLEncoding

// PackMessage encrypts the message with a fresh content encryption key which
// is then wrapped for each recipient. With a sender verkey the cek is boxed
// with the sender's key and the sender verkey is sealed for the recipient.
func (k *KeyManager) PackMessage(plaintext []byte, recipientVerkeys []string, senderVerkey string) ([]byte, error) {
	if len(recipientVerkeys) == 0 {
		return nil, fmt.Errorf(`%w - no recipient keys provided`, domain.ErrInvalidRecipients)
	}

	var sender *keys
	alg := algAnoncrypt
	if senderVerkey != `` {
		kp, err := k.keyPair(senderVerkey)
		if err != nil {
			return nil, &domain.KeyManagementError{Op: `pack`, Err: err}
		}
		sender, alg = kp, algAuthcrypt
	}

	cek := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(cek); err != nil {
		return nil, &domain.KeyManagementError{Op: `pack`, Err: err}
	}

	recs := make([]recipient, 0, len(recipientVerkeys))
	for _, rk := range recipientVerkeys {
		rec, err := k.wrapKey(cek, rk, sender)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	data, err := json.Marshal(payload{Enc: encAlg, Typ: encodingType, Alg: alg, Recipients: recs})
	if err != nil {
		return nil, fmt.Errorf(`marshalling protected header failed - %v`, err)
	}
	protectedVal := b64.EncodeToString(data)

	iv := make([]byte, chacha20poly1305.NonceSize)
	if _, err = rand.Read(iv); err != nil {
		return nil, &domain.KeyManagementError{Op: `pack`, Err: err}
	}

	cipher, mac, err := k.enc.EncryptDetached(plaintext, []byte(protectedVal), iv, cek)
	if err != nil {
		return nil, &domain.KeyManagementError{Op: `pack`, Err: err}
	}

	return json.Marshal(envelope{
		Protected:  protectedVal,
		Iv:         b64.EncodeToString(iv),
		Ciphertext: b64.EncodeToString(cipher),
		Tag:        b64.EncodeToString(mac),
	})
}

func (k *KeyManager) wrapKey(cek []byte, recVerkey string, sender *keys) (recipient, error) {
	recCurvePub, err := publicKeyToCurve(base58.Decode(recVerkey))
	if err != nil {
		return recipient{}, fmt.Errorf(`%w - recipient key %s - %v`, domain.ErrInvalidRecipients, recVerkey, err)
	}

	if sender == nil {
		encCek, err := k.enc.SealBox(cek, recCurvePub)
		if err != nil {
			return recipient{}, &domain.KeyManagementError{Op: `pack`, Err: err}
		}
		return recipient{EncryptedKey: b64.EncodeToString(encCek), Header: header{Kid: recVerkey}}, nil
	}

	nonce := make([]byte, boxNonceSize)
	if _, err = rand.Read(nonce); err != nil {
		return recipient{}, &domain.KeyManagementError{Op: `pack`, Err: err}
	}

	encCek, err := k.enc.Box(cek, nonce, recCurvePub, sender.curvePrv)
	if err != nil {
		return recipient{}, &domain.KeyManagementError{Op: `pack`, Err: err}
	}

	encSender, err := k.enc.SealBox([]byte(sender.verkey), recCurvePub)
	if err != nil {
		return recipient{}, &domain.KeyManagementError{Op: `pack`, Err: err}
	}

	return recipient{
		EncryptedKey: b64.EncodeToString(encCek),
		Header: header{
			Kid:    recVerkey,
			Iv:     b64.EncodeToString(nonce),
			Sender: b64.EncodeToString(encSender),
		},
	}, nil
}

// UnpackMessage decrypts with the first recipient slot this wallet holds a key for
func (k *KeyManager) UnpackMessage(packed []byte) (models.UnpackedMessage, error) {
	var env envelope
	if err := json.Unmarshal(packed, &env); err != nil {
		return models.UnpackedMessage{}, decryptErr(`unmarshalling envelope failed - %v`, err)
	}

	data, err := b64.DecodeString(env.Protected)
	if err != nil {
		return models.UnpackedMessage{}, decryptErr(`decoding protected header failed - %v`, err)
	}

	var pl payload
	if err = json.Unmarshal(data, &pl); err != nil {
		return models.UnpackedMessage{}, decryptErr(`unmarshalling protected header failed - %v`, err)
	}

	if pl.Typ != encodingType {
		return models.UnpackedMessage{}, decryptErr(`envelope type %s is not supported`, pl.Typ)
	}

	rec, kp, err := k.findRecipient(pl.Recipients)
	if err != nil {
		return models.UnpackedMessage{}, err
	}

	var cek []byte
	var senderVerkey string
	switch pl.Alg {
	case algAuthcrypt:
		cek, senderVerkey, err = k.openAuthKey(rec, kp)
	case algAnoncrypt:
		cek, err = k.openAnonKey(rec, kp)
	default:
		return models.UnpackedMessage{}, decryptErr(`envelope algorithm %s is not supported`, pl.Alg)
	}
	if err != nil {
		return models.UnpackedMessage{}, err
	}

	iv, err := b64.DecodeString(env.Iv)
	if err != nil {
		return models.UnpackedMessage{}, decryptErr(`decoding iv failed - %v`, err)
	}

	cipher, err := b64.DecodeString(env.Ciphertext)
	if err != nil {
		return models.UnpackedMessage{}, decryptErr(`decoding ciphertext failed - %v`, err)
	}

	mac, err := b64.DecodeString(env.Tag)
	if err != nil {
		return models.UnpackedMessage{}, decryptErr(`decoding tag failed - %v`, err)
	}

	msg, err := k.enc.DecryptDetached(cipher, mac, []byte(env.Protected), iv, cek)
	if err != nil {
		return models.UnpackedMessage{}, decryptErr(`decrypting ciphertext failed - %v`, err)
	}

	return models.UnpackedMessage{Message: msg, SenderVerkey: senderVerkey, RecipientVerkey: kp.verkey}, nil
}

func (k *KeyManager) findRecipient(recs []recipient) (recipient, *keys, error) {
	for _, r := range recs {
		kp, err := k.keyPair(r.Header.Kid)
		if err == nil {
			return r, kp, nil
		}
	}
	return recipient{}, nil, decryptErr(`no local key matches any of the %d recipients`, len(recs))
}

func (k *KeyManager) openAuthKey(rec recipient, kp *keys) (cek []byte, senderVerkey string, err error) {
	encSender, err := b64.DecodeString(rec.Header.Sender)
	if err != nil {
		return nil, ``, decryptErr(`decoding sender failed - %v`, err)
	}

	sender, err := k.enc.SealBoxOpen(encSender, kp.curvePub, kp.curvePrv)
	if err != nil {
		return nil, ``, decryptErr(`decrypting sender verkey failed - %v`, err)
	}

	senderCurvePub, err := publicKeyToCurve(base58.Decode(string(sender)))
	if err != nil {
		return nil, ``, decryptErr(`invalid sender verkey - %v`, err)
	}

	nonce, err := b64.DecodeString(rec.Header.Iv)
	if err != nil {
		return nil, ``, decryptErr(`decoding cek nonce failed - %v`, err)
	}

	encCek, err := b64.DecodeString(rec.EncryptedKey)
	if err != nil {
		return nil, ``, decryptErr(`decoding encrypted cek failed - %v`, err)
	}

	cek, err = k.enc.BoxOpen(encCek, nonce, senderCurvePub, kp.curvePrv)
	if err != nil {
		return nil, ``, decryptErr(`decrypting cek failed - %v`, err)
	}

	return cek, string(sender), nil
}

func (k *KeyManager) openAnonKey(rec recipient, kp *keys) ([]byte, error) {
	encCek, err := b64.DecodeString(rec.EncryptedKey)
	if err != nil {
		return nil, decryptErr(`decoding encrypted cek failed - %v`, err)
	}

	cek, err := k.enc.SealBoxOpen(encCek, kp.curvePub, kp.curvePrv)
	if err != nil {
		return nil, decryptErr(`decrypting cek failed - %v`, err)
	}
	return cek, nil
}

func decryptErr(format string, args ...interface{}) error {
	return fmt.Errorf(`%w - %s`, domain.ErrDecryptionFailed, fmt.Sprintf(format, args...))
}
