package invitation

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/messages"
	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/xeipuuv/gojsonschema"
)

// an invitation must either be resolvable through a public DID or carry
// inline recipient keys and an endpoint
const schema = `{
  "type": "object",
  "required": ["@type", "@id", "label"],
  "properties": {
    "@type": {"type": "string"},
    "@id": {"type": "string", "minLength": 1},
    "label": {"type": "string"},
    "did": {"type": "string", "minLength": 1},
    "recipientKeys": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
    "routingKeys": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "serviceEndpoint": {"type": "string", "minLength": 1}
  },
  "anyOf": [
    {"required": ["recipientKeys", "serviceEndpoint"]},
    {"required": ["did"]}
  ]
}`

var schemaLoader = gojsonschema.NewStringLoader(schema)

type OOBService struct {
	baseURL string
}

func NewOOBService(baseURL string) *OOBService {
	return &OOBService{baseURL: baseURL}
}

func (o *OOBService) Create(label string, did models.DID, endpoint string, routingKeys []string) messages.Invitation {
	inv := messages.NewInvitation(label)
	inv.RecipientKeys = []string{did.Verkey}
	inv.ServiceEndpoint = endpoint
	inv.RoutingKeys = routingKeys
	return inv
}

// Encode appends the base64url encoded invitation to the base url as the c_i parameter
func (o *OOBService) Encode(inv messages.Invitation) (string, error) {
	byts, err := messages.Encode(inv)
	if err != nil {
		return ``, err
	}

	u, err := url.Parse(o.baseURL)
	if err != nil {
		return ``, fmt.Errorf(`parsing invitation base url failed - %v`, err)
	}

	q := u.Query()
	q.Set(domain.InvitationQueryKey, base64.URLEncoding.EncodeToString(byts))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Parse accepts either an invitation url or the bare encoded invitation
func (o *OOBService) Parse(rawUrl string) (messages.Invitation, error) {
	encInv := strings.TrimSpace(rawUrl)
	if u, err := url.Parse(encInv); err == nil && u.Query().Has(domain.InvitationQueryKey) {
		encInv = u.Query().Get(domain.InvitationQueryKey)
	}

	if encInv == `` {
		return messages.Invitation{}, fmt.Errorf(`%w - empty invitation`, domain.ErrInvalidInvitation)
	}

	// padding is optional
	byts, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encInv, `=`))
	if err != nil {
		return messages.Invitation{}, fmt.Errorf(`%w - base64 url decode failed - %v`, domain.ErrInvalidInvitation, err)
	}

	if err = validate(byts); err != nil {
		return messages.Invitation{}, err
	}

	msg, err := messages.DecodeInvitation(byts)
	if err != nil {
		return messages.Invitation{}, fmt.Errorf(`%w - %v`, domain.ErrInvalidInvitation, err)
	}

	return msg.(messages.Invitation), nil
}

func validate(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf(`%w - invitation is not valid json`, domain.ErrInvalidInvitation)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf(`%w - validating invitation failed - %v`, domain.ErrInvalidInvitation, err)
	}

	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return fmt.Errorf(`%w - %s`, domain.ErrInvalidInvitation, strings.Join(errs, `; `))
	}

	return nil
}
