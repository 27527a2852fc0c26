package did

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/models"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// CreateDIDDoc describes the DID with its verkey and a single agent service
// reachable at the given endpoint
func (h *Handler) CreateDIDDoc(did models.DID, endpoint string) models.DIDDoc {
	keyId := did.Id + `#1`
	return models.DIDDoc{
		Context: []string{domain.DIDContextV1},
		Id:      did.Id,
		PublicKey: []models.PublicKey{{
			Id:         keyId,
			Type:       domain.KeyTypEd25519,
			Controller: did.Id,
			Specifier:  did.Verkey,
		}},
		Service: []models.Service{{
			Id:              did.Id + `;indy`,
			Type:            domain.ServcIndyAgent,
			RecipientKeys:   []string{did.Verkey},
			ServiceEndpoint: endpoint,
		}},
	}
}

// ResolveDestination picks the first http(s) service of the doc. Services
// without recipient keys fall back to the ed25519 keys of the doc.
func (h *Handler) ResolveDestination(doc models.DIDDoc) (models.Destination, error) {
	keys := map[string]string{} // key id -> verkey
	var verkeys []string
	for _, pk := range doc.PublicKey {
		if !strings.EqualFold(pk.Type, domain.KeyTypEd25519) || pk.Specifier == `` {
			continue
		}
		keys[pk.Id] = pk.Specifier
		verkeys = append(verkeys, pk.Specifier)
	}

	if len(verkeys) == 0 {
		return models.Destination{}, fmt.Errorf(`%w - did doc %s has no %s key`, domain.ErrNoRecipientKey, doc.Id, domain.KeyTypEd25519)
	}

	for _, s := range doc.Service {
		if !httpEndpoint(s.ServiceEndpoint) {
			continue
		}

		recKeys := dereference(s.RecipientKeys, keys)
		if len(recKeys) == 0 {
			recKeys = verkeys
		}

		return models.Destination{
			Endpoint:      s.ServiceEndpoint,
			RecipientKeys: recKeys,
			RoutingKeys:   dereference(s.RoutingKeys, keys),
		}, nil
	}

	return models.Destination{}, fmt.Errorf(`%w - did doc %s has no http service`, domain.ErrNoSupportedEndpoint, doc.Id)
}

// dereference resolves key references (eg: did#1) to the verkeys they point to
func dereference(refs []string, keys map[string]string) []string {
	var verkeys []string
	for _, r := range refs {
		if vk, ok := keys[r]; ok {
			verkeys = append(verkeys, vk)
			continue
		}
		verkeys = append(verkeys, r)
	}
	return verkeys
}

func httpEndpoint(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(u.Scheme)
	return (scheme == `http` || scheme == `https`) && u.Host != ``
}
