package models

// DID is a locally controlled identifier together with its verification key
// (base58 encoded ed25519 public key).
type DID struct {
	Id     string `json:"did"`
	Verkey string `json:"verkey"`
	Label  string `json:"label,omitempty"`
}

type DIDDoc struct {
	Context   []string    `json:"@context,omitempty"`
	Id        string      `json:"id"`
	PublicKey []PublicKey `json:"publicKey"`
	Service   []Service   `json:"service"`
}

type PublicKey struct {
	Id         string `json:"id"`
	Type       string `json:"type"`
	Controller string `json:"controller,omitempty"`
	Specifier  string `json:"publicKeyBase58"`
}

type Service struct {
	Id              string   `json:"id"`
	Type            string   `json:"type"`
	Priority        int      `json:"priority,omitempty"`
	RecipientKeys   []string `json:"recipientKeys"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint"`
}

// Destination is the resolved delivery information of a peer
type Destination struct {
	Endpoint      string
	RecipientKeys []string
	RoutingKeys   []string
}
