package domain

const (
	ServcDIDComm       = `did-communication`
	ServcIndyAgent     = `IndyAgent` // legacy service type used by indy based agents
	KeyTypEd25519      = `Ed25519VerificationKey2018`
	SigTypEd25519      = `https://didcomm.org/signature/1.0/ed25519Sha512_single`
	DIDContextV1       = `https://w3id.org/did/v1`
	EnvelopeMediaType  = `application/didcomm-envelope-enc`
	InvitationQueryKey = `c_i`
)

const (
	MetaMailbox  = `mailbox`
	MetaEndpoint = `endpoint`
	MetaMyVerkey = `my_verkey`
	MetaRole     = `role`
	MetaLastSent = `last_sent`
)

const (
	RoleInviter = `inviter`
	RoleInvitee = `invitee`
)
