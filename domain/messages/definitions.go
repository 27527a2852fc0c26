package messages

const (
	sovPrefix = `did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/`
	orgPrefix = `https://didcomm.org/`
)

const (
	BasicMessageV1     = orgPrefix + `basicmessage/1.0/message`
	ConnInvitationV1   = orgPrefix + `connections/1.0/invitation`
	DIDExchangeInvV1   = orgPrefix + `didexchange/1.0/invitation`
	DIDExchangeReqV1   = orgPrefix + `didexchange/1.0/request`
	ConnRequestV1      = orgPrefix + `connections/1.0/request`
	DIDExchangeResV1   = orgPrefix + `didexchange/1.0/response`
	ConnResponseV1     = orgPrefix + `connections/1.0/response`
	DIDExchangeCompV1  = orgPrefix + `didexchange/1.0/complete`
	NotificationAckV1  = orgPrefix + `notification/1.0/ack`
	RoutingForwardV1   = orgPrefix + `routing/1.0/forward`
	DiscoverQueryV1    = orgPrefix + `discover-features/1.0/query`
	DiscoverDiscloseV1 = orgPrefix + `discover-features/1.0/disclose`
	sovBasicMessageV1  = sovPrefix + `basicmessage/1.0/message`
	sovInvitationV1    = sovPrefix + `connections/1.0/invitation`
	sovConnRequestV1   = sovPrefix + `connections/1.0/request`
	sovExchangeResV1   = sovPrefix + `didexchange/1.0/response`
	sovConnResponseV1  = sovPrefix + `connections/1.0/response`
	sovNotifAckV1      = sovPrefix + `notification/1.0/ack`
	sovRoutingForwardV = sovPrefix + `routing/1.0/forward`
	sovDiscoverQueryV1 = sovPrefix + `discover-features/1.0/query`
	sovDiscloseV1      = sovPrefix + `discover-features/1.0/disclose`
)

// kind names used by the registry
const (
	KindBasicMessage           = `basic-message`
	KindInvitation             = `invitation`
	KindExchangeRequest        = `exchange-request`
	KindExchangeResponse       = `exchange-response`
	KindSignedExchangeResponse = `signed-exchange-response`
	KindAck                    = `ack`
	KindForward                = `forward`
	KindQuery                  = `discover-query`
	KindDisclose               = `discover-disclose`
)

// TypeSet is the set of type URIs a message kind accepts. Canonical is the
// only one used when encoding.
type TypeSet struct {
	Canonical string
	Aliases   []string
}

func (t TypeSet) All() []string {
	return append([]string{t.Canonical}, t.Aliases...)
}

func (t TypeSet) Accepts(uri string) bool {
	if uri == t.Canonical {
		return true
	}

	for _, a := range t.Aliases {
		if a == uri {
			return true
		}
	}
	return false
}

var (
	BasicMessageTypes = TypeSet{
		Canonical: BasicMessageV1,
		Aliases:   []string{sovBasicMessageV1},
	}
	InvitationTypes = TypeSet{
		Canonical: ConnInvitationV1,
		Aliases:   []string{sovInvitationV1, DIDExchangeInvV1},
	}
	ExchangeRequestTypes = TypeSet{
		Canonical: DIDExchangeReqV1,
		Aliases:   []string{ConnRequestV1, sovConnRequestV1},
	}
	ExchangeResponseTypes = TypeSet{
		Canonical: DIDExchangeResV1,
		Aliases:   []string{sovExchangeResV1},
	}
	SignedExchangeResponseTypes = TypeSet{
		Canonical: ConnResponseV1,
		Aliases:   []string{sovConnResponseV1},
	}
	AckTypes = TypeSet{
		Canonical: DIDExchangeCompV1,
		Aliases:   []string{NotificationAckV1, sovNotifAckV1},
	}
	ForwardTypes = TypeSet{
		Canonical: RoutingForwardV1,
		Aliases:   []string{sovRoutingForwardV},
	}
	QueryTypes = TypeSet{
		Canonical: DiscoverQueryV1,
		Aliases:   []string{sovDiscoverQueryV1},
	}
	DiscloseTypes = TypeSet{
		Canonical: DiscoverDiscloseV1,
		Aliases:   []string{sovDiscloseV1},
	}
)
