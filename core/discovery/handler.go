package discovery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/messages"
	"github.com/tryfix/log"
)

// TypeLister lists the message types an agent understands
type TypeLister interface {
	Kinds() []string
	Types(kind string) []string
}

// roles of the protocols which are not symmetric
var roles = map[string][]string{
	`https://didcomm.org/connections/1.0`: {domain.RoleInviter, domain.RoleInvitee},
	`https://didcomm.org/didexchange/1.0`: {`requester`, `responder`},
	`https://didcomm.org/routing/1.0`:     {`sender`},
}

// Discoverer answers discover-features queries with the protocols whose
// messages are registered
type Discoverer struct {
	protocols []messages.Protocol
	log       log.Logger
}

func NewDiscoverer(types TypeLister, logger log.Logger) *Discoverer {
	pids := map[string]bool{}
	for _, kind := range types.Kinds() {
		for _, uri := range types.Types(kind) {
			// protocol id is the message type without the message name
			if i := strings.LastIndex(uri, `/`); i > 0 {
				pids[uri[:i]] = true
			}
		}
	}

	d := &Discoverer{log: logger}
	for pid := range pids {
		d.protocols = append(d.protocols, messages.Protocol{PId: pid, Roles: roles[pid]})
	}
	sort.Slice(d.protocols, func(i, j int) bool { return d.protocols[i].PId < d.protocols[j].PId })

	return d
}

func (d *Discoverer) Disclose(q messages.Query) messages.Disclose {
	protocols := d.match(q.Query)
	d.log.Trace(fmt.Sprintf(`disclosing %d protocols for query '%s' (%s)`, len(protocols), q.Query, q.Id))
	return messages.NewDisclose(q.Id, protocols)
}

// match supports a single wildcard at the end of the query
func (d *Discoverer) match(query string) []messages.Protocol {
	query = strings.TrimSpace(query)
	protocols := []messages.Protocol{}
	if query == `` {
		return protocols
	}

	prefix, wildcard := strings.CutSuffix(query, `*`)
	for _, p := range d.protocols {
		if p.PId == query || (wildcard && strings.HasPrefix(p.PId, prefix)) {
			protocols = append(protocols, p)
		}
	}

	return protocols
}
