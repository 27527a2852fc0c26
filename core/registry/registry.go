package registry

import (
	"fmt"
	"sort"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/messages"
)

// Kind binds a set of type URIs to the decoder of one concrete message shape
type Kind struct {
	Name   string
	Types  messages.TypeSet
	Decode func(data []byte) (messages.Message, error)
}

// UnknownTypeError is returned for a well formed envelope whose type is not
// bound to any kind. The parsed header is kept for diagnostics.
type UnknownTypeError struct {
	Header messages.Header
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf(`%v '%s' (id: %s)`, domain.ErrUnknownMessageType, e.Header.Type, e.Header.Id)
}

func (e *UnknownTypeError) Is(target error) bool { return target == domain.ErrUnknownMessageType }

// ParseError wraps a failure of the kind specific decoder
type ParseError struct {
	Type string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf(`%v of type '%s' - %v`, domain.ErrFailedToParseMessage, e.Type, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == domain.ErrFailedToParseMessage }

type Builder struct {
	kinds    map[string]Kind
	bindings map[string]string // type uri -> kind name
}

func NewBuilder() *Builder {
	return &Builder{kinds: map[string]Kind{}, bindings: map[string]string{}}
}

// Register binds all type URIs of the kind. Registering the same kind again
// is a no-op while claiming a URI bound to a different kind fails.
func (b *Builder) Register(k Kind) error {
	if k.Name == `` || k.Decode == nil || k.Types.Canonical == `` {
		return fmt.Errorf(`kind must have a name, a canonical type and a decoder`)
	}

	for _, uri := range k.Types.All() {
		if bound, ok := b.bindings[uri]; ok && bound != k.Name {
			return fmt.Errorf(`%w - '%s' is bound to %s, cannot bind to %s`, domain.ErrDuplicateTypeBinding, uri, bound, k.Name)
		}
	}

	if prev, ok := b.kinds[k.Name]; ok && prev.Types.Canonical != k.Types.Canonical {
		return fmt.Errorf(`%w - kind %s is already registered with canonical type '%s'`, domain.ErrDuplicateTypeBinding, k.Name, prev.Types.Canonical)
	}

	for _, uri := range k.Types.All() {
		b.bindings[uri] = k.Name
	}

	// aliases from repeated registrations accumulate
	if prev, ok := b.kinds[k.Name]; ok {
		for _, a := range k.Types.Aliases {
			if !prev.Types.Accepts(a) {
				prev.Types.Aliases = append(prev.Types.Aliases, a)
			}
		}
		k.Types = prev.Types
	}
	b.kinds[k.Name] = k

	return nil
}

// Build returns a registry holding a snapshot of the registered kinds. Later
// calls to Register do not affect registries already built.
func (b *Builder) Build() *Registry {
	r := &Registry{kinds: make(map[string]Kind, len(b.kinds)), bindings: make(map[string]string, len(b.bindings))}
	for name, k := range b.kinds {
		k.Types.Aliases = append([]string(nil), k.Types.Aliases...)
		r.kinds[name] = k
	}

	for uri, name := range b.bindings {
		r.bindings[uri] = name
	}

	return r
}

// Registry is immutable and safe for concurrent use
type Registry struct {
	kinds    map[string]Kind
	bindings map[string]string
}

// Default returns a registry with all built-in message kinds
func Default() *Registry {
	b := NewBuilder()
	for _, k := range builtIn() {
		// built-in type sets are disjoint
		if err := b.Register(k); err != nil {
			panic(err)
		}
	}
	return b.Build()
}

func builtIn() []Kind {
	return []Kind{
		{Name: messages.KindBasicMessage, Types: messages.BasicMessageTypes, Decode: messages.DecodeBasicMessage},
		{Name: messages.KindInvitation, Types: messages.InvitationTypes, Decode: messages.DecodeInvitation},
		{Name: messages.KindExchangeRequest, Types: messages.ExchangeRequestTypes, Decode: messages.DecodeExchangeRequest},
		{Name: messages.KindExchangeResponse, Types: messages.ExchangeResponseTypes, Decode: messages.DecodeExchangeResponse},
		{Name: messages.KindSignedExchangeResponse, Types: messages.SignedExchangeResponseTypes, Decode: messages.DecodeSignedExchangeResponse},
		{Name: messages.KindAck, Types: messages.AckTypes, Decode: messages.DecodeAck},
		{Name: messages.KindForward, Types: messages.ForwardTypes, Decode: messages.DecodeForward},
		{Name: messages.KindQuery, Types: messages.QueryTypes, Decode: messages.DecodeQuery},
		{Name: messages.KindDisclose, Types: messages.DiscloseTypes, Decode: messages.DecodeDisclose},
	}
}

// ResolveAndDecode parses the common header, looks up the kind bound to its
// type and decodes the full payload as that kind.
func (r *Registry) ResolveAndDecode(raw []byte) (messages.Message, error) {
	h, err := messages.ParseHeader(raw)
	if err != nil {
		return nil, err
	}

	name, ok := r.bindings[h.Type]
	if !ok {
		return nil, &UnknownTypeError{Header: h}
	}

	msg, err := r.kinds[name].Decode(raw)
	if err != nil {
		return nil, &ParseError{Type: h.Type, Err: err}
	}

	return msg, nil
}

// Canonical returns the type URI used when encoding the kind
func (r *Registry) Canonical(kind string) (string, bool) {
	k, ok := r.kinds[kind]
	if !ok {
		return ``, false
	}
	return k.Types.Canonical, true
}

// Types returns every type URI accepted for the kind
func (r *Registry) Types(kind string) []string {
	k, ok := r.kinds[kind]
	if !ok {
		return nil
	}
	return k.Types.All()
}

func (r *Registry) Kinds() []string {
	var names []string
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
