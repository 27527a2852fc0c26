package messages

// Query reference: https://github.com/hyperledger/aries-rfcs/tree/main/features/0031-discover-features
type Query struct {
	Header
	Query   string `json:"query"`
	Comment string `json:"comment,omitempty"`
}

func NewQuery(query, comment string) Query {
	return Query{Header: newHeader(QueryTypes.Canonical), Query: query, Comment: comment}
}

func (Query) Kind() string { return KindQuery }
func (Query) isMessage()    {}

type Protocol struct {
	PId   string   `json:"pid"`
	Roles []string `json:"roles,omitempty"`
}

// Disclose answers a query and is threaded under it
type Disclose struct {
	Header
	Protocols []Protocol `json:"protocols"`
}

func NewDisclose(queryId string, protocols []Protocol) Disclose {
	h := newHeader(DiscloseTypes.Canonical)
	h.Thread = &Thread{ThId: queryId}
	return Disclose{Header: h, Protocols: protocols}
}

func (Disclose) Kind() string { return KindDisclose }
func (Disclose) isMessage()    {}

func DecodeQuery(data []byte) (Message, error) {
	return decodeAs[Query](data, QueryTypes)
}

func DecodeDisclose(data []byte) (Message, error) {
	return decodeAs[Disclose](data, DiscloseTypes)
}
