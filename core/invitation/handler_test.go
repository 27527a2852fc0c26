package invitation

import (
	"encoding/base64"
	"net/url"
	"strings"
	"testing"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/messages"
	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/stretchr/testify/require"
)

var did = models.DID{Id: `Th7MpTaRZVRYnPiabds81Y`, Verkey: `FYmoFw55GeQH7SRFa37dkx1d2dZ3zUF8ckg7wmL7ofN4`}

func TestEncodeParse(t *testing.T) {
	oob := NewOOBService(`https://example.com/connect?lang=en`)
	inv := oob.Create(`alice`, did, `https://relay.example.com/mb-A`, []string{`route-1`})
	require.Equal(t, messages.ConnInvitationV1, inv.Type)

	rawUrl, err := oob.Encode(inv)
	require.NoError(t, err)

	u, err := url.Parse(rawUrl)
	require.NoError(t, err)
	require.Equal(t, `en`, u.Query().Get(`lang`))
	require.NotEmpty(t, u.Query().Get(domain.InvitationQueryKey))

	parsed, err := oob.Parse(rawUrl)
	require.NoError(t, err)
	require.Equal(t, inv, parsed)

	// bare blob without padding
	blob := strings.TrimRight(u.Query().Get(domain.InvitationQueryKey), `=`)
	parsed, err = oob.Parse(blob)
	require.NoError(t, err)
	require.Equal(t, inv, parsed)
}

func TestParse_aliasType(t *testing.T) {
	raw := `{"@type":"did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/connections/1.0/invitation","@id":"inv-1","label":"bob",` +
		`"recipientKeys":["FYmoFw55GeQH7SRFa37dkx1d2dZ3zUF8ckg7wmL7ofN4"],"serviceEndpoint":"https://bob.example.com"}`

	inv, err := NewOOBService(`https://example.com`).Parse(`https://example.com?c_i=` + base64.URLEncoding.EncodeToString([]byte(raw)))
	require.NoError(t, err)
	require.Equal(t, `bob`, inv.Label)
	require.Equal(t, `inv-1`, inv.Id)
}

func TestParse_invalid(t *testing.T) {
	oob := NewOOBService(`https://example.com`)
	encode := func(s string) string {
		return `https://example.com?c_i=` + base64.URLEncoding.EncodeToString([]byte(s))
	}

	for name, raw := range map[string]string{
		`empty`:        ``,
		`not base64`:   `https://example.com?c_i=%%%`,
		`not json`:     encode(`hello`),
		`no label`:     encode(`{"@type":"https://didcomm.org/connections/1.0/invitation","@id":"1","did":"x"}`),
		`no keys`:      encode(`{"@type":"https://didcomm.org/connections/1.0/invitation","@id":"1","label":"a","serviceEndpoint":"https://x"}`),
		`empty keys`:   encode(`{"@type":"https://didcomm.org/connections/1.0/invitation","@id":"1","label":"a","recipientKeys":[],"serviceEndpoint":"https://x"}`),
		`foreign type`: encode(`{"@type":"https://didcomm.org/basicmessage/1.0/message","@id":"1","label":"a","did":"x"}`),
	} {
		_, err := oob.Parse(raw)
		require.ErrorIs(t, err, domain.ErrInvalidInvitation, name)
	}
}
