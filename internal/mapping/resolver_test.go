package mapping

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var out any
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()
	require.NoError(t, decoder.Decode(&out))
	return out
}

func TestLookupFollowsObjectsAndArrays(t *testing.T) {
	source := decode(t, `{"business":{"businessName":"Acme"},"lines":[{"amount":10},{"amount":20}]}`)

	v, ok := Lookup(source, "business.businessName")
	require.True(t, ok)
	require.Equal(t, "Acme", v)

	v, ok = Lookup(source, "lines.1.amount")
	require.True(t, ok)
	require.Equal(t, json.Number("20"), v)

	_, ok = Lookup(source, "lines.5.amount")
	require.False(t, ok)
	_, ok = Lookup(source, "business.missing")
	require.False(t, ok)
	_, ok = Lookup(source, "business.businessName.deeper")
	require.False(t, ok)
}

func TestResolveUsesMappingsAndFallsBackToPath(t *testing.T) {
	source := decode(t, `{"business":{"businessName":"Acme","accountExec":"Ana"},"saas":{"monthlyCases":500}}`)
	template := decode(t, `{
		"title": "Proposal for {{client}}",
		"owner": "{{ business.accountExec }}",
		"cases": "{{cases}}",
		"nested": [{"text": "{{cases}} cases for {{client}}"}],
		"untouched": 7
	}`)
	mappings := map[string]string{"client": "business.businessName", "cases": "saas.monthlyCases"}

	out, unresolved := Resolve(template, mappings, source)
	require.Empty(t, unresolved)

	result := out.(map[string]any)
	require.Equal(t, "Proposal for Acme", result["title"])
	require.Equal(t, "Ana", result["owner"])
	require.Equal(t, json.Number("500"), result["cases"])
	require.Equal(t, "500 cases for Acme", result["nested"].([]any)[0].(map[string]any)["text"])
	require.Equal(t, json.Number("7"), result["untouched"])
}

func TestResolveReportsUnresolvedOnce(t *testing.T) {
	source := decode(t, `{"a":{"b":"x"}}`)
	template := decode(t, `["{{missing}}", "pre {{missing}} post", "{{a.b}}"]`)

	out, unresolved := Resolve(template, nil, source)
	require.Equal(t, []string{"missing"}, unresolved)
	require.Equal(t, []any{"{{missing}}", "pre {{missing}} post", "x"}, out)
}

func TestResolveInterpolatesNonStringValues(t *testing.T) {
	source := decode(t, `{"flag":true,"obj":{"k":1},"none":null}`)
	out, unresolved := Resolve("f={{flag}} o={{obj}} n={{none}}", nil, source)
	require.Empty(t, unresolved)
	require.Equal(t, `f=true o={"k":1} n=`, out)
}

func TestGenericConvertsStructs(t *testing.T) {
	type inner struct {
		Name string `json:"name"`
	}
	generic, err := Generic(struct {
		Inner inner `json:"inner"`
	}{Inner: inner{Name: "Acme"}})
	require.NoError(t, err)

	v, ok := Lookup(generic, "inner.name")
	require.True(t, ok)
	require.Equal(t, "Acme", v)
}
