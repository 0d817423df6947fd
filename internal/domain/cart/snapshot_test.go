package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	s := New()
	s.Add(newTestItem("P1", 2, 5, "10.00"))
	s.Add(newTestItem("P2", 1, 3, "4.50"))

	data, err := EncodeSnapshot(s)
	require.NoError(t, err)

	restored, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, s.Items(), restored.Items())
}

func TestSnapshot_EmptyDataIsEmptyCart(t *testing.T) {
	s, err := DecodeSnapshot(nil)
	require.NoError(t, err)
	assert.Empty(t, s.Items())
}

func TestSnapshot_LegacyMigrationKeepsValidLines(t *testing.T) {
	// Version 0 snapshot: no version field, line IDs missing, one line over
	// its stock snapshot and one with a zero quantity.
	legacy := []byte(`{"items":[
		{"productId":"P1","name":"Widget","price":"10.00","quantity":2,"sku":"S1","stock":5,"image":""},
		{"productId":"P2","name":"Broken","price":"3.00","quantity":9,"sku":"S2","stock":5,"image":""},
		{"productId":"P3","name":"Gone","price":"2.00","quantity":0,"sku":"S3","stock":5,"image":""}
	]}`)

	s, err := DecodeSnapshot(legacy)
	require.NoError(t, err)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "P1", items[0].ProductID)
	assert.NotEmpty(t, items[0].ID)
}

func TestSnapshot_FutureVersionResetsToEmpty(t *testing.T) {
	future := []byte(`{"version":99,"items":[{"productId":"P1","quantity":1,"stock":5}]}`)

	s, err := DecodeSnapshot(future)
	require.NoError(t, err)
	assert.Empty(t, s.Items())
}

func TestSnapshot_MalformedDataErrors(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{"version":`))
	require.Error(t, err)
}
