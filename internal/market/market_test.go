package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSnippets(t *testing.T) {
	text := `Amanora Park Town Hadapsar - 2 BHK and 3BHK flats for sale,
	prices starting from 1.25 Cr. Spacious 2BHK available.`

	info := ParseSnippets(text)
	assert.Equal(t, "1.25 Cr", info.TicketSize)
	assert.Equal(t, "2 BHK, 3 BHK", info.Configurations)
}

func TestParseSnippetsLakh(t *testing.T) {
	info := ParseSnippets("1 BHK from 58 lakh onwards")
	assert.Equal(t, "58 Lakh", info.TicketSize)
	assert.Equal(t, "1 BHK", info.Configurations)
}

func TestParseSnippetsNothingFound(t *testing.T) {
	info := ParseSnippets("society maintenance circular, no listings here")
	assert.Equal(t, "Check Online", info.TicketSize)
	assert.Equal(t, "N/A", info.Configurations)
}
