package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/marketplace-bot/internal/models"
)

func TestParseButtonID_RoundTrip(t *testing.T) {
	id := uuid.New()

	for _, action := range []string{ActionClaim, ActionComplete, ActionAbandon, ActionEditPrice, ActionEditConfirm} {
		gotAction, gotID, err := ParseButtonID(buttonID(action, id))
		require.NoError(t, err)
		assert.Equal(t, action, gotAction)
		assert.Equal(t, id, gotID)
	}
}

func TestParseButtonID_Invalid(t *testing.T) {
	_, _, err := ParseButtonID("nonsense")
	assert.Error(t, err)

	_, _, err = ParseButtonID("sale:claim:not-a-uuid")
	assert.Error(t, err)
}

func TestPublicPanel(t *testing.T) {
	listing := openListing("seller")

	open := PublicPanel(listing)
	require.Len(t, open.Buttons, 1)
	assert.Equal(t, buttonID(ActionClaim, listing.ID), open.Buttons[0].CustomID)
	assert.NotContains(t, open.Title, "ПРОДАНО")

	listing.Status = models.ListingStatusSold
	sold := PublicPanel(listing)
	// У проданного объявления отметка в заголовке и ни одной кнопки.
	assert.Contains(t, sold.Title, "ПРОДАНО")
	assert.Empty(t, sold.Buttons)
}

func TestManagementPanel(t *testing.T) {
	listing := negotiatingListing("seller", "buyer")

	panel := ManagementPanel(listing)
	require.Len(t, panel.Buttons, 3)
	ids := []string{panel.Buttons[0].CustomID, panel.Buttons[1].CustomID, panel.Buttons[2].CustomID}
	assert.Contains(t, ids, buttonID(ActionComplete, listing.ID))
	assert.Contains(t, ids, buttonID(ActionAbandon, listing.ID))
	assert.Contains(t, ids, buttonID(ActionEditPrice, listing.ID))

	listing.Status = models.ListingStatusSold
	assert.Empty(t, ManagementPanel(listing).Buttons)
}

func TestEditConfirmation_CategoryOnlyForFreeSale(t *testing.T) {
	free := openListing("seller")
	withCategory := EditConfirmation(free)
	require.Len(t, withCategory.Fields, 1)
	assert.Contains(t, withCategory.Fields[0].Value, "Категория")

	fixed := openListing("seller")
	fixed.Kind = models.KindPunipuniStone
	withoutCategory := EditConfirmation(fixed)
	require.Len(t, withoutCategory.Fields, 1)
	assert.NotContains(t, withoutCategory.Fields[0].Value, "Категория")
}
