package billing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finglow/finglow/internal/apperr"
	"github.com/finglow/finglow/internal/store"
	"github.com/finglow/finglow/internal/store/memory"
)

func paidEvent(eventID, billingID string) []byte {
	return []byte(fmt.Sprintf(`{"eventId":%q,"event":"billing.paid","data":{"id":%q,"amount":3990}}`, eventID, billingID))
}

func seedPendingTx(t *testing.T, st *memory.Store, billingID string, credits int) *store.PaymentTransaction {
	t.Helper()
	st.SeedProfile(store.Profile{ID: "user-1", Credits: 0})
	tx := &store.PaymentTransaction{
		UserID:            "user-1",
		PackageType:       "pack5",
		Credits:           credits,
		Status:            store.TxStatusPending,
		Provider:          ProviderName,
		ProviderSessionID: billingID,
	}
	require.NoError(t, st.Transactions().Create(context.Background(), tx))
	return tx
}

func TestParseEvent(t *testing.T) {
	t.Run("eventId preferred over id", func(t *testing.T) {
		ev, err := ParseEvent([]byte(`{"eventId":"evt_1","id":"other","event":"billing.paid","data":{"id":"bill_1"}}`))
		require.NoError(t, err)
		assert.Equal(t, "evt_1", ev.ID)
	})

	t.Run("falls back to id", func(t *testing.T) {
		ev, err := ParseEvent([]byte(`{"id":"evt_2","event":"billing.paid","data":{"id":"bill_1"}}`))
		require.NoError(t, err)
		assert.Equal(t, "evt_2", ev.ID)
	})

	invalid := []struct {
		name string
		body string
	}{
		{"not json", "paid!"},
		{"missing event id", `{"event":"billing.paid","data":{}}`},
		{"missing event type", `{"eventId":"evt_1","data":{}}`},
		{"missing data", `{"eventId":"evt_1","event":"billing.paid"}`},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvent([]byte(tt.body))
			require.Error(t, err)
		})
	}
}

func TestHandleEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("billing.paid grants credits once", func(t *testing.T) {
		st := memory.New()
		tx := seedPendingTx(t, st, "bill_1", 5)
		p := NewWebhookProcessor(st, "")

		res, err := p.HandleEvent(ctx, paidEvent("evt_1", "bill_1"), "")
		require.NoError(t, err)
		assert.False(t, res.AlreadyProcessed)

		credits, err := st.Profiles().GetCredits(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 5, credits)

		got, err := st.Transactions().GetBySessionID(ctx, "bill_1")
		require.NoError(t, err)
		assert.Equal(t, store.TxStatusCompleted, got.Status)
		assert.Equal(t, tx.ID, got.ID)
	})

	t.Run("redelivered event is skipped by the ledger", func(t *testing.T) {
		st := memory.New()
		seedPendingTx(t, st, "bill_1", 5)
		p := NewWebhookProcessor(st, "")

		_, err := p.HandleEvent(ctx, paidEvent("evt_1", "bill_1"), "")
		require.NoError(t, err)

		res, err := p.HandleEvent(ctx, paidEvent("evt_1", "bill_1"), "")
		require.NoError(t, err)
		assert.True(t, res.AlreadyProcessed)

		credits, err := st.Profiles().GetCredits(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 5, credits)
	})

	t.Run("same billing under a new event id still grants once", func(t *testing.T) {
		st := memory.New()
		seedPendingTx(t, st, "bill_1", 5)
		p := NewWebhookProcessor(st, "")

		_, err := p.HandleEvent(ctx, paidEvent("evt_1", "bill_1"), "")
		require.NoError(t, err)
		_, err = p.HandleEvent(ctx, paidEvent("evt_2", "bill_1"), "")
		require.NoError(t, err)

		credits, err := st.Profiles().GetCredits(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 5, credits)
	})

	t.Run("unknown billing is recorded but grants nothing", func(t *testing.T) {
		st := memory.New()
		st.SeedProfile(store.Profile{ID: "user-1", Credits: 0})
		p := NewWebhookProcessor(st, "")

		_, err := p.HandleEvent(ctx, paidEvent("evt_1", "bill_missing"), "")
		require.NoError(t, err)

		processed, err := st.WebhookEvents().IsProcessed(ctx, "evt_1")
		require.NoError(t, err)
		assert.True(t, processed)

		credits, err := st.Profiles().GetCredits(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 0, credits)
	})

	t.Run("other event types are recorded and ignored", func(t *testing.T) {
		st := memory.New()
		seedPendingTx(t, st, "bill_1", 5)
		p := NewWebhookProcessor(st, "")

		_, err := p.HandleEvent(ctx, []byte(`{"eventId":"evt_9","event":"billing.failed","data":{"id":"bill_1"}}`), "")
		require.NoError(t, err)

		credits, err := st.Profiles().GetCredits(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 0, credits)

		processed, err := st.WebhookEvents().IsProcessed(ctx, "evt_9")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("signature required when secret configured", func(t *testing.T) {
		st := memory.New()
		seedPendingTx(t, st, "bill_1", 5)
		p := NewWebhookProcessor(st, "whsec_abc")

		_, err := p.HandleEvent(ctx, paidEvent("evt_1", "bill_1"), "wrong")
		require.Error(t, err)
		assert.Equal(t, apperr.CategoryAuthentication, apperr.CategoryOf(err))

		credits, err := st.Profiles().GetCredits(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 0, credits)

		_, err = p.HandleEvent(ctx, paidEvent("evt_1", "bill_1"), "whsec_abc")
		require.NoError(t, err)
	})

	t.Run("invalid payload", func(t *testing.T) {
		p := NewWebhookProcessor(memory.New(), "")
		_, err := p.HandleEvent(ctx, []byte(`{"event":"billing.paid"}`), "")
		require.Error(t, err)
		assert.Equal(t, apperr.CategoryValidation, apperr.CategoryOf(err))
	})
}
