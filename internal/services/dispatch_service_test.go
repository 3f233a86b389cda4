package services

import (
	"math/rand"
	"testing"

	"tarp_ops/internal/apperrors"
	"tarp_ops/internal/models"

	"github.com/stretchr/testify/require"
)

// seedProcessingOrder creates an order with one item of the given
// quantity and moves it to processing so it can be dispatched.
func seedProcessingOrder(t *testing.T, env *testEnv, itemName string, qty int) *models.Order {
	t.Helper()
	order, err := env.orders.CreateOrder(CreateOrderInput{
		CustomerName: "Sharma Traders",
		Items:        []ItemInput{pieceItem(itemName, qty)},
	})
	require.NoError(t, err)
	order, err = env.orders.UpdateStatus(order.ID, models.OrderProcessing)
	require.NoError(t, err)
	return order
}

func TestCreateDispatch_RejectsPendingAndCancelled(t *testing.T) {
	env := newTestEnv()
	order, err := env.orders.CreateOrder(CreateOrderInput{
		CustomerName: "Sharma Traders",
		Items:        []ItemInput{pieceItem("HDPE Tarpaulin 12x9", 10)},
	})
	require.NoError(t, err)

	_, err = env.dispatches.CreateDispatch(CreateDispatchInput{
		OrderID: order.ID,
		Lines:   []DispatchLineInput{{OrderItemID: order.Items[0].ID, Quantity: 5}},
	})
	require.True(t, apperrors.IsKind(err, apperrors.KindOrderNotDispatchable))

	_, err = env.orders.UpdateStatus(order.ID, models.OrderCancelled)
	require.NoError(t, err)
	_, err = env.dispatches.CreateDispatch(CreateDispatchInput{
		OrderID: order.ID,
		Lines:   []DispatchLineInput{{OrderItemID: order.Items[0].ID, Quantity: 5}},
	})
	require.True(t, apperrors.IsKind(err, apperrors.KindOrderNotDispatchable))
}

func TestCreateDispatch_OverDeliveryBudget(t *testing.T) {
	env := newTestEnv()
	order := seedProcessingOrder(t, env, "HDPE Tarpaulin 12x9", 10)
	itemID := order.Items[0].ID

	first, err := env.dispatches.CreateDispatch(CreateDispatchInput{
		OrderID: order.ID,
		Lines:   []DispatchLineInput{{OrderItemID: itemID, Quantity: 6}},
	})
	require.NoError(t, err)
	require.Equal(t, string(models.DispatchReadyForPickup), first.Status)
	require.Contains(t, first.DispatchID, "DSP-")

	// 6 of 10 are committed even though nothing is delivered yet, so a
	// 5-piece shipment no longer fits.
	_, err = env.dispatches.CreateDispatch(CreateDispatchInput{
		OrderID: order.ID,
		Lines:   []DispatchLineInput{{OrderItemID: itemID, Quantity: 5}},
	})
	require.True(t, apperrors.IsKind(err, apperrors.KindOverDelivery))

	_, err = env.dispatches.CreateDispatch(CreateDispatchInput{
		OrderID: order.ID,
		Lines:   []DispatchLineInput{{OrderItemID: itemID, Quantity: 4}},
	})
	require.NoError(t, err)

	// Budget exhausted: even a single piece is over-delivery now.
	_, err = env.dispatches.CreateDispatch(CreateDispatchInput{
		OrderID: order.ID,
		Lines:   []DispatchLineInput{{OrderItemID: itemID, Quantity: 1}},
	})
	require.True(t, apperrors.IsKind(err, apperrors.KindOverDelivery))
}

func TestCreateDispatch_LineValidation(t *testing.T) {
	env := newTestEnv()
	order := seedProcessingOrder(t, env, "HDPE Tarpaulin 12x9", 10)

	_, err := env.dispatches.CreateDispatch(CreateDispatchInput{OrderID: order.ID})
	require.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = env.dispatches.CreateDispatch(CreateDispatchInput{
		OrderID: order.ID,
		Lines:   []DispatchLineInput{{OrderItemID: order.Items[0].ID, Quantity: 0}},
	})
	require.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = env.dispatches.CreateDispatch(CreateDispatchInput{
		OrderID: order.ID,
		Lines:   []DispatchLineInput{{OrderItemID: 9999, Quantity: 1}},
	})
	require.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestAdvanceStatus_TransitionsAndIdempotence(t *testing.T) {
	env := newTestEnv()
	order := seedProcessingOrder(t, env, "HDPE Tarpaulin 12x9", 10)
	dispatch, err := env.dispatches.CreateDispatch(CreateDispatchInput{
		OrderID: order.ID,
		Lines:   []DispatchLineInput{{OrderItemID: order.Items[0].ID, Quantity: 4}},
	})
	require.NoError(t, err)

	// READY_FOR_PICKUP cannot go straight to DELIVERED.
	_, err = env.dispatches.AdvanceStatus(dispatch.ID, models.DispatchDelivered, "", "")
	require.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))

	dispatch, err = env.dispatches.AdvanceStatus(dispatch.ID, models.DispatchInTransit, "TRK-001", "")
	require.NoError(t, err)
	require.Equal(t, string(models.DispatchInTransit), dispatch.Status)
	require.Equal(t, "TRK-001", dispatch.TrackingID)

	// Re-applying the current status is a no-op.
	again, err := env.dispatches.AdvanceStatus(dispatch.ID, models.DispatchInTransit, "", "")
	require.NoError(t, err)
	require.Equal(t, string(models.DispatchInTransit), again.Status)

	// DELAYED is a recoverable detour, not a terminal state.
	dispatch, err = env.dispatches.AdvanceStatus(dispatch.ID, models.DispatchDelayed, "", "fog on NH-48")
	require.NoError(t, err)
	require.Equal(t, "fog on NH-48", dispatch.Remarks)
	dispatch, err = env.dispatches.AdvanceStatus(dispatch.ID, models.DispatchInTransit, "", "")
	require.NoError(t, err)

	dispatch, err = env.dispatches.AdvanceStatus(dispatch.ID, models.DispatchDelivered, "", "")
	require.NoError(t, err)

	// DELIVERED is terminal.
	_, err = env.dispatches.AdvanceStatus(dispatch.ID, models.DispatchInTransit, "", "")
	require.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))
}

// Delivering the full ordered quantity completes the order and draws
// down finished-product stock.
func TestDeliveryCompletesOrderAndDecrementsStock(t *testing.T) {
	env := newTestEnv()

	product, err := env.inventory.AddFinishedProduct(FinishedProductInput{
		Name:     "HDPE Tarpaulin 12x9",
		Quantity: 25,
		Unit:     "piece",
	})
	require.NoError(t, err)

	order := seedProcessingOrder(t, env, "HDPE Tarpaulin 12x9", 10)
	dispatch, err := env.dispatches.CreateDispatch(CreateDispatchInput{
		OrderID: order.ID,
		Lines:   []DispatchLineInput{{OrderItemID: order.Items[0].ID, Quantity: 10}},
	})
	require.NoError(t, err)

	_, err = env.dispatches.AdvanceStatus(dispatch.ID, models.DispatchInTransit, "", "")
	require.NoError(t, err)
	_, err = env.dispatches.AdvanceStatus(dispatch.ID, models.DispatchDelivered, "", "")
	require.NoError(t, err)

	completed, err := env.orders.GetOrder(order.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.OrderCompleted), completed.Status)

	stocked, err := env.inventory.GetItem(product.ID)
	require.NoError(t, err)
	require.Equal(t, 15, stocked.Stock)
}

func TestPartialDeliveryLeavesOrderOpen(t *testing.T) {
	env := newTestEnv()
	order := seedProcessingOrder(t, env, "HDPE Tarpaulin 12x9", 10)

	dispatch, err := env.dispatches.CreateDispatch(CreateDispatchInput{
		OrderID: order.ID,
		Lines:   []DispatchLineInput{{OrderItemID: order.Items[0].ID, Quantity: 4}},
	})
	require.NoError(t, err)
	_, err = env.dispatches.AdvanceStatus(dispatch.ID, models.DispatchInTransit, "", "")
	require.NoError(t, err)
	_, err = env.dispatches.AdvanceStatus(dispatch.ID, models.DispatchDelivered, "", "")
	require.NoError(t, err)

	// 4 of 10 delivered: the delivered shipment marks the order
	// dispatched but cannot complete it.
	open, err := env.orders.GetOrder(order.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.OrderDispatched), open.Status)

	second, err := env.dispatches.CreateDispatch(CreateDispatchInput{
		OrderID: order.ID,
		Lines:   []DispatchLineInput{{OrderItemID: order.Items[0].ID, Quantity: 6}},
	})
	require.NoError(t, err)
	_, err = env.dispatches.AdvanceStatus(second.ID, models.DispatchInTransit, "", "")
	require.NoError(t, err)
	_, err = env.dispatches.AdvanceStatus(second.ID, models.DispatchDelivered, "", "")
	require.NoError(t, err)

	completed, err := env.orders.GetOrder(order.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.OrderCompleted), completed.Status)
}

// Random shipment sizes must never push the committed total past the
// ordered quantity, whatever order the attempts arrive in.
func TestCreateDispatch_BudgetNeverExceeded(t *testing.T) {
	env := newTestEnv()
	const ordered = 50
	order := seedProcessingOrder(t, env, "HDPE Tarpaulin 12x9", ordered)
	itemID := order.Items[0].ID

	rng := rand.New(rand.NewSource(7))
	committed := 0
	for i := 0; i < 100; i++ {
		qty := rng.Intn(15) + 1
		_, err := env.dispatches.CreateDispatch(CreateDispatchInput{
			OrderID: order.ID,
			Lines:   []DispatchLineInput{{OrderItemID: itemID, Quantity: qty}},
		})
		if committed+qty > ordered {
			require.True(t, apperrors.IsKind(err, apperrors.KindOverDelivery))
		} else {
			require.NoError(t, err)
			committed += qty
		}
	}

	total, err := env.dispatchRepo.CommittedQuantity(itemID)
	require.NoError(t, err)
	require.Equal(t, committed, total)
	require.LessOrEqual(t, total, ordered)
}

func TestToday_CountsAndRecentList(t *testing.T) {
	env := newTestEnv()
	order := seedProcessingOrder(t, env, "HDPE Tarpaulin 12x9", 10)
	for i := 0; i < 3; i++ {
		_, err := env.dispatches.CreateDispatch(CreateDispatchInput{
			OrderID: order.ID,
			Lines:   []DispatchLineInput{{OrderItemID: order.Items[0].ID, Quantity: 2}},
		})
		require.NoError(t, err)
	}

	summary, err := env.dispatches.Today(2)
	require.NoError(t, err)
	require.Equal(t, int64(3), summary.TodaysDispatches)
	require.Len(t, summary.RecentDispatches, 2)
}

func TestToday_EmptyIsNotNil(t *testing.T) {
	env := newTestEnv()
	summary, err := env.dispatches.Today(5)
	require.NoError(t, err)
	require.Zero(t, summary.TodaysDispatches)
	require.NotNil(t, summary.RecentDispatches)
	require.Empty(t, summary.RecentDispatches)
}
