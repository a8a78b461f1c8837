package handler

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tablepos/api/internal/database"
)

// OrderDetailStore defines the reads that assemble an order with its lines,
// table, creator and invoice chain. Satisfied by *database.Queries.
type OrderDetailStore interface {
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListDeletedOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.DeletedOrderItem, error)
	ListInvoicesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Invoice, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
}

// receiptResponse is the latest invoice together with everything needed to
// print it.
type receiptResponse struct {
	Invoice invoiceResponse     `json:"invoice"`
	Order   orderDetailResponse `json:"order"`
}

// loadOrderDetail reads the lines, removed lines, invoice chain, table and
// creator of order. Invoices are returned newest version first; Invoice is
// the one flagged latest.
func loadOrderDetail(ctx context.Context, store OrderDetailStore, order database.Order) (orderDetailResponse, error) {
	resp := orderDetailResponse{Order: toOrderResponse(order)}

	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return resp, fmt.Errorf("list order items: %w", err)
	}
	resp.Items = toOrderItemResponses(items)

	deleted, err := store.ListDeletedOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return resp, fmt.Errorf("list deleted order items: %w", err)
	}
	resp.DeletedItems = toDeletedItemResponses(deleted)

	invoices, err := store.ListInvoicesByOrder(ctx, order.ID)
	if err != nil {
		return resp, fmt.Errorf("list invoices: %w", err)
	}
	slices.SortFunc(invoices, func(a, b database.Invoice) int { return int(b.Version - a.Version) })
	resp.Invoices = make([]invoiceResponse, len(invoices))
	for i, inv := range invoices {
		resp.Invoices[i] = toInvoiceResponse(inv)
		if inv.IsLatestVersion {
			latest := resp.Invoices[i]
			resp.Invoice = &latest
		}
	}

	if order.TableID.Valid {
		table, err := store.GetTable(ctx, uuid.UUID(order.TableID.Bytes))
		switch {
		case err == nil:
			tr := toTableResponse(table)
			resp.Table = &tr
		case !errors.Is(err, pgx.ErrNoRows):
			return resp, fmt.Errorf("get table: %w", err)
		}
	}

	user, err := store.GetUserByID(ctx, order.UserID)
	switch {
	case err == nil:
		resp.User = &userResponse{
			ID:       user.ID,
			FullName: user.FullName,
			Email:    user.Email,
			Role:     string(user.Role),
		}
	case !errors.Is(err, pgx.ErrNoRows):
		return resp, fmt.Errorf("get user: %w", err)
	}

	return resp, nil
}
