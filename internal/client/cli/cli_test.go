package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpClient "github.com/iudanet/cartsync/internal/client/api"
	"github.com/iudanet/cartsync/internal/client/cart"
	"github.com/iudanet/cartsync/internal/client/events"
	"github.com/iudanet/cartsync/internal/client/iocli"
	"github.com/iudanet/cartsync/internal/client/recovery"
	syncengine "github.com/iudanet/cartsync/internal/client/sync"
	"github.com/iudanet/cartsync/internal/config"
	"github.com/iudanet/cartsync/internal/models"
)

// testOutput собирает все, что CLI напечатал
type testOutput struct {
	buf    bytes.Buffer
	inputs []string
}

func (o *testOutput) String() string { return o.buf.String() }

func newMockIO(out *testOutput) *iocli.IOMock {
	return &iocli.IOMock{
		PrintlnFunc: func(a ...any) {
			fmt.Fprintln(&out.buf, a...)
		},
		PrintfFunc: func(format string, a ...any) {
			fmt.Fprintf(&out.buf, format, a...)
		},
		WriteFunc: func(p []byte) (int, error) {
			return out.buf.Write(p)
		},
		ReadInputFunc: func(prompt string) (string, error) {
			out.buf.WriteString(prompt)
			if len(out.inputs) == 0 {
				return "", errors.New("no input")
			}
			in := out.inputs[0]
			out.inputs = out.inputs[1:]
			return in, nil
		},
		IsTerminalFunc: func() bool { return false },
	}
}

func twoLineCart() models.CartSnapshot {
	snap := models.CartSnapshot{
		Currency: "USD",
		Items: []models.CartItem{
			{ID: "42", Key: "42:srv1", Title: "Coffee beans", Quantity: 2, Price: 1999},
			{ID: "7", Key: "tmp-op-2", Quantity: 1, Price: 250, Properties: map[string]string{"size": "M"}},
		},
	}
	snap.Recalculate()
	return snap
}

// newTestCli создает CLI поверх мока сервиса с пустым журналом
func newTestCli(svc *ServiceMock) (*Cli, *testOutput) {
	out := &testOutput{}
	io := newMockIO(out)
	if svc.PendingCountFunc == nil {
		svc.PendingCountFunc = func(ctx context.Context) (int, error) { return 0, nil }
	}
	if svc.OnlineFunc == nil {
		svc.OnlineFunc = func() bool { return true }
	}
	if svc.LastErrorFunc == nil {
		svc.LastErrorFunc = func() *cart.ErrorInfo { return nil }
	}
	c := New(io, nil)
	c.svc = svc
	return c, out
}

func TestCli_runAdd_PrintsCart(t *testing.T) {
	svc := &ServiceMock{
		AddItemFunc: func(ctx context.Context, item models.CartItem) (models.CartSnapshot, error) {
			return twoLineCart(), nil
		},
	}
	c, out := newTestCli(svc)

	err := c.runAdd(context.Background(), models.CartItem{ID: "42", Quantity: 2, Price: 1999})
	require.NoError(t, err)

	require.Len(t, svc.AddItemCalls(), 1)
	assert.Equal(t, "42", svc.AddItemCalls()[0].Item.ID)

	text := out.String()
	assert.Contains(t, text, "=== Cart ===")
	assert.Contains(t, text, "42:srv1")
	assert.Contains(t, text, "39.98")
	assert.Contains(t, text, "Coffee beans")
	assert.Contains(t, text, "(pending)")
	assert.Contains(t, text, "size: M")
	assert.Contains(t, text, "Items: 3")
	assert.Contains(t, text, "Total: 42.48 USD")
	assert.NotContains(t, text, "waiting")
}

func TestCli_runAdd_OfflineHint(t *testing.T) {
	svc := &ServiceMock{
		AddItemFunc: func(ctx context.Context, item models.CartItem) (models.CartSnapshot, error) {
			return twoLineCart(), nil
		},
		PendingCountFunc: func(ctx context.Context) (int, error) { return 2, nil },
		OnlineFunc:       func() bool { return false },
	}
	c, out := newTestCli(svc)

	require.NoError(t, c.runAdd(context.Background(), models.CartItem{ID: "7", Quantity: 1}))
	assert.Contains(t, out.String(), "Offline: 2 change(s) saved locally")
}

func TestCli_runShow_Empty(t *testing.T) {
	svc := &ServiceMock{
		GetCartFunc: func(ctx context.Context) (models.CartSnapshot, error) {
			return models.CartSnapshot{}, nil
		},
	}
	c, out := newTestCli(svc)

	require.NoError(t, c.runShow(context.Background()))
	assert.Contains(t, out.String(), "Cart is empty")
	assert.NotContains(t, out.String(), "Total:")
}

func TestCli_runUpdateAndRemove(t *testing.T) {
	svc := &ServiceMock{
		UpdateItemQuantityFunc: func(ctx context.Context, key string, quantity int) (models.CartSnapshot, error) {
			return models.CartSnapshot{}, nil
		},
		RemoveItemFunc: func(ctx context.Context, key string) (models.CartSnapshot, error) {
			return models.CartSnapshot{}, nil
		},
	}
	c, _ := newTestCli(svc)
	ctx := context.Background()

	require.NoError(t, c.runUpdate(ctx, "42:srv1", 5))
	require.NoError(t, c.runRemove(ctx, "7"))

	require.Len(t, svc.UpdateItemQuantityCalls(), 1)
	assert.Equal(t, "42:srv1", svc.UpdateItemQuantityCalls()[0].Key)
	assert.Equal(t, 5, svc.UpdateItemQuantityCalls()[0].Quantity)
	require.Len(t, svc.RemoveItemCalls(), 1)
	assert.Equal(t, "7", svc.RemoveItemCalls()[0].Key)
}

func TestCli_runClear(t *testing.T) {
	tests := []struct {
		name      string
		inputs    []string
		confirmed bool
		wantClear bool
	}{
		{name: "confirmed by flag", confirmed: true, wantClear: true},
		{name: "answered yes", inputs: []string{"Y"}, wantClear: true},
		{name: "answered no", inputs: []string{"n"}, wantClear: false},
		{name: "empty answer", inputs: []string{""}, wantClear: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &ServiceMock{
				ClearCartFunc: func(ctx context.Context) (models.CartSnapshot, error) {
					return models.CartSnapshot{}, nil
				},
			}
			c, out := newTestCli(svc)
			out.inputs = tt.inputs

			require.NoError(t, c.runClear(context.Background(), tt.confirmed))
			if tt.wantClear {
				assert.Len(t, svc.ClearCartCalls(), 1)
				assert.Contains(t, out.String(), "Cart is empty")
			} else {
				assert.Empty(t, svc.ClearCartCalls())
				assert.Contains(t, out.String(), "Cancelled.")
			}
		})
	}
}

func TestCli_runSync(t *testing.T) {
	t.Run("skipped", func(t *testing.T) {
		svc := &ServiceMock{
			SyncNowFunc: func(ctx context.Context) (*syncengine.Result, error) {
				return &syncengine.Result{Skipped: true, Reason: syncengine.ReasonNothingPending}, nil
			},
		}
		c, out := newTestCli(svc)

		require.NoError(t, c.runSync(context.Background()))
		assert.Contains(t, out.String(), "Nothing to do: nothing to sync")
	})

	t.Run("completed", func(t *testing.T) {
		svc := &ServiceMock{
			SyncNowFunc: func(ctx context.Context) (*syncengine.Result, error) {
				return &syncengine.Result{State: syncengine.StateCompleted, Completed: 3}, nil
			},
		}
		c, out := newTestCli(svc)

		require.NoError(t, c.runSync(context.Background()))
		assert.Contains(t, out.String(), "State:     COMPLETED")
		assert.Contains(t, out.String(), "Completed: 3")
		assert.Contains(t, out.String(), "in sync with the server")
	})

	t.Run("partial", func(t *testing.T) {
		svc := &ServiceMock{
			SyncNowFunc: func(ctx context.Context) (*syncengine.Result, error) {
				return &syncengine.Result{
					State:     syncengine.StatePartial,
					Completed: 1,
					Failed:    1,
					FailedOp:  "op-2",
					Err:       errors.New("conflict"),
				}, nil
			},
		}
		c, out := newTestCli(svc)

		require.NoError(t, c.runSync(context.Background()))
		assert.Contains(t, out.String(), "State:     PARTIAL")
		assert.Contains(t, out.String(), "Stopped at operation op-2")
		assert.NotContains(t, out.String(), "in sync with the server")
	})
}

func TestCli_runStatus(t *testing.T) {
	svc := &ServiceMock{
		PendingCountFunc: func(ctx context.Context) (int, error) { return 3, nil },
		OnlineFunc:       func() bool { return false },
		SyncStateFunc:    func() syncengine.State { return syncengine.StatePartial },
		LastErrorFunc: func() *cart.ErrorInfo {
			return &cart.ErrorInfo{
				Message:   "cart was modified elsewhere",
				Operation: "sync",
				Category:  recovery.CategoryUnknown,
				Severity:  recovery.SeverityMedium,
			}
		},
	}
	c, out := newTestCli(svc)

	require.NoError(t, c.runStatus(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Connection: offline")
	assert.Contains(t, text, "Sync state: PARTIAL")
	assert.Contains(t, text, "Pending:    3 operation(s)")
	assert.Contains(t, text, "Last error: cart was modified elsewhere (sync, unknown, medium)")
	assert.Contains(t, text, "cartsync sync")
}

func TestCli_runStatus_PendingCountError(t *testing.T) {
	svc := &ServiceMock{
		PendingCountFunc: func(ctx context.Context) (int, error) { return 0, errors.New("storage closed") },
	}
	c, _ := newTestCli(svc)

	err := c.runStatus(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage closed")
}

func TestCli_runErrors(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	svc := &ServiceMock{
		ErrorsFunc: func(ctx context.Context) []recovery.Entry {
			return []recovery.Entry{
				{At: at, Category: recovery.CategoryNetwork, Severity: recovery.SeverityMedium, Operation: "add item", Message: "the store is temporarily unavailable", Recovered: true, Strategy: "network-retry"},
				{At: at, Category: recovery.CategoryValidation, Severity: recovery.SeverityLow, Operation: "update item", Message: "invalid quantity"},
			}
		},
	}
	c, out := newTestCli(svc)

	require.NoError(t, c.runErrors(context.Background()))
	text := out.String()
	assert.Contains(t, text, "2026-03-01 10:30:00")
	assert.Contains(t, text, "add item: the store is temporarily unavailable (recovered by network-retry)")
	assert.Contains(t, text, "update item: invalid quantity")
}

func TestCli_runErrors_Empty(t *testing.T) {
	svc := &ServiceMock{
		ErrorsFunc: func(ctx context.Context) []recovery.Entry { return nil },
	}
	c, out := newTestCli(svc)

	require.NoError(t, c.runErrors(context.Background()))
	assert.Contains(t, out.String(), "No errors recorded")
}

func TestCli_runErrorStats(t *testing.T) {
	svc := &ServiceMock{
		ErrorStatsFunc: func(ctx context.Context) map[recovery.Category]recovery.CategoryStats {
			return map[recovery.Category]recovery.CategoryStats{
				recovery.CategorySecurity: {Total: 1},
				recovery.CategoryNetwork:  {Total: 4, Recovered: 3, Rate: 0.75},
				recovery.CategoryUnknown:  {},
			}
		},
	}
	c, out := newTestCli(svc)

	require.NoError(t, c.runErrorStats(context.Background()))

	text := out.String()
	assert.Contains(t, text, "total 4, recovered 3 (75%)")
	assert.Contains(t, text, "total 1, recovered 0 (0%)")
	assert.NotContains(t, text, "unknown")
	assert.Less(t, bytes.Index([]byte(text), []byte("network")), bytes.Index([]byte(text), []byte("security")))
}

func TestCli_runClearErrors(t *testing.T) {
	svc := &ServiceMock{
		ClearErrorsFunc: func(ctx context.Context) error { return nil },
	}
	c, out := newTestCli(svc)

	require.NoError(t, c.runClearErrors(context.Background()))
	assert.Len(t, svc.ClearErrorsCalls(), 1)
	assert.Contains(t, out.String(), "Error log cleared")
}

func TestCli_runOperations(t *testing.T) {
	svc := &ServiceMock{
		OperationsFunc: func(ctx context.Context) ([]*models.Operation, error) {
			return []*models.Operation{
				{ID: "op-1", Kind: models.OpAddItem, SyncState: models.SyncSynced, SyncAttempts: 1},
				{ID: "op-2", Kind: models.OpClearCart, SyncState: models.SyncFailed, SyncAttempts: 2, LastError: "HTTP 409"},
			}, nil
		},
	}
	c, out := newTestCli(svc)

	require.NoError(t, c.runOperations(context.Background()))
	text := out.String()
	assert.Contains(t, text, "op-1  ADD_ITEM")
	assert.Contains(t, text, "last error: HTTP 409")
}

func TestCli_finish(t *testing.T) {
	secErr := &cart.SecurityError{Operation: "add item", Err: errors.New("HTTP 403")}

	t.Run("no failures keeps result", func(t *testing.T) {
		c, _ := newTestCli(&ServiceMock{})
		c.watching = true
		assert.NoError(t, c.finish(nil))

		plain := errors.New("bad args")
		assert.Equal(t, plain, c.finish(plain))
	})

	t.Run("reported failure", func(t *testing.T) {
		c, out := newTestCli(&ServiceMock{})
		c.watching = true
		c.onError(events.Event{Name: events.Error, Payload: cart.ErrorInfo{
			Operation: "add item",
			Message:   "this item cannot be added in the requested quantity",
			Category:  recovery.CategoryValidation,
			Severity:  recovery.SeverityLow,
		}})

		assert.ErrorIs(t, c.finish(nil), ErrReported)
		assert.ErrorIs(t, c.finish(secErr), ErrReported)
		assert.Contains(t, out.String(), "Warning: add item failed: this item cannot be added in the requested quantity [validation]")
	})

	t.Run("last error without events", func(t *testing.T) {
		svc := &ServiceMock{
			LastErrorFunc: func() *cart.ErrorInfo {
				return &cart.ErrorInfo{Operation: "sync", Message: "storage is full", Category: recovery.CategoryPersistence, Severity: recovery.SeverityHigh}
			},
		}
		c, out := newTestCli(svc)

		assert.ErrorIs(t, c.finish(nil), ErrReported)
		assert.Contains(t, out.String(), "ERROR: sync failed: storage is full [persistence]")
	})

	t.Run("unexpected payload ignored", func(t *testing.T) {
		c, _ := newTestCli(&ServiceMock{})
		c.watching = true
		c.onError(events.Event{Name: events.Error, Payload: "oops"})
		assert.NoError(t, c.finish(nil))
	})
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		want  string
		minor int64
	}{
		{want: "0.00", minor: 0},
		{want: "0.05", minor: 5},
		{want: "19.99", minor: 1999},
		{want: "1200.00", minor: 120000},
		{want: "-3.50", minor: -350},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMoney(tt.minor))
	}
}

// newCommandCli собирает CLI с фабрикой, возвращающей мок и реальную шину
func newCommandCli(t *testing.T, svc *ServiceMock, bus *events.Bus) (*Cli, *testOutput, *config.Config) {
	t.Helper()
	out := &testOutput{}
	if svc.PendingCountFunc == nil {
		svc.PendingCountFunc = func(ctx context.Context) (int, error) { return 0, nil }
	}
	if svc.OnlineFunc == nil {
		svc.OnlineFunc = func() bool { return true }
	}
	if svc.LastErrorFunc == nil {
		svc.LastErrorFunc = func() *cart.ErrorInfo { return nil }
	}

	var opened config.Config
	closed := 0
	c := New(newMockIO(out), func(ctx context.Context, cfg config.Config) (*Session, error) {
		opened = cfg
		s := &Session{
			Service: svc,
			Close: func() error {
				closed++
				return nil
			},
		}
		if bus != nil {
			s.Events = bus
		}
		return s, nil
	})
	t.Cleanup(func() {
		require.NoError(t, c.Close())
		assert.LessOrEqual(t, closed, 1)
	})
	return c, out, &opened
}

func TestCommand_AddParsesFlags(t *testing.T) {
	svc := &ServiceMock{
		AddItemFunc: func(ctx context.Context, item models.CartItem) (models.CartSnapshot, error) {
			return models.CartSnapshot{}, nil
		},
	}
	c, _, opened := newCommandCli(t, svc, events.NewBus(slog.New(slog.DiscardHandler)))

	root := c.Command("test")
	root.SetArgs([]string{
		"--server", "http://store.test", "--db", "", "--offline",
		"add", "42", "--qty", "3", "--price", "1999", "--title", "Beans", "--prop", "grind=fine",
	})
	require.NoError(t, root.ExecuteContext(context.Background()))

	require.Len(t, svc.AddItemCalls(), 1)
	item := svc.AddItemCalls()[0].Item
	assert.Equal(t, "42", item.ID)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, int64(1999), item.Price)
	assert.Equal(t, "Beans", item.Title)
	assert.Equal(t, map[string]string{"grind": "fine"}, item.Properties)

	assert.Equal(t, "http://store.test", opened.Server)
	assert.Empty(t, opened.DBPath)
	assert.True(t, opened.Offline)
}

func TestCommand_InvalidServerFlag(t *testing.T) {
	c, _, _ := newCommandCli(t, &ServiceMock{}, nil)

	root := c.Command("test")
	root.SetArgs([]string{"--server", "ftp://store.test", "show"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http or https")
}

func TestCommand_UpdateRejectsBadQuantity(t *testing.T) {
	svc := &ServiceMock{}
	c, _, _ := newCommandCli(t, svc, nil)

	root := c.Command("test")
	root.SetArgs([]string{"--server", "http://store.test", "update", "42:srv1", "many"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid quantity")
	assert.Empty(t, svc.UpdateItemQuantityCalls())
}

func TestCommand_ErrorEventReported(t *testing.T) {
	bus := events.NewBus(slog.New(slog.DiscardHandler))
	svc := &ServiceMock{
		AddItemFunc: func(ctx context.Context, item models.CartItem) (models.CartSnapshot, error) {
			err := &httpClient.HTTPError{StatusCode: http.StatusUnprocessableEntity}
			bus.Publish(events.Error, cart.ErrorInfo{
				Err:       err,
				Operation: "add item",
				Message:   recovery.UserMessage(err),
				Category:  recovery.Classify(err),
				Severity:  recovery.SeverityLow,
			})
			return models.CartSnapshot{}, nil
		},
	}
	c, out, _ := newCommandCli(t, svc, bus)

	root := c.Command("test")
	root.SetArgs([]string{"--server", "http://store.test", "add", "42", "--qty", "1000"})
	err := root.ExecuteContext(context.Background())

	require.ErrorIs(t, err, ErrReported)
	assert.Contains(t, out.String(), "add item failed: this item cannot be added in the requested quantity")
	assert.Equal(t, 1, bus.SubscriberCount())

	require.NoError(t, c.Close())
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestCommand_SecurityErrorReportedOnce(t *testing.T) {
	bus := events.NewBus(slog.New(slog.DiscardHandler))
	svc := &ServiceMock{
		SyncNowFunc: func(ctx context.Context) (*syncengine.Result, error) {
			bus.Publish(events.Error, cart.ErrorInfo{
				Operation: "sync",
				Message:   "your session has expired, please reload the page",
				Category:  recovery.CategorySecurity,
				Severity:  recovery.SeverityCritical,
			})
			return &syncengine.Result{State: syncengine.StatePartial},
				&cart.SecurityError{Operation: "sync", Err: errors.New("HTTP 403")}
		},
	}
	c, out, _ := newCommandCli(t, svc, bus)

	root := c.Command("test")
	root.SetArgs([]string{"--server", "http://store.test", "sync"})
	err := root.ExecuteContext(context.Background())

	require.ErrorIs(t, err, ErrReported)
	assert.Contains(t, out.String(), "ERROR: sync failed: your session has expired")
}

func TestCommand_OpenFailure(t *testing.T) {
	c := New(newMockIO(&testOutput{}), func(ctx context.Context, cfg config.Config) (*Session, error) {
		return nil, errors.New("database locked")
	})

	root := c.Command("test")
	root.SetArgs([]string{"--server", "http://store.test", "status"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open cart: database locked")
	assert.NoError(t, c.Close())
}
