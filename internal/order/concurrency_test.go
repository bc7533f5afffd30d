package order

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shoply-be/internal/cart"
	"shoply-be/internal/db"
	"shoply-be/internal/product"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var errNotSQL = errors.New("memStore does not execute SQL")

type memState struct {
	stock      map[uint]int
	price      map[uint]decimal.Decimal
	carts      map[uint][]cart.CartLine
	orders     []Order
	items      []OrderItem
	nextID     uint
	nextItemID uint
}

func (s *memState) clone() *memState {
	c := &memState{
		stock:      make(map[uint]int, len(s.stock)),
		price:      s.price,
		carts:      make(map[uint][]cart.CartLine, len(s.carts)),
		orders:     append([]Order(nil), s.orders...),
		items:      append([]OrderItem(nil), s.items...),
		nextID:     s.nextID,
		nextItemID: s.nextItemID,
	}
	for id, n := range s.stock {
		c.stock[id] = n
	}
	for user, lines := range s.carts {
		c.carts[user] = append([]cart.CartLine(nil), lines...)
	}
	return c
}

// memTx is the Querier handed to the transaction body. It only marks which
// staged state a call belongs to.
type memTx struct {
	st *memState
}

func (*memTx) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, errNotSQL
}

func (*memTx) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errNotSQL
}

func (*memTx) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

// memStore serializes transactions and stages every write on a copy that is
// published only on commit.
type memStore struct {
	txMu  sync.Mutex
	mu    sync.Mutex
	state *memState
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		stock: map[uint]int{},
		price: map[uint]decimal.Decimal{},
		carts: map[uint][]cart.CartLine{},
	}}
}

func (m *memStore) addProduct(id uint, price string, stock int) {
	m.state.stock[id] = stock
	m.state.price[id] = decimal.RequireFromString(price)
}

func (m *memStore) addToCart(userID, productID uint, qty int) {
	m.state.carts[userID] = append(m.state.carts[userID], cart.CartLine{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	})
}

func (m *memStore) committed() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

func (m *memStore) WithTx(ctx context.Context, fn func(q db.Querier) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{st: m.committed()}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = tx.st
	m.mu.Unlock()
	return nil
}

func staged(q db.Querier) *memState {
	tx, ok := q.(*memTx)
	if !ok {
		panic("write outside transaction")
	}
	return tx.st
}

func (m *memStore) GetLines(_ context.Context, q db.Querier, userID uint) ([]cart.CartLine, error) {
	st := m.committed()
	if q != nil {
		st = staged(q)
	}

	lines := make([]cart.CartLine, 0, len(st.carts[userID]))
	for _, l := range st.carts[userID] {
		l.Price = st.price[l.ProductID]
		l.Stock = st.stock[l.ProductID]
		lines = append(lines, l)
	}
	return lines, nil
}

func (m *memStore) DeleteAll(_ context.Context, q db.Querier, userID uint) error {
	delete(staged(q).carts, userID)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uint) (*product.Product, error) {
	st := m.committed()
	stock, ok := st.stock[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &product.Product{ID: id, Price: st.price[id], Stock: stock}, nil
}

func (m *memStore) ConditionalDecrement(_ context.Context, q db.Querier, productID uint, amount int) (bool, error) {
	st := staged(q)
	stock, ok := st.stock[productID]
	if !ok || stock < amount {
		return false, nil
	}
	st.stock[productID] = stock - amount
	return true, nil
}

func (m *memStore) InsertOrder(_ context.Context, q db.Querier, o *Order) error {
	st := staged(q)
	st.nextID++
	o.ID = st.nextID
	o.CreatedAt = time.Now()
	st.orders = append(st.orders, *o)
	return nil
}

func (m *memStore) InsertItems(_ context.Context, q db.Querier, orderID uint, items []OrderItem) error {
	st := staged(q)
	for _, it := range items {
		st.nextItemID++
		it.ID = st.nextItemID
		it.OrderID = orderID
		st.items = append(st.items, it)
	}
	return nil
}

func (m *memStore) ListByUser(_ context.Context, userID uint) ([]Order, error) {
	var out []Order
	for _, o := range m.committed().orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) GetDetail(context.Context, uint, uint) (*Order, error) {
	return nil, ErrOrderNotFound
}

func (m *memStore) UpdateStatus(context.Context, uint, uint, Status) error {
	return ErrOrderNotFound
}

func newMemCheckout(store *memStore) Service {
	return NewService(store, store, store, store, Options{})
}

func TestPlaceOrder_LastUnitGoesToOneBuyer(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "99.99", 1)
	store.addToCart(1, 1, 1)
	store.addToCart(2, 1, 1)
	svc := newMemCheckout(store)

	var placed, short atomic.Int32
	var g errgroup.Group
	for _, userID := range []uint{1, 2} {
		userID := userID
		g.Go(func() error {
			_, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderInput{})
			switch {
			case err == nil:
				placed.Add(1)
			case errors.Is(err, ErrInsufficientStock):
				short.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), placed.Load())
	assert.Equal(t, int32(1), short.Load())

	final := store.committed()
	assert.Equal(t, 0, final.stock[1])
	assert.Len(t, final.orders, 1)
	assert.Len(t, final.items, 1)

	winner := final.orders[0].UserID
	assert.Empty(t, final.carts[winner], "winner's cart is cleared")
	for _, userID := range []uint{1, 2} {
		if userID != winner {
			assert.Len(t, final.carts[userID], 1, "loser's cart is untouched")
		}
	}
}

func TestPlaceOrder_StockNeverNegative(t *testing.T) {
	const (
		buyers = 40
		stock  = 15
	)

	store := newMemStore()
	store.addProduct(1, "12.50", stock)
	store.addProduct(2, "3.00", buyers*2)
	for u := uint(1); u <= buyers; u++ {
		store.addToCart(u, 1, 1)
		store.addToCart(u, 2, 2)
	}
	svc := newMemCheckout(store)

	var mu sync.Mutex
	succeeded := map[uint]string{}

	g, ctx := errgroup.WithContext(context.Background())
	for u := uint(1); u <= buyers; u++ {
		u := u
		g.Go(func() error {
			res, err := svc.PlaceOrder(ctx, u, PlaceOrderInput{})
			if errors.Is(err, ErrInsufficientStock) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			succeeded[u] = res.TotalAmount.StringFixed(2)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	final := store.committed()
	assert.Len(t, succeeded, stock)
	assert.Equal(t, 0, final.stock[1])
	assert.Equal(t, buyers*2-stock*2, final.stock[2])
	assert.Len(t, final.orders, stock)
	assert.Len(t, final.items, stock*2)

	for u := uint(1); u <= buyers; u++ {
		if total, ok := succeeded[u]; ok {
			assert.Equal(t, "18.50", total)
			assert.Empty(t, final.carts[u])
		} else {
			assert.Len(t, final.carts[u], 2)
		}
	}

	for _, o := range final.orders {
		assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("18.50")))
	}
}

func TestPlaceOrder_SecondCheckoutSeesEmptyCart(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "29.99", 10)
	store.addToCart(1, 1, 3)
	svc := newMemCheckout(store)

	res, err := svc.PlaceOrder(context.Background(), 1, PlaceOrderInput{})
	require.NoError(t, err)
	assert.Equal(t, "89.97", res.TotalAmount.StringFixed(2))

	_, err = svc.PlaceOrder(context.Background(), 1, PlaceOrderInput{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	final := store.committed()
	assert.Equal(t, 7, final.stock[1])
	assert.Len(t, final.orders, 1)
}
