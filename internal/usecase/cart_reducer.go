package usecase

import "github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"

// CartAction はカートへの操作。ReduceCart が知っている型だけを許す。
type CartAction interface {
	cartAction()
	// メトリクス用の名前
	Name() string
}

// 解決済みの商品を追加する（数量1未満は1）
type AddItemAction struct {
	Product  model.Product
	Variant  model.Variant
	Quantity int64
}

type RemoveItemAction struct {
	VariantID string
}

// 0以下は削除
type UpdateQuantityAction struct {
	VariantID string
	Quantity  int64
}

type OpenCartAction struct{}

type CloseCartAction struct{}

type ToggleCartAction struct{}

type ClearCartAction struct{}

// 復元専用（保存しない）
type LoadCartAction struct {
	Cart model.Cart
}

func (AddItemAction) cartAction()        {}
func (RemoveItemAction) cartAction()     {}
func (UpdateQuantityAction) cartAction() {}
func (OpenCartAction) cartAction()       {}
func (CloseCartAction) cartAction()      {}
func (ToggleCartAction) cartAction()     {}
func (ClearCartAction) cartAction()      {}
func (LoadCartAction) cartAction()       {}

func (AddItemAction) Name() string        { return "add_item" }
func (RemoveItemAction) Name() string     { return "remove_item" }
func (UpdateQuantityAction) Name() string { return "update_quantity" }
func (OpenCartAction) Name() string       { return "open" }
func (CloseCartAction) Name() string      { return "close" }
func (ToggleCartAction) Name() string     { return "toggle" }
func (ClearCartAction) Name() string      { return "clear" }
func (LoadCartAction) Name() string       { return "load" }

// ReduceCart は純粋関数。state は変更せず新しいカートを返す。
// 返り値は常に subtotal/itemCount が明細と一致する。
func ReduceCart(state model.Cart, action CartAction) model.Cart {
	switch a := action.(type) {
	case AddItemAction:
		qty := a.Quantity
		if qty < 1 {
			qty = 1
		}
		items := copyItems(state.Items)
		found := false
		for i := range items {
			if items[i].VariantID == a.Variant.ID {
				items[i].Quantity += qty
				found = true
				break
			}
		}
		if !found {
			items = append(items, model.CartItem{
				ProductID: a.Product.ID,
				VariantID: a.Variant.ID,
				Quantity:  qty,
				Product:   a.Product,
				Variant:   a.Variant,
			})
		}
		return withTotals(model.Cart{Items: items, IsOpen: true})

	case RemoveItemAction:
		return withTotals(model.Cart{Items: removeVariant(state.Items, a.VariantID), IsOpen: state.IsOpen})

	case UpdateQuantityAction:
		if a.Quantity <= 0 {
			return withTotals(model.Cart{Items: removeVariant(state.Items, a.VariantID), IsOpen: state.IsOpen})
		}
		items := copyItems(state.Items)
		for i := range items {
			if items[i].VariantID == a.VariantID {
				items[i].Quantity = a.Quantity
				break
			}
		}
		return withTotals(model.Cart{Items: items, IsOpen: state.IsOpen})

	case OpenCartAction:
		return withOpen(state, true)

	case CloseCartAction:
		return withOpen(state, false)

	case ToggleCartAction:
		return withOpen(state, !state.IsOpen)

	case ClearCartAction:
		return model.EmptyCart()

	case LoadCartAction:
		return withTotals(model.Cart{Items: copyItems(a.Cart.Items), IsOpen: a.Cart.IsOpen})

	default:
		return state
	}
}

func withOpen(state model.Cart, open bool) model.Cart {
	next := withTotals(model.Cart{Items: copyItems(state.Items)})
	next.IsOpen = open
	return next
}

// 合計は明細からだけ計算する
func withTotals(c model.Cart) model.Cart {
	if c.Items == nil {
		c.Items = []model.CartItem{}
	}
	var subtotal, count int64
	for _, it := range c.Items {
		subtotal += it.LineTotal()
		count += it.Quantity
	}
	c.Subtotal = subtotal
	c.ItemCount = count
	return c
}

func copyItems(items []model.CartItem) []model.CartItem {
	out := make([]model.CartItem, len(items))
	copy(out, items)
	return out
}

func removeVariant(items []model.CartItem, variantID string) []model.CartItem {
	out := make([]model.CartItem, 0, len(items))
	for _, it := range items {
		if it.VariantID == variantID {
			continue
		}
		out = append(out, it)
	}
	return out
}

// VariantResolver はカタログから (productID, variantID) を引く。
// 非公開の商品/バリエーションは見つからない扱い。
type VariantResolver interface {
	ResolveVariant(productID string, variantID string) (model.Product, model.Variant, bool)
}

// RehydrateCart は保存された三つ組をカタログで引き直してカートを作る。
// 見つからない明細は黙って落とし、同じバリエーションはまとめる。
func RehydrateCart(snap model.CartSnapshot, catalog VariantResolver) model.Cart {
	items := []model.CartItem{}
	index := map[string]int{}

	for _, s := range snap.Items {
		if s.Quantity < 1 {
			continue
		}
		p, v, ok := catalog.ResolveVariant(s.ProductID, s.VariantID)
		if !ok {
			continue
		}
		if i, dup := index[v.ID]; dup {
			items[i].Quantity += s.Quantity
			continue
		}
		index[v.ID] = len(items)
		items = append(items, model.CartItem{
			ProductID: p.ID,
			VariantID: v.ID,
			Quantity:  s.Quantity,
			Product:   p,
			Variant:   v,
		})
	}

	return withTotals(model.Cart{Items: items})
}
