package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// OperationKind тип мутации корзины
type OperationKind string

const (
	OpAddItem    OperationKind = "ADD_ITEM"
	OpUpdateItem OperationKind = "UPDATE_ITEM"
	OpRemoveItem OperationKind = "REMOVE_ITEM"
	OpClearCart  OperationKind = "CLEAR_CART"
)

// Valid reports whether k is one of the known operation kinds.
func (k OperationKind) Valid() bool {
	switch k {
	case OpAddItem, OpUpdateItem, OpRemoveItem, OpClearCart:
		return true
	}
	return false
}

// SyncState статус синхронизации операции
type SyncState string

const (
	SyncPending SyncState = "PENDING"
	SyncSynced  SyncState = "SYNCED"
	SyncFailed  SyncState = "FAILED"
)

// Operation запись журнала операций, еще не подтвержденная сервером.
// Payload неизменяем после создания; меняются только поля статуса.
type Operation struct {
	SyncedAt     *time.Time      `json:"synced_at,omitempty"`
	ID           string          `json:"id"`
	Kind         OperationKind   `json:"kind"`
	SyncState    SyncState       `json:"sync_state"`
	LastError    string          `json:"last_error,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	CreatedAt    int64           `json:"created_at"` // CreatedAt unix ms, строго возрастает внутри журнала
	Seq          uint64          `json:"seq"`        // Seq порядок вставки, tie-break для CreatedAt
	SyncAttempts int             `json:"sync_attempts"`
}

// IsPending возвращает true для операций, которые еще нужно воспроизвести.
func (o *Operation) IsPending() bool {
	return o.SyncState == SyncPending || o.SyncState == SyncFailed
}

// Before задает порядок воспроизведения: CreatedAt, затем Seq.
func (o *Operation) Before(other *Operation) bool {
	if o.CreatedAt != other.CreatedAt {
		return o.CreatedAt < other.CreatedAt
	}
	return o.Seq < other.Seq
}

// Clone создает копию операции. Payload разделяется, так как он неизменяем.
func (o *Operation) Clone() *Operation {
	out := *o
	if o.SyncedAt != nil {
		t := *o.SyncedAt
		out.SyncedAt = &t
	}
	return &out
}

// AddItemPayload payload для ADD_ITEM
type AddItemPayload struct {
	Item CartItem `json:"item"`
}

// UpdateItemPayload payload для UPDATE_ITEM.
// ItemID дублирует ID товара строки, чтобы операцию можно было отправить
// на сервер, даже если Key временный и сервер его не знает.
type UpdateItemPayload struct {
	Key      string `json:"key"`
	ItemID   string `json:"item_id,omitempty"`
	Quantity int    `json:"quantity"`
}

// RemoveItemPayload payload для REMOVE_ITEM
type RemoveItemPayload struct {
	Key    string `json:"key"`
	ItemID string `json:"item_id,omitempty"`
}

// DecodeAdd декодирует payload операции ADD_ITEM
func (o *Operation) DecodeAdd() (*AddItemPayload, error) {
	if o.Kind != OpAddItem {
		return nil, fmt.Errorf("operation %s is %s, not %s", o.ID, o.Kind, OpAddItem)
	}
	var p AddItemPayload
	if err := json.Unmarshal(o.Payload, &p); err != nil {
		return nil, fmt.Errorf("failed to decode add payload: %w", err)
	}
	return &p, nil
}

// DecodeUpdate декодирует payload операции UPDATE_ITEM
func (o *Operation) DecodeUpdate() (*UpdateItemPayload, error) {
	if o.Kind != OpUpdateItem {
		return nil, fmt.Errorf("operation %s is %s, not %s", o.ID, o.Kind, OpUpdateItem)
	}
	var p UpdateItemPayload
	if err := json.Unmarshal(o.Payload, &p); err != nil {
		return nil, fmt.Errorf("failed to decode update payload: %w", err)
	}
	return &p, nil
}

// DecodeRemove декодирует payload операции REMOVE_ITEM
func (o *Operation) DecodeRemove() (*RemoveItemPayload, error) {
	if o.Kind != OpRemoveItem {
		return nil, fmt.Errorf("operation %s is %s, not %s", o.ID, o.Kind, OpRemoveItem)
	}
	var p RemoveItemPayload
	if err := json.Unmarshal(o.Payload, &p); err != nil {
		return nil, fmt.Errorf("failed to decode remove payload: %w", err)
	}
	return &p, nil
}
