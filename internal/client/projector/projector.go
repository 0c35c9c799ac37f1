// Package projector applies cart operations to snapshots.
// Apply is pure: the input snapshot is never modified.
package projector

import (
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/cartsync/internal/models"
)

// TempKeyPrefix marks line keys synthesized locally before the server
// assigned a real one.
const TempKeyPrefix = "tmp-"

var (
	// ErrUnknownKind is returned for operations of an unknown kind
	ErrUnknownKind = errors.New("unknown operation kind")

	// ErrInvalidPayload is returned when an operation payload is malformed
	ErrInvalidPayload = errors.New("invalid operation payload")
)

// Apply returns the snapshot that results from applying op to snapshot.
// Totals of the result are always recomputed from its items.
func Apply(snapshot models.CartSnapshot, op *models.Operation) (models.CartSnapshot, error) {
	next := snapshot.Clone()

	switch op.Kind {
	case models.OpAddItem:
		p, err := op.DecodeAdd()
		if err != nil {
			return snapshot, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if err := applyAdd(&next, p.Item, TempKey(op.ID)); err != nil {
			return snapshot, err
		}
	case models.OpUpdateItem:
		p, err := op.DecodeUpdate()
		if err != nil {
			return snapshot, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		applyUpdate(&next, p.Key, p.ItemID, p.Quantity)
	case models.OpRemoveItem:
		p, err := op.DecodeRemove()
		if err != nil {
			return snapshot, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		applyRemove(&next, p.Key, p.ItemID)
	case models.OpClearCart:
		next.Items = []models.CartItem{}
	default:
		return snapshot, fmt.Errorf("%w: %q", ErrUnknownKind, op.Kind)
	}

	next.Recalculate()
	next.UpdatedAt = time.UnixMilli(op.CreatedAt).UTC()
	return next, nil
}

// ApplyAll folds ops over snapshot in order, stopping at the first error.
func ApplyAll(snapshot models.CartSnapshot, ops []*models.Operation) (models.CartSnapshot, error) {
	current := snapshot
	for _, op := range ops {
		next, err := Apply(current, op)
		if err != nil {
			return current, fmt.Errorf("apply %s %s: %w", op.Kind, op.ID, err)
		}
		current = next
	}
	return current, nil
}

func applyAdd(s *models.CartSnapshot, item models.CartItem, tempKey string) error {
	if item.ID == "" && item.Key == "" {
		return fmt.Errorf("%w: item has neither id nor key", ErrInvalidPayload)
	}
	if item.Quantity < 1 {
		return fmt.Errorf("%w: add quantity %d", ErrInvalidPayload, item.Quantity)
	}

	if idx := s.FindMergeIndex(&item); idx >= 0 {
		s.Items[idx].Quantity += item.Quantity
		return nil
	}

	line := item.Clone()
	if line.Key == "" {
		line.Key = tempKey
	}
	s.Items = append(s.Items, line)
	return nil
}

func applyUpdate(s *models.CartSnapshot, key, itemID string, quantity int) {
	idx := locate(s, key, itemID)
	if idx < 0 {
		return
	}
	if quantity <= 0 {
		s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
		return
	}
	s.Items[idx].Quantity = quantity
}

func applyRemove(s *models.CartSnapshot, key, itemID string) {
	idx := locate(s, key, itemID)
	if idx < 0 {
		return
	}
	s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
}

// locate находит строку по ключу. Временный ключ мог быть уже заменен
// серверным после обновления снимка, тогда строка ищется по ID товара.
func locate(s *models.CartSnapshot, key, itemID string) int {
	if idx := s.FindIndex(key); idx >= 0 {
		return idx
	}
	if !IsTempKey(key) || itemID == "" {
		return -1
	}
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// TempKey returns the temporary line key for an item added by operation opID.
// It is derived from the operation so rebuilding a projection from the same
// log yields the same keys.
func TempKey(opID string) string {
	return TempKeyPrefix + opID
}

// IsTempKey reports whether key was synthesized locally
func IsTempKey(key string) bool {
	return len(key) > len(TempKeyPrefix) && key[:len(TempKeyPrefix)] == TempKeyPrefix
}
