package queue

import "context"

// RipResultEncoder can serialize itself for storage. This is satisfied by
// *ripping.Result without requiring a direct import of that package.
type RipResultEncoder interface {
	Encode() (string, error)
}

// PersistRipResult encodes result and writes it to item via store.Update.
// On success the updated item fields (including any store-generated values)
// are written back through the item pointer. Returns a non-nil error when
// encoding or persistence fails; callers decide how to log the result.
func PersistRipResult(ctx context.Context, store *Store, item *Item, result RipResultEncoder) error {
	encoded, err := result.Encode()
	if err != nil {
		return err
	}
	copy := *item
	copy.RipResultJSON = encoded
	if store != nil {
		if err := store.Update(ctx, &copy); err != nil {
			return err
		}
	}
	*item = copy
	return nil
}
