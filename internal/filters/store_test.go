package filters

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreNotifiesOnlyOnChange(t *testing.T) {
	store := NewStore(NewReducer(testNow))

	var seen []State
	unsubscribe := store.Subscribe(func(s State) { seen = append(seen, s) })

	_, changed := store.Dispatch(AddAccounts(1))
	assert.True(t, changed)

	// same id again only keeps clearable true, nothing to refetch
	_, changed = store.Dispatch(AddAccounts(1))
	assert.False(t, changed)

	_, changed = store.Dispatch(Clear())
	assert.True(t, changed)

	assert.Len(t, seen, 2)
	assert.Equal(t, []int64{1}, seen[0].Accounts)
	assert.False(t, seen[1].Clearable)
	assert.Equal(t, uint64(2), store.Revision())

	unsubscribe()
	store.Dispatch(AddCategories(5))
	assert.Len(t, seen, 2)
}

func TestStoreFirstNoOpActionStillMarksClearable(t *testing.T) {
	store := NewStore(NewReducer(testNow))

	s, changed := store.Dispatch(RemoveAccounts(99))
	assert.True(t, changed)
	assert.True(t, s.Clearable)
	assert.True(t, store.State().Clearable)
}

func TestStoreStateIsACopy(t *testing.T) {
	store := NewStore(NewReducer(testNow))
	store.Dispatch(AddAccounts(1, 2))

	s := store.State()
	s.Accounts[0] = 100

	assert.Equal(t, []int64{1, 2}, store.State().Accounts)
}

func TestStoreNotifiesInRevisionOrder(t *testing.T) {
	store := NewStore(NewReducer(testNow))

	var lengths []int
	store.Subscribe(func(s State) { lengths = append(lengths, len(s.Accounts)) })

	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			store.Dispatch(AddAccounts(id))
		}(i)
	}
	wg.Wait()

	assert.Len(t, lengths, 50)
	for i, n := range lengths {
		assert.Equal(t, i+1, n, "notification %d", i)
	}
}
