package referral

import (
	"sync"
	"testing"
	"time"

	"gigsbot/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestStore_PublishesToSubscribers(t *testing.T) {
	store := NewStore()

	var first, second []domain.ReferralMetadata
	store.Subscribe(func(m domain.ReferralMetadata) { first = append(first, m) })
	unsubscribe := store.Subscribe(func(m domain.ReferralMetadata) { second = append(second, m) })

	store.SetReferral("AB12CD", "17", "Jane Wanjiku", false)
	unsubscribe()
	unsubscribe()
	store.SetClient("Amina Otieno", "254712345678")

	assert.Len(t, first, 2)
	assert.Len(t, second, 1)
	assert.Equal(t, domain.ReferralMetadata{
		Code:            "AB12CD",
		SalesPersonID:   "17",
		SalesPersonName: "Jane Wanjiku",
		ClientName:      "Amina Otieno",
		ClientPhone:     "254712345678",
	}, first[1])
}

func TestStore_Clear(t *testing.T) {
	store := NewStore()
	store.SetReferral(domain.SentinelReferralCode, "", domain.PlatformName, true)
	store.SetClient("Amina Otieno", "254712345678")

	var got domain.ReferralMetadata
	store.Subscribe(func(m domain.ReferralMetadata) { got = m })
	store.Clear()

	assert.Equal(t, domain.ReferralMetadata{}, got)
	assert.Equal(t, domain.ReferralMetadata{}, store.Snapshot())
}

func TestStore_SubscriberMayWriteBack(t *testing.T) {
	store := NewStore()

	store.Subscribe(func(m domain.ReferralMetadata) {
		if m.Code != "" && m.ClientName == "" {
			store.SetClient("unknown", "")
		}
	})

	store.SetReferral("AB12CD", "17", "Jane Wanjiku", false)

	assert.Equal(t, "unknown", store.Snapshot().ClientName)
}

func TestStore_ConcurrentUpdatesArriveInOrder(t *testing.T) {
	store := NewStore()

	entered := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var got []domain.ReferralMetadata
	store.Subscribe(func(m domain.ReferralMetadata) {
		mu.Lock()
		first := len(got) == 0
		got = append(got, m)
		mu.Unlock()

		if first {
			close(entered)
			<-release
		}
	})

	delivered := make(chan struct{})
	go func() {
		defer close(delivered)
		store.SetReferral("AB12CD", "17", "Jane Wanjiku", false)
	}()
	<-entered

	// applied while the first change is still being delivered
	store.SetClient("Amina Otieno", "254712345678")
	store.SetReferral(domain.SentinelReferralCode, "", domain.PlatformName, true)
	close(release)

	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("updates were not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	if assert.Len(t, got, 3) {
		assert.Equal(t, "AB12CD", got[0].Code)
		assert.Empty(t, got[0].ClientName)
		assert.Equal(t, "AB12CD", got[1].Code)
		assert.Equal(t, "Amina Otieno", got[1].ClientName)
		assert.Equal(t, domain.SentinelReferralCode, got[2].Code)
		assert.Equal(t, store.Snapshot(), got[2])
	}
}
