package domain

import "context"

// ─── Ledger Store Contract ──────────────────────────────────────────────────
// Infrastructure implements these; the application layer depends on them.

// Collection names one table of the Ledger Store.
type Collection string

const (
	CollTransactions Collection = "transactions"
	CollObligations  Collection = "obligations"
	CollQuests       Collection = "quests"
	CollZones        Collection = "zones"
	CollActivities   Collection = "activities"
	CollSettings     Collection = "settings"
)

// AllCollections lists every collection in the store.
var AllCollections = []Collection{
	CollTransactions, CollObligations, CollQuests, CollZones, CollActivities, CollSettings,
}

// Store is an atomic multi-collection record store with a change feed.
type Store interface {
	// View runs fn against a read-only consistent snapshot.
	View(ctx context.Context, fn func(Tx) error) error

	// Update runs fn in a read-write transaction. Returning an error rolls
	// back every write made by fn. Subscribers are notified after commit.
	Update(ctx context.Context, fn func(Tx) error) error

	// Subscribe registers fn to be invoked after every committed Update
	// that wrote any of collections. The returned func unsubscribes.
	Subscribe(collections []Collection, fn func()) (unsubscribe func())
}

// Tx is the collection-level CRUD surface available inside a transaction.
// Get methods return (nil, nil) when the record does not exist.
type Tx interface {
	GetTransaction(id string) (*Transaction, error)
	ListTransactions() ([]Transaction, error)
	PutTransaction(t Transaction) error
	DeleteTransactions(ids ...string) error

	GetObligation(id string) (*Obligation, error)
	ListObligations() ([]Obligation, error)
	PutObligation(o Obligation) error
	DeleteObligation(id string) error

	GetQuest(id string) (*Quest, error)
	ListQuests() ([]Quest, error)
	PutQuest(q Quest) error

	GetZone(id string) (*Zone, error)
	ListZones() ([]Zone, error)
	PutZone(z Zone) error

	// GetActivities returns the activities that exist among ids, in no
	// particular order. Missing ids are skipped.
	GetActivities(ids ...string) ([]Activity, error)
	// ListActivities returns up to limit activities newest first.
	// limit <= 0 returns all.
	ListActivities(limit int) ([]Activity, error)
	AddActivity(a Activity) error
	DeleteActivities(ids ...string) error

	GetSettings() (*Settings, error)
	PutSettings(s Settings) error
}
