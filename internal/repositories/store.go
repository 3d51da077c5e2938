package repositories

// Store bundles one implementation of every repository. All fields are set.
type Store struct {
	Users      UserRepository
	Products   ProductRepository
	Categories CategoryRepository
	Orders     OrderRepository
	Reviews    ReviewRepository
	Donations  DonationRepository
}

// NewMockStore returns an empty in-memory store.
func NewMockStore() *Store {
	return &Store{
		Users:      NewMockUserRepository(),
		Products:   NewMockProductRepository(),
		Categories: NewMockCategoryRepository(),
		Orders:     NewMockOrderRepository(),
		Reviews:    NewMockReviewRepository(),
		Donations:  NewMockDonationRepository(),
	}
}
