package domain

// Record is implemented by every Info record stored under an ID of kind K.
type Record[K Kind] interface {
	ID() ID[K]
	Validate() error
}
