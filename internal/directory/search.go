package directory

import "fmt"

// SearchByAge returns all users with the given age, ordered by id.
// The age is range-checked before the store is touched: values outside
// [MinAge, MaxAge] return ErrInvalidArgument.
func SearchByAge(s Store, age int) ([]User, error) {
	if age < MinAge || age > MaxAge {
		return nil, fmt.Errorf("%w: age %d outside [%d, %d]", ErrInvalidArgument, age, MinAge, MaxAge)
	}
	return s.Find(ByAge(age)), nil
}

// SearchByLastName returns all users with the given last name, ordered by id.
// A blank name returns ErrInvalidArgument without touching the store.
func SearchByLastName(s Store, name string) ([]User, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: last name is required", ErrInvalidArgument)
	}
	return s.Find(ByLastName(name)), nil
}
